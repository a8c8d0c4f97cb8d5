// Package web provides the HTTP surface: flow management, webhook
// triggers, and the chat planning endpoint.
package web

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/merchflow/merchflow/pkg/chat"
	"github.com/merchflow/merchflow/pkg/eventbus"
	"github.com/merchflow/merchflow/pkg/events"
	"github.com/merchflow/merchflow/pkg/flow"
	"github.com/merchflow/merchflow/pkg/graph"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/registry"
)

type APIHandlers struct {
	repository *flow.Repository
	registry   *registry.Registry
	planner    *chat.Planner
	eventBus   eventbus.EventPublisher
	validator  *validator.Validate
}

func NewAPIHandlers(
	repository *flow.Repository,
	reg *registry.Registry,
	planner *chat.Planner,
	bus eventbus.EventPublisher,
	validate *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		repository: repository,
		registry:   reg,
		planner:    planner,
		eventBus:   bus,
		validator:  validate,
	}
}

func (h *APIHandlers) GetFlows(c fiber.Ctx) error {
	flows, err := h.repository.All(c.Context())
	if err != nil {
		return internalError(c, err)
	}

	return c.JSON(fiber.Map{
		"flows": flows,
		"count": len(flows),
	})
}

func (h *APIHandlers) GetFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	stored, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleFlowError(c, err)
	}

	return c.JSON(stored)
}

func (h *APIHandlers) CreateFlow(c fiber.Ctx) error {
	var req CreateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created := &models.Flow{
		Name:        req.Name,
		Description: req.Description,
		Status:      models.FlowStatusDraft,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		Schedule:    req.Schedule,
		Variables:   req.Variables,
		Metadata:    req.Metadata,
		Owner:       req.Owner,
	}

	if err := h.repository.Save(c.Context(), created); err != nil {
		return handleFlowError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	var req UpdateFlowRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleFlowError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Nodes != nil {
		existing.Nodes = req.Nodes
	}

	if req.Edges != nil {
		existing.Edges = req.Edges
	}

	if req.Schedule != nil {
		existing.Schedule = *req.Schedule
	}

	if req.Variables != nil {
		existing.Variables = req.Variables
	}

	if req.Metadata != nil {
		existing.Metadata = req.Metadata
	}

	if err := h.repository.Save(c.Context(), existing); err != nil {
		return handleFlowError(c, err)
	}

	return c.JSON(existing)
}

func (h *APIHandlers) DeleteFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	if err := h.repository.Delete(c.Context(), id); err != nil {
		return handleFlowError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// PublishFlow transitions a draft to published after re-validating its
// graph.
func (h *APIHandlers) PublishFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	stored, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleFlowError(c, err)
	}

	stored.Status = models.FlowStatusPublished

	if err := h.repository.Save(c.Context(), stored); err != nil {
		return handleFlowError(c, err)
	}

	return c.JSON(stored)
}

// ValidateFlow checks the stored flow's graph without changing it.
func (h *APIHandlers) ValidateFlow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Flow ID is required")
	}

	stored, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleFlowError(c, err)
	}

	if err := graph.Validate(stored); err != nil {
		return c.JSON(fiber.Map{"valid": false, "error": err.Error()})
	}

	return c.JSON(fiber.Map{"valid": true})
}

// GetNodeVariables lists the variable roots a node may reference: the
// context roots plus operation keys of upstream nodes only.
func (h *APIHandlers) GetNodeVariables(c fiber.Ctx) error {
	id := c.Params("id")
	nodeID := c.Params("nodeId")

	if id == "" || nodeID == "" {
		return badRequest(c, "Flow ID and node ID are required")
	}

	stored, err := h.repository.FetchByID(c.Context(), id)
	if err != nil {
		return handleFlowError(c, err)
	}

	found := false

	for _, node := range stored.Nodes {
		if node.ID == nodeID {
			found = true

			break
		}
	}

	if !found {
		return notFound(c, "node not found")
	}

	variables := []string{"$last", "$input", "$trigger"}
	variables = append(variables, graph.UpstreamKeys(stored, nodeID)...)

	return c.JSON(fiber.Map{"variables": variables})
}

// TriggerFlow is the webhook entry point: POST /webhooks/flows/:flowId
// publishes a trigger event and returns immediately.
func (h *APIHandlers) TriggerFlow(c fiber.Ctx) error {
	flowID := c.Params("flowId")
	if flowID == "" {
		return badRequest(c, "Flow ID is required")
	}

	stored, err := h.repository.FetchExecutable(c.Context(), flowID)
	if err != nil {
		return handleFlowError(c, err)
	}

	var trigger map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&trigger); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	// an "input" field in the payload becomes the run input; the whole
	// payload is the trigger data either way
	input, _ := trigger["input"].(map[string]any)

	event := events.FlowTriggered{
		BaseEvent:     events.NewBaseEvent(events.FlowTriggeredEvent, stored.ID),
		TriggerSource: "webhook",
		TriggerData:   trigger,
		Input:         input,
	}

	if err := h.eventBus.Publish(c.Context(), stored.ID, event); err != nil {
		return internalError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":  "triggered",
		"flow_id": stored.ID,
	})
}

// Chat plans an admin API action from a natural-language message.
func (h *APIHandlers) Chat(c fiber.Ctx) error {
	var req chat.Request
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(h.planner.Plan(c.Context(), req))
}

// GetOperations lists every registered operation type with its schema.
func (h *APIHandlers) GetOperations(c fiber.Ctx) error {
	descriptors := make([]OperationDescriptor, 0)

	for _, id := range h.registry.Available() {
		factory, ok := h.registry.Factory(id)
		if !ok {
			continue
		}

		descriptors = append(descriptors, OperationDescriptor{
			ID:          factory.ID(),
			Name:        factory.Name(),
			Description: factory.Description(),
			Schema:      factory.Schema(),
		})
	}

	return c.JSON(fiber.Map{"operations": descriptors})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK

	if _, err := h.repository.All(c.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}
