package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/merchflow/merchflow/pkg/chat"
	"github.com/merchflow/merchflow/pkg/eventbus"
	"github.com/merchflow/merchflow/pkg/events"
	"github.com/merchflow/merchflow/pkg/flow"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/persistence/file"
	"github.com/merchflow/merchflow/pkg/protocol"
	"github.com/merchflow/merchflow/pkg/registry"
	"github.com/merchflow/merchflow/pkg/script"
	"github.com/merchflow/merchflow/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	published []eventbus.Event
	keys      []string
}

func (p *capturePublisher) Publish(_ context.Context, key string, event eventbus.Event) error {
	p.published = append(p.published, event)
	p.keys = append(p.keys, key)

	return nil
}

type noopBackend struct{}

func (noopBackend) Request(_ context.Context, _, _ string, _ map[string]any) (any, error) {
	return map[string]any{}, nil
}

func (noopBackend) TriggerWorkflow(_ context.Context, _ string, _ map[string]any, _ bool) (any, error) {
	return map[string]any{}, nil
}

func (noopBackend) SendNotification(_ context.Context, _ protocol.Notification) (any, error) {
	return map[string]any{}, nil
}

func setupTestApp(t *testing.T) (*fiber.App, *flow.Repository, *capturePublisher) {
	t.Helper()

	logger := slog.Default()
	store, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)
	repository := flow.NewRepository(store)
	bus := &capturePublisher{}

	registryInstance := registry.NewRegistry(logger)
	registry.RegisterDefaultOperations(registryInstance, registry.Dependencies{
		Index:    catalog.NewIndex(catalog.StaticSource{}, logger),
		Backend:  noopBackend{},
		Executor: script.NewExecutor(logger),
		Runner:   flow.NewRunner(),
	})

	catalogIndex := catalog.NewIndex(catalog.StaticSource{
		{Method: "GET", Path: "/admin/products"},
		{Method: "POST", Path: "/admin/products"},
		{Method: "GET", Path: "/admin/orders"},
	}, logger)
	planner := chat.NewPlanner(catalogIndex, chat.NewThreadStore(), logger)

	handlers := web.NewAPIHandlers(
		repository,
		registryInstance,
		planner,
		bus,
		validator.New(validator.WithRequiredStructEnabled()),
	)

	return web.NewApp(handlers), repository, bus
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (*http.Response, []byte) {
	t.Helper()

	var body io.Reader

	if payload != nil {
		encoded, err := json.Marshal(payload)
		require.NoError(t, err)

		body = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, raw
}

func validFlowRequest(name string) web.CreateFlowRequest {
	return web.CreateFlowRequest{
		Name: name,
		Nodes: []*models.FlowNode{
			{ID: "start", Type: models.NodeTypeTrigger},
			{
				ID:            "say",
				Type:          models.NodeTypeOperation,
				OperationType: models.OperationTypeLog,
				OperationKey:  "say",
				Options:       map[string]any{"message": "hello"},
			},
		},
		Edges: []*models.Edge{
			{ID: "e1", Source: "start", Target: "say"},
		},
	}
}

func TestAPIHandlers_CreateFlow(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		requestBody    any
		expectedStatus int
		validateResult func(t *testing.T, body []byte)
	}{
		{
			name: "successful creation starts as draft",
			requestBody: web.CreateFlowRequest{
				Name:        "Order Sync",
				Description: "Syncs orders nightly",
				Owner:       "merchant-1",
				Variables:   map[string]any{"env": "test"},
			},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, body []byte) {
				t.Helper()

				var created models.Flow
				require.NoError(t, json.Unmarshal(body, &created))
				assert.Equal(t, "Order Sync", created.Name)
				assert.Equal(t, models.FlowStatusDraft, created.Status)
				assert.Equal(t, "merchant-1", created.Owner)
				assert.NotEmpty(t, created.ID)
			},
		},
		{
			name:           "missing name rejected",
			requestBody:    web.CreateFlowRequest{Description: "no name"},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "name too short rejected",
			requestBody:    web.CreateFlowRequest{Name: "ab"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _, _ := setupTestApp(t)

			resp, body := doJSON(t, app, http.MethodPost, "/flows", tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.validateResult != nil {
				tt.validateResult(t, body)
			}
		})
	}
}

func TestAPIHandlers_FlowLifecycle(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/flows", validFlowRequest("Lifecycle Flow"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Flow
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = doJSON(t, app, http.MethodGet, "/flows/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Flow
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	newDescription := "updated description"
	resp, body = doJSON(t, app, http.MethodPatch, "/flows/"+created.ID, web.UpdateFlowRequest{
		Description: &newDescription,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Flow
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, newDescription, updated.Description)
	assert.Equal(t, "Lifecycle Flow", updated.Name)

	resp, body = doJSON(t, app, http.MethodPost, "/flows/"+created.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var published models.Flow
	require.NoError(t, json.Unmarshal(body, &published))
	assert.Equal(t, models.FlowStatusPublished, published.Status)

	resp, _ = doJSON(t, app, http.MethodDelete, "/flows/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodGet, "/flows/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_PublishRejectsBrokenGraph(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	// two operation nodes sharing an operation key: fine as a draft,
	// rejected at publish time
	broken := validFlowRequest("Broken Flow")
	broken.Nodes = append(broken.Nodes, &models.FlowNode{
		ID:            "dup",
		Type:          models.NodeTypeOperation,
		OperationType: models.OperationTypeLog,
		OperationKey:  "say",
		Options:       map[string]any{"message": "again"},
	})
	broken.Edges = append(broken.Edges, &models.Edge{ID: "e2", Source: "start", Target: "dup"})

	resp, body := doJSON(t, app, http.MethodPost, "/flows", broken)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Flow
	require.NoError(t, json.Unmarshal(body, &created))

	resp, _ = doJSON(t, app, http.MethodPost, "/flows/"+created.ID+"/publish", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_ValidateFlow(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/flows", web.CreateFlowRequest{Name: "No Trigger Yet"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var draft models.Flow
	require.NoError(t, json.Unmarshal(body, &draft))

	resp, body = doJSON(t, app, http.MethodPost, "/flows/"+draft.ID+"/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var verdict map[string]any
	require.NoError(t, json.Unmarshal(body, &verdict))
	assert.Equal(t, false, verdict["valid"])
	assert.NotEmpty(t, verdict["error"])

	resp, body = doJSON(t, app, http.MethodPost, "/flows", validFlowRequest("Complete Flow"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var complete models.Flow
	require.NoError(t, json.Unmarshal(body, &complete))

	resp, body = doJSON(t, app, http.MethodPost, "/flows/"+complete.ID+"/validate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &verdict))
	assert.Equal(t, true, verdict["valid"])
}

func TestAPIHandlers_GetNodeVariables(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	// start -> say -> late: "late" may reference say's output, "say" may not
	// reference late's
	req := validFlowRequest("Variables Flow")
	req.Nodes = append(req.Nodes, &models.FlowNode{
		ID:            "late",
		Type:          models.NodeTypeOperation,
		OperationType: models.OperationTypeLog,
		OperationKey:  "late",
		Options:       map[string]any{"message": "{{ say.message }}"},
	})
	req.Edges = append(req.Edges, &models.Edge{ID: "e2", Source: "say", Target: "late"})

	resp, body := doJSON(t, app, http.MethodPost, "/flows", req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Flow
	require.NoError(t, json.Unmarshal(body, &created))

	resp, body = doJSON(t, app, http.MethodGet, "/flows/"+created.ID+"/nodes/late/variables", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Variables []string `json:"variables"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Contains(t, listing.Variables, "$trigger")
	assert.Contains(t, listing.Variables, "say")
	assert.NotContains(t, listing.Variables, "late")

	resp, body = doJSON(t, app, http.MethodGet, "/flows/"+created.ID+"/nodes/say/variables", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.NotContains(t, listing.Variables, "late")

	resp, _ = doJSON(t, app, http.MethodGet, "/flows/"+created.ID+"/nodes/ghost/variables", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_TriggerFlow(t *testing.T) {
	t.Parallel()

	app, _, bus := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/flows", validFlowRequest("Webhook Flow"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Flow
	require.NoError(t, json.Unmarshal(body, &created))

	// drafts cannot be triggered
	resp, _ = doJSON(t, app, http.MethodPost, "/webhooks/flows/"+created.ID, map[string]any{})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/flows/"+created.ID+"/publish", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = doJSON(t, app, http.MethodPost, "/webhooks/flows/"+created.ID, map[string]any{
		"order_id": "ord_42",
		"input":    map[string]any{"limit": 10},
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted map[string]any
	require.NoError(t, json.Unmarshal(body, &accepted))
	assert.Equal(t, "triggered", accepted["status"])
	assert.Equal(t, created.ID, accepted["flow_id"])

	require.Len(t, bus.published, 1)

	triggered, ok := bus.published[0].(events.FlowTriggered)
	require.True(t, ok)
	assert.Equal(t, created.ID, triggered.FlowID)
	assert.Equal(t, "webhook", triggered.TriggerSource)
	assert.Equal(t, "ord_42", triggered.TriggerData["order_id"])
	assert.Equal(t, float64(10), triggered.Input["limit"])

	resp, _ = doJSON(t, app, http.MethodPost, "/webhooks/flows/missing", map[string]any{})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_Chat(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/chat", chat.Request{Message: "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var greeting chat.Response
	require.NoError(t, json.Unmarshal(body, &greeting))
	assert.Equal(t, chat.StatusReply, greeting.Status)
	assert.Empty(t, greeting.ToolCalls)

	resp, body = doJSON(t, app, http.MethodPost, "/chat", chat.Request{Message: "GET /admin/products"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var planned chat.Response
	require.NoError(t, json.Unmarshal(body, &planned))
	assert.Equal(t, chat.StatusPlanned, planned.Status)
	require.Len(t, planned.ToolCalls, 1)
	assert.Equal(t, "admin_api_request", planned.ToolCalls[0].Name)

	resp, _ = doJSON(t, app, http.MethodPost, "/chat", chat.Request{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_GetOperations(t *testing.T) {
	t.Parallel()

	app, _, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/operations", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Operations []web.OperationDescriptor `json:"operations"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Len(t, listing.Operations, len(models.OperationTypes))

	ids := make(map[string]bool, len(listing.Operations))
	for _, descriptor := range listing.Operations {
		ids[descriptor.ID] = true
		assert.NotEmpty(t, descriptor.Name)
	}

	assert.True(t, ids["read_data"])
	assert.True(t, ids["condition"])
	assert.True(t, ids["trigger_flow"])
}
