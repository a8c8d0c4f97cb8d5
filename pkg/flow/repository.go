// Package flow contains the orchestrator that runs flow graphs and the
// repository that guards flow definitions.
package flow

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/merchflow/merchflow/pkg/graph"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/persistence"
)

// ErrFlowNotExecutable is returned when a run is requested for a flow
// that is not published.
var ErrFlowNotExecutable = errors.New("flow is not published")

// Repository validates flows before they reach storage and answers
// fetches for the executor.
type Repository struct {
	persistence persistence.Persistence
	validate    *validator.Validate
}

func NewRepository(persistence persistence.Persistence) *Repository {
	return &Repository{
		persistence: persistence,
		validate:    validator.New(),
	}
}

// All returns every stored flow.
func (r *Repository) All(ctx context.Context) ([]*models.Flow, error) {
	return r.persistence.Flows(ctx)
}

// FetchByID returns the flow with the given id.
func (r *Repository) FetchByID(ctx context.Context, id string) (*models.Flow, error) {
	return r.persistence.FlowByID(ctx, id)
}

// FetchExecutable returns the flow only when it is published.
func (r *Repository) FetchExecutable(ctx context.Context, id string) (*models.Flow, error) {
	flow, err := r.persistence.FlowByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if flow.Status != models.FlowStatusPublished {
		return nil, fmt.Errorf("%w: %s is %s", ErrFlowNotExecutable, id, flow.Status)
	}

	return flow, nil
}

// Save validates the flow's fields, assigns an id when missing, and
// persists it. Drafts may hold incomplete graphs; the graph invariants
// are enforced once the flow is published.
func (r *Repository) Save(ctx context.Context, flow *models.Flow) error {
	if flow.ID == "" {
		flow.ID = "flow-" + uuid.New().String()[:8]
	}

	if flow.Status == "" {
		flow.Status = models.FlowStatusDraft
	}

	if err := r.validate.Struct(flow); err != nil {
		return fmt.Errorf("validating flow: %w", err)
	}

	if flow.Status == models.FlowStatusPublished {
		if err := graph.Validate(flow); err != nil {
			return fmt.Errorf("validating flow graph: %w", err)
		}
	}

	return r.persistence.SaveFlow(ctx, flow)
}

// Delete removes the flow from storage.
func (r *Repository) Delete(ctx context.Context, id string) error {
	return r.persistence.DeleteFlow(ctx, id)
}
