// Package persistence provides the storage abstraction for flow
// definitions.
package persistence

import (
	"context"

	"github.com/merchflow/merchflow/pkg/models"
)

type Persistence interface {
	Flows(ctx context.Context) ([]*models.Flow, error)
	SaveFlow(ctx context.Context, flow *models.Flow) error
	FlowByID(ctx context.Context, id string) (*models.Flow, error)
	DeleteFlow(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
