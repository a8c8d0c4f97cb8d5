// Package redis persists flows in Redis hashes, one field per flow.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const flowsKey = "merchflow:flows"

type Persistence struct {
	client *goredis.Client
}

func NewPersistence(url string) (*Persistence, error) {
	options, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	return &Persistence{client: goredis.NewClient(options)}, nil
}

func (p *Persistence) Flows(ctx context.Context) ([]*models.Flow, error) {
	entries, err := p.client.HGetAll(ctx, flowsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("listing flows: %w", err)
	}

	flows := make([]*models.Flow, 0, len(entries))

	for id, raw := range entries {
		var flow models.Flow
		if err := json.Unmarshal([]byte(raw), &flow); err != nil {
			return nil, persistence.NewFlowError("List", id, err)
		}

		flows = append(flows, &flow)
	}

	return flows, nil
}

func (p *Persistence) SaveFlow(ctx context.Context, flow *models.Flow) error {
	if flow.ID == "" {
		return persistence.NewFlowError("Save", flow.ID, errors.New("flow id is empty"))
	}

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	raw, err := json.Marshal(flow)
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	if err := p.client.HSet(ctx, flowsKey, flow.ID, raw).Err(); err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

func (p *Persistence) FlowByID(ctx context.Context, id string) (*models.Flow, error) {
	raw, err := p.client.HGet(ctx, flowsKey, id).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewFlowError("GetByID", id, persistence.ErrFlowNotFound)
		}

		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	var flow models.Flow
	if err := json.Unmarshal([]byte(raw), &flow); err != nil {
		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	return &flow, nil
}

func (p *Persistence) DeleteFlow(ctx context.Context, id string) error {
	removed, err := p.client.HDel(ctx, flowsKey, id).Result()
	if err != nil {
		return persistence.NewFlowError("Delete", id, err)
	}

	if removed == 0 {
		return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (p *Persistence) Close(_ context.Context) error {
	return p.client.Close()
}

var _ persistence.Persistence = (*Persistence)(nil)
