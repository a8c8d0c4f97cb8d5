// Package file persists flows as JSON documents on the local
// filesystem, one file per flow.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/persistence"
)

const flowFileMode = 0o644

type Persistence struct {
	root string
}

func NewPersistence(root string) (*Persistence, error) {
	if err := os.MkdirAll(path.Join(root, "flows"), 0o755); err != nil {
		return nil, fmt.Errorf("creating flows directory: %w", err)
	}

	return &Persistence{root: root}, nil
}

func (p *Persistence) flowPath(id string) string {
	return path.Join(p.root, "flows", id+".json")
}

func (p *Persistence) Flows(ctx context.Context) ([]*models.Flow, error) {
	root := os.DirFS(path.Join(p.root, "flows"))

	files, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("listing flow files: %w", err)
	}

	flows := make([]*models.Flow, 0, len(files))

	for _, file := range files {
		id := file[:len(file)-len(filepath.Ext(file))]

		flow, err := p.FlowByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("loading flow %s: %w", id, err)
		}

		flows = append(flows, flow)
	}

	return flows, nil
}

func (p *Persistence) SaveFlow(_ context.Context, flow *models.Flow) error {
	if flow.ID == "" {
		return persistence.NewFlowError("Save", flow.ID, errors.New("flow id is empty"))
	}

	now := time.Now().UTC()
	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = now
	}

	flow.UpdatedAt = now

	raw, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	if err := os.WriteFile(p.flowPath(flow.ID), raw, flowFileMode); err != nil {
		return persistence.NewFlowError("Save", flow.ID, err)
	}

	return nil
}

func (p *Persistence) FlowByID(_ context.Context, id string) (*models.Flow, error) {
	raw, err := os.ReadFile(p.flowPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewFlowError("GetByID", id, persistence.ErrFlowNotFound)
		}

		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	var flow models.Flow
	if err := json.Unmarshal(raw, &flow); err != nil {
		return nil, persistence.NewFlowError("GetByID", id, err)
	}

	return &flow, nil
}

func (p *Persistence) DeleteFlow(_ context.Context, id string) error {
	if err := os.Remove(p.flowPath(id)); err != nil {
		if os.IsNotExist(err) {
			return persistence.NewFlowError("Delete", id, persistence.ErrFlowNotFound)
		}

		return persistence.NewFlowError("Delete", id, err)
	}

	return nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(path.Join(p.root, "flows"))
	if err != nil {
		return fmt.Errorf("flows directory unavailable: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("flows path %s is not a directory", path.Join(p.root, "flows"))
	}

	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
