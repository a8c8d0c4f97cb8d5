// Package cmd provides common initialization for merchflow binaries.
package cmd

import (
	"log/slog"

	"github.com/merchflow/merchflow/pkg/backend"
	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/merchflow/merchflow/pkg/flow"
	"github.com/merchflow/merchflow/pkg/registry"
	"github.com/merchflow/merchflow/pkg/script"
)

// BackendConfig names the commerce backend and its API catalog.
type BackendConfig struct {
	// BaseURL is the admin API root, e.g. https://backend.example.com.
	BaseURL string

	// Token authenticates admin API and catalog requests.
	Token string

	// CatalogURL serves the endpoint catalog document. Empty leaves the
	// catalog empty, which disables endpoint checking.
	CatalogURL string
}

// Services bundles the shared dependencies the binaries wire together.
// Runner is created unbound; callers bind it once the flow executor
// exists.
type Services struct {
	Registry *registry.Registry
	Index    *catalog.Index
	Backend  *backend.Client
	Runner   *flow.Runner
}

// NewServices builds the operation registry with its catalog index,
// backend client, and script executor.
func NewServices(logger *slog.Logger, config BackendConfig) *Services {
	var source catalog.Source = catalog.StaticSource{}
	if config.CatalogURL != "" {
		source = &catalog.HTTPSource{URL: config.CatalogURL, Token: config.Token}
	}

	index := catalog.NewIndex(source, logger)
	client := backend.NewClient(config.BaseURL, config.Token, logger)
	runner := flow.NewRunner()

	reg := registry.NewRegistry(logger)
	registry.RegisterDefaultOperations(reg, registry.Dependencies{
		Index:    index,
		Backend:  client,
		Executor: script.NewExecutor(logger),
		Runner:   runner,
	})

	return &Services{
		Registry: reg,
		Index:    index,
		Backend:  client,
		Runner:   runner,
	}
}
