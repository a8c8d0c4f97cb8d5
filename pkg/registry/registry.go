// Package registry maps operation type tags to their factories and
// validates node options against each factory's schema.
package registry

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/merchflow/merchflow/pkg/protocol"
)

// Registry holds the operation factories available to flows.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.OperationFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.OperationFactory),
	}
}

// Register adds a factory, replacing any previous one for the same id.
func (r *Registry) Register(factory protocol.OperationFactory) {
	r.factories[factory.ID()] = factory
}

// Create instantiates an operation of the given type with resolved
// options, validating them against the factory schema first.
func (r *Registry) Create(operationType string, options map[string]any) (protocol.Operation, error) {
	factory, ok := r.factories[operationType]
	if !ok {
		return nil, fmt.Errorf("operation type %q not registered", operationType)
	}

	if err := ValidateOptions(factory.Schema(), options); err != nil {
		return nil, fmt.Errorf("invalid options for %q: %w", operationType, err)
	}

	return factory.Create(options)
}

// Factory returns the factory for an operation type.
func (r *Registry) Factory(operationType string) (protocol.OperationFactory, bool) {
	factory, ok := r.factories[operationType]

	return factory, ok
}

// Available lists the registered operation type tags, sorted.
func (r *Registry) Available() []string {
	types := make([]string, 0, len(r.factories))
	for operationType := range r.factories {
		types = append(types, operationType)
	}

	sort.Strings(types)

	return types
}
