package data

import (
	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// Factory creates data operations for one action kind. The same factory
// type backs read_data, create_data, update_data, delete_data, and
// bulk_update_data.
type Factory struct {
	action      models.OperationType
	name        string
	description string
	index       *catalog.Index
	backend     protocol.Backend
}

// NewReadFactory creates the read_data factory.
func NewReadFactory(index *catalog.Index, backend protocol.Backend) *Factory {
	return &Factory{
		action:      models.OperationTypeReadData,
		name:        "Read Data",
		description: "Lists or fetches records of a catalog entity, with optional filters, fields, and limit.",
		index:       index,
		backend:     backend,
	}
}

// NewCreateFactory creates the create_data factory.
func NewCreateFactory(index *catalog.Index, backend protocol.Backend) *Factory {
	return &Factory{
		action:      models.OperationTypeCreateData,
		name:        "Create Data",
		description: "Creates one record of a catalog entity.",
		index:       index,
		backend:     backend,
	}
}

// NewUpdateFactory creates the update_data factory.
func NewUpdateFactory(index *catalog.Index, backend protocol.Backend) *Factory {
	return &Factory{
		action:      models.OperationTypeUpdateData,
		name:        "Update Data",
		description: "Updates one record of a catalog entity by id.",
		index:       index,
		backend:     backend,
	}
}

// NewDeleteFactory creates the delete_data factory.
func NewDeleteFactory(index *catalog.Index, backend protocol.Backend) *Factory {
	return &Factory{
		action:      models.OperationTypeDeleteData,
		name:        "Delete Data",
		description: "Deletes one record of a catalog entity by id.",
		index:       index,
		backend:     backend,
	}
}

// NewBulkUpdateFactory creates the bulk_update_data factory.
func NewBulkUpdateFactory(index *catalog.Index, backend protocol.Backend) *Factory {
	return &Factory{
		action:      models.OperationTypeBulkUpdateData,
		name:        "Bulk Update Data",
		description: "Updates many records of a catalog entity, collecting per-item results.",
		index:       index,
		backend:     backend,
	}
}

// ID returns the operation type tag this factory handles.
func (f *Factory) ID() string {
	return string(f.action)
}

// Name returns the human-readable operation name.
func (f *Factory) Name() string {
	return f.name
}

// Description returns what this operation does.
func (f *Factory) Description() string {
	return f.description
}

// Create builds a data operation from resolved node options.
func (f *Factory) Create(options map[string]any) (protocol.Operation, error) {
	if options == nil {
		options = map[string]any{}
	}

	return NewOperation(f.action, options, f.index, f.backend)
}

// Schema returns the JSON schema for the operation options.
func (f *Factory) Schema() map[string]any {
	properties := map[string]any{
		"entity": map[string]any{
			"type":        "string",
			"description": "Catalog entity, e.g. 'products' or 'product_categories'.",
		},
	}
	required := []string{"entity"}

	switch f.action {
	case models.OperationTypeReadData:
		properties["id"] = map[string]any{
			"type":        "string",
			"description": "Fetch a single record by id instead of listing.",
		}
		properties["filters"] = map[string]any{
			"type":        "object",
			"description": "Query filters passed to the backend list endpoint.",
		}
		properties["fields"] = map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "Fields to select.",
		}
		properties["limit"] = map[string]any{
			"type":        "number",
			"description": "Maximum records to return.",
			"default":     defaultReadLimit,
		}
	case models.OperationTypeCreateData:
		properties["data"] = map[string]any{
			"type":        "object",
			"description": "Record payload. Supports templating for dynamic content.",
		}
		required = append(required, "data")
	case models.OperationTypeUpdateData:
		properties["id"] = map[string]any{
			"type":        "string",
			"description": "Record id to update.",
		}
		properties["data"] = map[string]any{
			"type":        "object",
			"description": "Fields to change. Supports templating for dynamic content.",
		}
		required = append(required, "id", "data")
	case models.OperationTypeDeleteData:
		properties["id"] = map[string]any{
			"type":        "string",
			"description": "Record id to delete.",
		}
		required = append(required, "id")
	case models.OperationTypeBulkUpdateData:
		properties["items"] = map[string]any{
			"type":        "array",
			"description": "Items to update, each with 'id' and 'data'.",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":   map[string]any{"type": "string"},
					"data": map[string]any{"type": "object"},
				},
				"required": []string{"id"},
			},
		}
		required = append(required, "items")
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}
