// Package data implements the catalog-validated data operations:
// read_data, create_data, update_data, delete_data, and bulk_update_data.
package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/merchflow/merchflow/pkg/catalog"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/planner"
	"github.com/merchflow/merchflow/pkg/protocol"
)

var (
	// ErrEntityRequired is returned when a data operation has no entity.
	ErrEntityRequired = errors.New("data operation requires an entity")

	// ErrRecordIDRequired is returned when update/delete has no record id.
	ErrRecordIDRequired = errors.New("data operation requires a record id")

	// ErrInvalidEndpoint is returned when the derived endpoint fails
	// catalog validation. Never raised while the catalog is empty: an
	// unreachable catalog degrades to permissive pass-through.
	ErrInvalidEndpoint = errors.New("endpoint not in catalog")
)

const defaultReadLimit = 50

// Operation performs one data action against the commerce backend.
type Operation struct {
	action  models.OperationType
	Entity  string
	ID      string
	Data    map[string]any
	Filters map[string]any
	Fields  []string
	Limit   int
	Items   []any

	index   *catalog.Index
	backend protocol.Backend
}

// NewOperation builds a data operation from resolved options.
func NewOperation(
	action models.OperationType,
	options map[string]any,
	index *catalog.Index,
	backend protocol.Backend,
) (*Operation, error) {
	entity, _ := options["entity"].(string)
	if entity == "" {
		return nil, ErrEntityRequired
	}

	operation := &Operation{
		action:  action,
		Entity:  entity,
		index:   index,
		backend: backend,
		Limit:   defaultReadLimit,
	}

	operation.ID, _ = options["id"].(string)
	operation.Data, _ = options["data"].(map[string]any)
	operation.Filters, _ = options["filters"].(map[string]any)
	operation.Items, _ = options["items"].([]any)

	if limit, ok := options["limit"].(float64); ok && limit > 0 {
		operation.Limit = int(limit)
	}

	if fields, ok := options["fields"].([]any); ok {
		for _, field := range fields {
			if name, ok := field.(string); ok {
				operation.Fields = append(operation.Fields, name)
			}
		}
	}

	return operation, nil
}

// Execute validates the derived endpoint against the catalog, runs the
// dependency planner advisory for writes, and dispatches the call.
func (o *Operation) Execute(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", string(o.action), "entity", o.Entity)

	method, err := o.method()
	if err != nil {
		return nil, err
	}

	collectionPath, err := o.validatedPath(ctx, method)
	if err != nil {
		return nil, err
	}

	if o.action == models.OperationTypeBulkUpdateData {
		return o.executeBulk(ctx, collectionPath, logger)
	}

	path, body := o.requestParts(collectionPath)

	o.advise(ctx, method, collectionPath, body, logger)

	logger.InfoContext(ctx, "Dispatching data operation", "method", method, "path", path)

	return o.backend.Request(ctx, method, path, body)
}

func (o *Operation) method() (string, error) {
	switch o.action {
	case models.OperationTypeReadData:
		return http.MethodGet, nil
	case models.OperationTypeCreateData:
		return http.MethodPost, nil
	case models.OperationTypeUpdateData, models.OperationTypeBulkUpdateData:
		if o.action == models.OperationTypeUpdateData && o.ID == "" {
			return "", ErrRecordIDRequired
		}

		return http.MethodPatch, nil
	case models.OperationTypeDeleteData:
		if o.ID == "" {
			return "", ErrRecordIDRequired
		}

		return http.MethodDelete, nil
	default:
		return "", fmt.Errorf("unsupported data action %q", o.action)
	}
}

// validatedPath resolves the entity's collection endpoint through the
// catalog. An empty catalog cannot validate and passes the normalized
// path through.
func (o *Operation) validatedPath(ctx context.Context, method string) (string, error) {
	normalized := catalog.NormalizePath("/" + o.Entity)

	if o.index == nil || o.index.Size(ctx) == 0 {
		return normalized, nil
	}

	resolved, ok := o.index.Resolve(ctx, method, normalized)
	if !ok {
		return "", fmt.Errorf("%w: %s %s", ErrInvalidEndpoint, method, normalized)
	}

	return resolved.Path, nil
}

func (o *Operation) requestParts(collectionPath string) (string, map[string]any) {
	switch o.action {
	case models.OperationTypeReadData:
		body := make(map[string]any, len(o.Filters)+2)
		for key, value := range o.Filters {
			body[key] = value
		}

		body["limit"] = o.Limit

		if len(o.Fields) > 0 {
			fields := ""

			for i, field := range o.Fields {
				if i > 0 {
					fields += ","
				}

				fields += field
			}

			body["fields"] = fields
		}

		path := collectionPath
		if o.ID != "" {
			path += "/" + o.ID
			body = nil
		}

		return path, body
	case models.OperationTypeCreateData:
		return collectionPath, o.Data
	case models.OperationTypeUpdateData:
		return collectionPath + "/" + o.ID, o.Data
	case models.OperationTypeDeleteData:
		return collectionPath + "/" + o.ID, nil
	default:
		return collectionPath, nil
	}
}

// advise runs the dependency planner on write bodies. Suggestions are
// advisory only and never block the dispatch.
func (o *Operation) advise(ctx context.Context, method, path string, body map[string]any, logger *slog.Logger) {
	if o.index == nil || method == http.MethodGet {
		return
	}

	suggestion := planner.Plan(ctx, method, path, body, o.index)
	for _, note := range suggestion.Notes {
		logger.WarnContext(ctx, "Dependency planner suggestion", "note", note)
	}
}

type bulkItemResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Result any    `json:"result,omitempty"`
}

// executeBulk patches each item independently, collecting per-item
// outcomes instead of failing the whole batch.
func (o *Operation) executeBulk(ctx context.Context, collectionPath string, logger *slog.Logger) (any, error) {
	results := make([]any, 0, len(o.Items))
	failed := 0

	for _, raw := range o.Items {
		item, ok := raw.(map[string]any)
		if !ok {
			failed++
			results = append(results, bulkItemResult{Status: "error", Error: "item is not an object"})

			continue
		}

		id, _ := item["id"].(string)
		if id == "" {
			failed++
			results = append(results, bulkItemResult{Status: "error", Error: "item has no id"})

			continue
		}

		data, _ := item["data"].(map[string]any)

		response, err := o.backend.Request(ctx, http.MethodPatch, collectionPath+"/"+id, data)
		if err != nil {
			failed++

			logger.WarnContext(ctx, "Bulk update item failed", "id", id, "error", err)
			results = append(results, bulkItemResult{ID: id, Status: "error", Error: err.Error()})

			continue
		}

		results = append(results, bulkItemResult{ID: id, Status: "success", Result: response})
	}

	return map[string]any{
		"items":  results,
		"total":  len(o.Items),
		"failed": failed,
	}, nil
}
