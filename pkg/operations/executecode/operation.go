// Package executecode implements the execute_code operation backed by
// the sandboxed script executor.
package executecode

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
	"github.com/merchflow/merchflow/pkg/script"
)

// ErrCodeRequired is returned when the operation has no code.
var ErrCodeRequired = errors.New("execute_code operation requires code")

// Operation runs a user script in the sandbox with the run's bindings.
type Operation struct {
	Code     string
	Packages []string
	Timeout  time.Duration

	executor *script.Executor
}

func NewOperation(options map[string]any, executor *script.Executor) (*Operation, error) {
	code, _ := options["code"].(string)
	if code == "" {
		return nil, ErrCodeRequired
	}

	operation := &Operation{Code: code, executor: executor}

	if packages, ok := options["packages"].([]any); ok {
		for _, pkg := range packages {
			if name, ok := pkg.(string); ok {
				operation.Packages = append(operation.Packages, name)
			}
		}
	}

	if timeout, ok := options["timeout_ms"].(float64); ok && timeout > 0 {
		operation.Timeout = time.Duration(timeout) * time.Millisecond
	}

	return operation, nil
}

func (o *Operation) Execute(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "execute_code")
	logger.InfoContext(ctx, "Executing code operation", "packages", o.Packages)

	result, err := o.executor.Execute(ctx, o.Code, script.Bindings{
		Last:    executionCtx.Last,
		Input:   executionCtx.Input,
		Trigger: executionCtx.Trigger,
		Outputs: executionCtx.Outputs,
	}, script.Options{
		Timeout:  o.Timeout,
		Packages: o.Packages,
	})
	if err != nil {
		return nil, err
	}

	for _, line := range result.Logs {
		logger.InfoContext(ctx, "Script log", "line", line)
	}

	return result.Value, nil
}

var _ protocol.Operation = (*Operation)(nil)
