// Package transform implements the transform operation for reshaping
// data between flow steps.
package transform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrNothingToTransform is returned when neither data nor expression is
// configured.
var ErrNothingToTransform = errors.New("transform operation requires data or an expression")

// Operation produces a new value from the execution context. Data values
// arrive already template-resolved; an expression is evaluated against
// the run outputs for computed transforms.
type Operation struct {
	Data       any
	Expression string
	hasData    bool
}

func NewOperation(options map[string]any) (*Operation, error) {
	data, hasData := options["data"]
	expression, _ := options["expression"].(string)

	if !hasData && expression == "" {
		return nil, ErrNothingToTransform
	}

	return &Operation{Data: data, Expression: expression, hasData: hasData}, nil
}

func (o *Operation) Execute(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "transform")
	logger.DebugContext(ctx, "Executing transform operation")

	if o.Expression == "" {
		return o.Data, nil
	}

	env := map[string]any{
		"last":    executionCtx.Last,
		"input":   executionCtx.Input,
		"trigger": executionCtx.Trigger,
		"data":    o.Data,
	}
	for key, value := range executionCtx.Outputs {
		env[key] = value
	}

	program, err := expr.Compile(o.Expression, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("compiling transform expression: %w", err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, fmt.Errorf("evaluating transform expression: %w", err)
	}

	return result, nil
}

var _ protocol.Operation = (*Operation)(nil)
