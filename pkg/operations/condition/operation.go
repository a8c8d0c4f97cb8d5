// Package condition implements the condition operation for branching
// flows.
package condition

import (
	"context"
	"errors"
	"log/slog"

	rules "github.com/merchflow/merchflow/pkg/condition"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/protocol"
)

// ErrExpressionRequired is returned when the operation has no expression.
var ErrExpressionRequired = errors.New("condition operation requires an expression")

// Operation evaluates a boolean expression against the run's outputs.
// Simple mode compiles "left <comparator> right" comparisons; expr mode
// hands the expression to the expression engine. Downstream nodes of a
// false condition are skipped by the orchestrator.
type Operation struct {
	Expression string
	Language   string
}

func NewOperation(options map[string]any) (*Operation, error) {
	expression, _ := options["expression"].(string)
	if expression == "" {
		return nil, ErrExpressionRequired
	}

	language, _ := options["language"].(string)
	if language == "" {
		language = "simple"
	}

	return &Operation{Expression: expression, Language: language}, nil
}

func (o *Operation) Execute(ctx context.Context, executionCtx *models.ExecutionContext, logger *slog.Logger) (any, error) {
	logger = logger.With("operation_type", "condition", "language", o.Language)

	verdict, err := o.evaluate(executionCtx)
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "Condition evaluated", "expression", o.Expression, "result", verdict)

	return map[string]any{"result": verdict}, nil
}

func (o *Operation) evaluate(executionCtx *models.ExecutionContext) (bool, error) {
	if o.Language == "expr" {
		return rules.EvaluateExpr(o.Expression, executionCtx)
	}

	rule, err := rules.Compile(o.Expression)
	if err != nil {
		return false, err
	}

	return rules.EvaluateRule(rule, executionCtx)
}

var _ protocol.Operation = (*Operation)(nil)
