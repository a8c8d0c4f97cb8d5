package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/merchflow/merchflow/pkg/models"
	"github.com/merchflow/merchflow/pkg/template"
)

// EvaluateRule resolves the rule's field path against the execution
// context and applies the filter operator.
func EvaluateRule(rule Rule, executionCtx *models.ExecutionContext) (bool, error) {
	left := template.ResolveExpression(rule.Field, executionCtx)

	right := rule.Value
	if literal, ok := right.(string); ok && strings.HasPrefix(literal, "$") {
		right = template.ResolveExpression(literal, executionCtx)
	}

	switch rule.Operator {
	case "_eq":
		return equal(left, right), nil
	case "_neq":
		return !equal(left, right), nil
	case "_gt", "_gte", "_lt", "_lte":
		leftNum, leftOk := toFloat(left)
		rightNum, rightOk := toFloat(right)

		if !leftOk || !rightOk {
			return false, fmt.Errorf("%w: %q compares non-numeric values", ErrUnsupportedExpression, rule.Field)
		}

		switch rule.Operator {
		case "_gt":
			return leftNum > rightNum, nil
		case "_gte":
			return leftNum >= rightNum, nil
		case "_lt":
			return leftNum < rightNum, nil
		default:
			return leftNum <= rightNum, nil
		}
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrUnsupportedExpression, rule.Operator)
	}
}

// EvaluateExpr evaluates an advanced expression with expr-lang against the
// run's bindings: last, input, trigger, and every named operation output.
func EvaluateExpr(expression string, executionCtx *models.ExecutionContext) (bool, error) {
	env := map[string]any{
		"last":    executionCtx.Last,
		"input":   executionCtx.Input,
		"trigger": executionCtx.Trigger,
	}

	for key, output := range executionCtx.Outputs {
		if _, reserved := env[key]; !reserved {
			env[key] = output
		}
	}

	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnsupportedExpression, err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("condition evaluation failed: %w", err)
	}

	verdict, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("%w: expression is not boolean", ErrUnsupportedExpression)
	}

	return verdict, nil
}

func equal(left, right any) bool {
	if leftNum, ok := toFloat(left); ok {
		if rightNum, rightOk := toFloat(right); rightOk {
			return leftNum == rightNum
		}
	}

	if left == nil || right == nil {
		return left == right
	}

	return fmt.Sprintf("%v", left) == fmt.Sprintf("%v", right)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		number, err := strconv.ParseFloat(v, 64)

		return number, err == nil
	default:
		return 0, false
	}
}
