package web

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/merchflow/merchflow/pkg/flow"
	"github.com/merchflow/merchflow/pkg/graph"
	"github.com/merchflow/merchflow/pkg/persistence"
	"github.com/moogar0880/problems"
)

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(400).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(404).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(500).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleFlowError maps repository and graph errors onto problem
// responses.
func handleFlowError(c fiber.Ctx, err error) error {
	switch {
	case persistence.IsFlowNotFound(err):
		return notFound(c, "flow not found")

	case errors.Is(err, flow.ErrFlowNotExecutable):
		problem := problems.NewStatusProblem(409).
			WithInstance(c.Path()).
			WithType("flow_not_executable").
			WithDetail(err.Error())

		return c.Status(fiber.StatusConflict).JSON(problem)

	case isGraphError(err), isValidationError(err):
		return badRequest(c, err.Error())

	default:
		return internalError(c, err)
	}
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors

	return errors.As(err, &validationErrors)
}

func isGraphError(err error) bool {
	for _, sentinel := range []error{
		graph.ErrNoTrigger,
		graph.ErrMultipleTriggers,
		graph.ErrUnreachableNode,
		graph.ErrMissingOperationKey,
		graph.ErrDuplicateOperationKey,
		graph.ErrUnknownEdgeEndpoint,
		graph.ErrCycle,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}

	return false
}
