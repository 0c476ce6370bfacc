package serverutils

import (
	"errors"

	"ai-divination-be/pkg/divination/algorithm"
	"ai-divination-be/pkg/divination/orchestrator"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware maps domain errors onto HTTP statuses so the
// controllers can just return them.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Message, nil))
		}

		var rejected *orchestrator.InputRejectedError
		if errors.As(err, &rejected) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(rejected.Reason, nil))
		}

		var notFound *algorithm.NotFoundError
		if errors.As(err, &notFound) {
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(notFound.Error(), nil))
		}

		var execution *algorithm.ExecutionError
		if errors.As(err, &execution) {
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Reading failed, please try again", nil))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("Internal server error", nil))
	}
}
