package serverutils

import (
	"errors"

	"multilingual-rag-be/internal/pkg/logger"
	"multilingual-rag-be/pkg/rag/pipeline"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware translates downstream errors into the JSON envelope.
// Pipeline stage failures surface as 502 so clients can tell an upstream
// model problem from a bad request.
func ErrorHandlerMiddleware(log logger.ILogger) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := "Internal server error"

		var fiberErr *fiber.Error
		var stageErr *pipeline.StageError
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.As(err, &stageErr):
			code = fiber.StatusBadGateway
			message = "Query processing failed at " + stageErr.Stage + " stage"
		}

		if code >= fiber.StatusInternalServerError && log != nil {
			log.Error("HTTP", "Request failed", map[string]interface{}{
				"method": ctx.Method(),
				"path":   ctx.Path(),
				"code":   code,
				"error":  err.Error(),
			})
		}

		return ctx.Status(code).JSON(ErrorResponse(code, message))
	}
}
