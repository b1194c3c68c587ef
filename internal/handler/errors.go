package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/handler/middleware"
	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
)

const msgInternal = "Internal server error"

type ErrorItem struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ErrorResponse struct {
	Errors []ErrorItem `json:"errors"`
}

// ErrorHandler renders every error as {"errors":[...]}. Storage failures and
// unknown errors are logged with their cause and shown generically.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := middleware.StatusOf(err)

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(status).JSON(ErrorResponse{
				Errors: []ErrorItem{{Type: "HttpError", Message: fiberErr.Message}},
			})
		}

		var appErr *apperror.Error
		if !errors.As(err, &appErr) || appErr.Kind == apperror.KindStorageFailure {
			logger.ErrorContext(c.UserContext(), "request error",
				"method", c.Method(),
				"path", c.Path(),
				"error", err,
			)
			return c.Status(status).JSON(ErrorResponse{
				Errors: []ErrorItem{{Type: string(apperror.KindStorageFailure), Message: msgInternal}},
			})
		}

		items := make([]ErrorItem, 0, max(1, len(appErr.Fields)))
		for _, f := range appErr.Fields {
			items = append(items, ErrorItem{Type: string(appErr.Kind), Message: f.Message, Field: f.Field})
		}
		if len(items) == 0 {
			items = append(items, ErrorItem{Type: string(appErr.Kind), Message: appErr.Message})
		}

		return c.Status(status).JSON(ErrorResponse{Errors: items})
	}
}
