package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// LoggerMiddleware tags each request with an id and logs its outcome.
func LoggerMiddleware(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(RequestIDHeader, requestID)

		err := c.Next()

		// The error handler has not run yet, so derive the final status.
		status := c.Response().StatusCode()
		if err != nil {
			status = StatusOf(err)
		}

		attrs := []any{
			"request_id", requestID,
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"latency", time.Since(start),
		}
		if id := Identity(c); id != nil {
			attrs = append(attrs, "user_id", id.UserID)
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			logger.ErrorContext(c.UserContext(), "request failed", attrs...)
		case status >= fiber.StatusBadRequest:
			logger.WarnContext(c.UserContext(), "request rejected", attrs...)
		default:
			logger.InfoContext(c.UserContext(), "request completed", attrs...)
		}

		return err
	}
}
