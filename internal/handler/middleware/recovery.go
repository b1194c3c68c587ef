package middleware

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
)

// RecoveryMiddleware turns a panic into a StorageFailure so the error handler
// renders a generic 500.
func RecoveryMiddleware(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.ErrorContext(c.UserContext(), "panic recovered",
					"panic", r,
					"path", c.Path(),
					"stack", string(debug.Stack()),
				)
				err = apperror.Storage("internal server error", fmt.Errorf("panic: %v", r))
			}
		}()

		return c.Next()
	}
}
