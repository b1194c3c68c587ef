package middleware

import (
	"slices"

	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
)

// Authorize allows identity when its role is one of allowed. It trusts the
// identity and never looks at the token again.
func Authorize(identity *domain.Identity, allowed []domain.Role) error {
	if identity == nil {
		return apperror.Unauthenticated("missing identity")
	}
	if !slices.Contains(allowed, identity.Role) {
		return apperror.Forbidden("You don't have enough permissions")
	}
	return nil
}

// CanAccess must run after Authenticate.
func CanAccess(roles ...domain.Role) fiber.Handler {
	allowed := slices.Clone(roles)
	return func(c *fiber.Ctx) error {
		if err := Authorize(Identity(c), allowed); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAdmin is CanAccess(domain.RoleAdmin).
func RequireAdmin() fiber.Handler {
	return CanAccess(domain.RoleAdmin)
}
