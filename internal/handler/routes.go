package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/handler/middleware"
)

type Handlers struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Tenants *TenantHandler
	Health  *HealthHandler
	JWKS    *JWKSHandler
}

// SetupRoutes lists the steps of every route in order: authenticate,
// authorize, then the handler, which validates its own input.
func SetupRoutes(app *fiber.App, h Handlers, authn *middleware.Authenticator) {
	authenticate := authn.Authenticate()
	adminOnly := middleware.RequireAdmin()

	app.Get("/health", h.Health.Health)
	app.Get("/ready", h.Health.Ready)
	app.Get("/.well-known/jwks.json", h.JWKS.GetJWKS)

	auth := app.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Get("/self", authenticate, h.Auth.Self)
	auth.Post("/refresh", authn.ValidateRefresh(), h.Auth.Refresh)
	auth.Post("/logout", authenticate, authn.ParseRefresh(), h.Auth.Logout)

	users := app.Group("/users")
	users.Post("/", authenticate, adminOnly, h.Users.Create)
	users.Get("/", authenticate, adminOnly, h.Users.List)
	users.Get("/:id", authenticate, adminOnly, h.Users.Get)
	users.Patch("/:id", authenticate, adminOnly, h.Users.Update)
	users.Delete("/:id", authenticate, adminOnly, h.Users.Delete)

	tenants := app.Group("/tenants")
	tenants.Post("/", authenticate, adminOnly, h.Tenants.Create)
	tenants.Get("/", h.Tenants.List)
	tenants.Get("/:id", h.Tenants.Get)
	tenants.Patch("/:id", authenticate, adminOnly, h.Tenants.Update)
	tenants.Delete("/:id", authenticate, adminOnly, h.Tenants.Delete)
}
