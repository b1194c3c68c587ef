package handler

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/handler/middleware"
)

type AppOptions struct {
	Logger         *slog.Logger
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	RequestTimeout time.Duration
	CORSOrigins    string
}

// NewApp builds the fiber app with the global middleware and every route.
func NewApp(opts AppOptions, h Handlers, authn *middleware.Authenticator) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Auth Service",
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(opts.Logger),
		ReadTimeout:           opts.ReadTimeout,
		WriteTimeout:          opts.WriteTimeout,
	})

	app.Use(middleware.RecoveryMiddleware(opts.Logger))
	app.Use(middleware.LoggerMiddleware(opts.Logger))
	if opts.CORSOrigins != "" {
		app.Use(middleware.CORSMiddleware(opts.CORSOrigins))
	}
	app.Use(middleware.Timeout(opts.RequestTimeout))

	SetupRoutes(app, h, authn)
	return app
}
