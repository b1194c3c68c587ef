package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORSMiddleware allows the configured browser origins to send cookies.
func CORSMiddleware(allowOrigins string) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PATCH,DELETE",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: true,
	})
}
