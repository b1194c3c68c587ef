package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/handler/middleware"
	"github.com/marufkhan20/pizza-auth-service/internal/service"
	"github.com/marufkhan20/pizza-auth-service/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
	cookies     CookieConfig
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
		cookies:     cookies,
	}
}

// Register handles user registration
// POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	session, err := h.authService.Register(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.cookies.setSession(c, session)
	return c.Status(fiber.StatusCreated).JSON(session.User)
}

// Login handles user login
// POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	session, err := h.authService.Login(c.UserContext(), req)
	if err != nil {
		return err
	}

	h.cookies.setSession(c, session)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": session.User.ID})
}

// Self returns the authenticated user
// GET /auth/self
func (h *AuthHandler) Self(c *fiber.Ctx) error {
	user, err := h.authService.Self(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// Refresh rotates the refresh token
// POST /auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	session, err := h.authService.Refresh(c.UserContext(), middleware.Identity(c))
	if err != nil {
		return err
	}

	h.cookies.setSession(c, session)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": session.User.ID})
}

// Logout handles user logout
// POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	err := h.authService.Logout(c.UserContext(), middleware.Identity(c), middleware.RefreshIdentity(c))
	if err != nil {
		return err
	}

	h.cookies.clearSession(c)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{})
}
