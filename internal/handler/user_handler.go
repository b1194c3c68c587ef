package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/service"
	"github.com/marufkhan20/pizza-auth-service/pkg/validator"
)

// UserHandler serves the admin user-management routes.
type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validator
}

func NewUserHandler(userService *service.UserService, validator *validator.Validator) *UserHandler {
	return &UserHandler{
		userService: userService,
		validator:   validator,
	}
}

// Create adds a user with any role
// POST /users
func (h *UserHandler) Create(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	user, err := h.userService.Create(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": user.ID})
}

// List returns every user
// GET /users
func (h *UserHandler) List(c *fiber.Ctx) error {
	users, err := h.userService.List(c.UserContext())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(users)
}

// Get returns one user
// GET /users/:id
func (h *UserHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	user, err := h.userService.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(user)
}

// Update changes a user's name and role
// PATCH /users/:id
func (h *UserHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req service.UpdateUserRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	if _, err := h.userService.Update(c.UserContext(), id, req); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}

// Delete removes a user
// DELETE /users/:id
func (h *UserHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	if err := h.userService.Delete(c.UserContext(), id); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}
