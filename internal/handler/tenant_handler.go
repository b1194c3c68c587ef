package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/service"
	"github.com/marufkhan20/pizza-auth-service/pkg/validator"
)

type TenantHandler struct {
	tenantService *service.TenantService
	validator     *validator.Validator
}

func NewTenantHandler(tenantService *service.TenantService, validator *validator.Validator) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
		validator:     validator,
	}
}

// Create adds a tenant (admin only)
// POST /tenants
func (h *TenantHandler) Create(c *fiber.Ctx) error {
	var req service.TenantRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	tenant, err := h.tenantService.Create(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": tenant.ID})
}

// List returns every tenant
// GET /tenants
func (h *TenantHandler) List(c *fiber.Ctx) error {
	tenants, err := h.tenantService.List(c.UserContext())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tenants)
}

// Get returns one tenant
// GET /tenants/:id
func (h *TenantHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	tenant, err := h.tenantService.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(tenant)
}

// Update renames or moves a tenant (admin only)
// PATCH /tenants/:id
func (h *TenantHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	var req service.TenantRequest
	if err := bind(c, h.validator, &req); err != nil {
		return err
	}

	if _, err := h.tenantService.Update(c.UserContext(), id, req); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}

// Delete removes a tenant (admin only)
// DELETE /tenants/:id
func (h *TenantHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}

	if err := h.tenantService.Delete(c.UserContext(), id); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"id": id})
}
