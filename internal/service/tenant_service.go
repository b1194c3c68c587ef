package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
)

type TenantService struct {
	tenantRepo repository.TenantRepository
	logger     *slog.Logger
}

type TenantRequest struct {
	Name    string `json:"name" validate:"required,max=100"`
	Address string `json:"address" validate:"required,max=255"`
}

func NewTenantService(tenantRepo repository.TenantRepository, logger *slog.Logger) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		logger:     logger,
	}
}

func (s *TenantService) Create(ctx context.Context, req TenantRequest) (*domain.Tenant, error) {
	tenant := &domain.Tenant{
		Name:    req.Name,
		Address: req.Address,
	}

	if err := s.tenantRepo.Create(ctx, tenant); err != nil {
		return nil, apperror.Storage("failed to create tenant", err)
	}

	s.logger.InfoContext(ctx, "tenant created", "tenant_id", tenant.ID)
	return tenant, nil
}

func (s *TenantService) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, tenantError("failed to get tenant", err)
	}
	return tenant, nil
}

func (s *TenantService) List(ctx context.Context) ([]*domain.Tenant, error) {
	tenants, err := s.tenantRepo.List(ctx)
	if err != nil {
		return nil, apperror.Storage("failed to list tenants", err)
	}
	return tenants, nil
}

func (s *TenantService) Update(ctx context.Context, id int64, req TenantRequest) (*domain.Tenant, error) {
	tenant := &domain.Tenant{
		ID:      id,
		Name:    req.Name,
		Address: req.Address,
	}

	if err := s.tenantRepo.Update(ctx, tenant); err != nil {
		return nil, tenantError("failed to update tenant", err)
	}

	s.logger.InfoContext(ctx, "tenant updated", "tenant_id", id)
	return tenant, nil
}

// Delete removes the tenant. Its users stay and lose their tenant reference.
func (s *TenantService) Delete(ctx context.Context, id int64) error {
	if err := s.tenantRepo.Delete(ctx, id); err != nil {
		return tenantError("failed to delete tenant", err)
	}

	s.logger.InfoContext(ctx, "tenant deleted", "tenant_id", id)
	return nil
}

func tenantError(msg string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound("Tenant not found.")
	}
	return apperror.Storage(msg, err)
}
