package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
)

type tenantRepository struct {
	db *sqlx.DB
}

// NewTenantRepository creates a new PostgreSQL tenant repository
func NewTenantRepository(db *sqlx.DB) repository.TenantRepository {
	return &tenantRepository{db: db}
}

func (r *tenantRepository) Create(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		INSERT INTO tenants (name, address)
		VALUES ($1, $2)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, tenant.Name, tenant.Address).
		Scan(&tenant.ID, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}

	return nil
}

func (r *tenantRepository) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	query := `SELECT id, name, address, created_at, updated_at FROM tenants WHERE id = $1`

	var tenant domain.Tenant
	if err := r.db.GetContext(ctx, &tenant, query, id); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tenant: %w", err)
	}

	return &tenant, nil
}

func (r *tenantRepository) List(ctx context.Context) ([]*domain.Tenant, error) {
	query := `SELECT id, name, address, created_at, updated_at FROM tenants ORDER BY id`

	tenants := []*domain.Tenant{}
	if err := r.db.SelectContext(ctx, &tenants, query); err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	return tenants, nil
}

func (r *tenantRepository) Update(ctx context.Context, tenant *domain.Tenant) error {
	query := `
		UPDATE tenants
		SET name = $1, address = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query, tenant.Name, tenant.Address, tenant.ID).
		Scan(&tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to update tenant: %w", err)
	}

	return nil
}

func (r *tenantRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tenants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}
