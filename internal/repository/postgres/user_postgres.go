package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
)

const (
	userColumns             = `id, first_name, last_name, email, role, tenant_id, created_at, updated_at`
	userColumnsWithPassword = `id, first_name, last_name, email, password, role, tenant_id, created_at, updated_at`
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user and fills in the generated id and timestamps
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (first_name, last_name, email, password, role, tenant_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.FirstName, user.LastName, user.Email, user.PasswordHash, user.Role, user.TenantID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("failed to create user: %w", repository.ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id without the password hash
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return &user, nil
}

// GetByEmail retrieves a user by email without the password hash
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getByEmail(ctx, userColumns, email)
}

// GetByEmailWithPassword is the only lookup that selects the password hash.
func (r *userRepository) GetByEmailWithPassword(ctx context.Context, email string) (*domain.User, error) {
	return r.getByEmail(ctx, userColumnsWithPassword, email)
}

func (r *userRepository) getByEmail(ctx context.Context, columns, email string) (*domain.User, error) {
	query := `SELECT ` + columns + ` FROM users WHERE email = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	users := []*domain.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, role = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query, user.FirstName, user.LastName, user.Role, user.ID).
		Scan(&user.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
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
