package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
)

const insertRefreshToken = `
		INSERT INTO refresh_tokens (user_id, expires_at)
		VALUES ($1, $2)
		RETURNING id, user_id, expires_at, created_at`

type refreshTokenRepository struct {
	db *sqlx.DB
}

// NewRefreshTokenRepository creates a new PostgreSQL refresh token repository
func NewRefreshTokenRepository(db *sqlx.DB) repository.RefreshTokenRepository {
	return &refreshTokenRepository{db: db}
}

// Create inserts a new refresh token record for userID
func (r *refreshTokenRepository) Create(ctx context.Context, userID int64, expiresAt time.Time) (*domain.RefreshToken, error) {
	var token domain.RefreshToken
	if err := r.db.GetContext(ctx, &token, insertRefreshToken, userID, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to create refresh token: %w", err)
	}

	return &token, nil
}

// GetByID retrieves a refresh token record by its id
func (r *refreshTokenRepository) GetByID(ctx context.Context, id int64) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, expires_at, created_at
		FROM refresh_tokens
		WHERE id = $1`

	var token domain.RefreshToken
	if err := r.db.GetContext(ctx, &token, query, id); err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token: %w", err)
	}

	return &token, nil
}

// Delete removes a refresh token record by id
func (r *refreshTokenRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows > 0, nil
}

// Rotate creates the replacement record and deletes the old one in a single
// transaction. A concurrent rotation of the same record commits first and
// leaves this one with nothing to delete, so it rolls back.
func (r *refreshTokenRepository) Rotate(ctx context.Context, oldID, userID int64, expiresAt time.Time) (*domain.RefreshToken, error) {
	var token domain.RefreshToken

	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &token, insertRefreshToken, userID, expiresAt); err != nil {
			return fmt.Errorf("failed to create refresh token: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM refresh_tokens WHERE id = $1 AND user_id = $2`, oldID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete refresh token: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return &token, nil
}

// DeleteExpired removes every record whose expiry is at or before the given time
func (r *refreshTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at <= $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
