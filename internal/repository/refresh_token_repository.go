package repository

import (
	"context"
	"time"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
)

// RefreshTokenRepository persists refresh-token records. Records are never
// updated in place.
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID int64, expiresAt time.Time) (*domain.RefreshToken, error)
	GetByID(ctx context.Context, id int64) (*domain.RefreshToken, error)
	// Delete reports whether a record was removed.
	Delete(ctx context.Context, id int64) (bool, error)
	// Rotate inserts a new record for userID and deletes oldID in one
	// transaction. It returns ErrNotFound and persists nothing when oldID no
	// longer exists.
	Rotate(ctx context.Context, oldID, userID int64, expiresAt time.Time) (*domain.RefreshToken, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
