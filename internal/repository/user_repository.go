package repository

import (
	"context"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
)

type UserRepository interface {
	// Create inserts user and fills in its generated ID and timestamps.
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	// GetByEmail never loads the password hash.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByEmailWithPassword(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// Update writes the profile fields and role of user.ID.
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id int64) error
}
