package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
)

// RefreshTokenStore owns the lifecycle of refresh-token records. Callers never
// touch the repository directly.
type RefreshTokenStore struct {
	repo   repository.RefreshTokenRepository
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

func NewRefreshTokenStore(repo repository.RefreshTokenRepository, ttl time.Duration, logger *slog.Logger) *RefreshTokenStore {
	return &RefreshTokenStore{
		repo:   repo,
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Persist creates a new record for user that expires after the configured
// validity window.
func (s *RefreshTokenStore) Persist(ctx context.Context, user *domain.User) (*domain.RefreshToken, error) {
	record, err := s.repo.Create(ctx, user.ID, s.now().Add(s.ttl))
	if err != nil {
		return nil, apperror.Storage("failed to persist refresh token", err)
	}
	return record, nil
}

// DeleteByID removes a record. Deleting a record that is already gone is not
// an error.
func (s *RefreshTokenStore) DeleteByID(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return apperror.Storage("failed to delete refresh token", err)
	}
	if !deleted {
		s.logger.WarnContext(ctx, "refresh token already removed", "record_id", id)
	}
	return nil
}

// Rotate replaces oldID with a fresh record for user. When oldID has already
// been consumed the caller lost a concurrent refresh and nothing is written.
func (s *RefreshTokenStore) Rotate(ctx context.Context, oldID int64, user *domain.User) (*domain.RefreshToken, error) {
	record, err := s.repo.Rotate(ctx, oldID, user.ID, s.now().Add(s.ttl))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated("refresh token has been revoked")
		}
		return nil, apperror.Storage("failed to rotate refresh token", err)
	}
	return record, nil
}

// Validate checks that record id exists, belongs to userID and has not
// expired.
func (s *RefreshTokenStore) Validate(ctx context.Context, id, userID int64) error {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.Unauthenticated("refresh token has been revoked")
		}
		return apperror.Storage("failed to load refresh token", err)
	}

	if record.UserID != userID {
		return apperror.Unauthenticated("refresh token does not belong to this user")
	}
	if record.Expired(s.now()) {
		return apperror.Unauthenticated("refresh token has expired")
	}

	return nil
}

// Sweep deletes every record whose expiry has passed and returns how many
// were removed.
func (s *RefreshTokenStore) Sweep(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, apperror.Storage("failed to delete expired refresh tokens", err)
	}
	return n, nil
}
