package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
	"github.com/marufkhan20/pizza-auth-service/pkg/hash"
)

const msgEmailTaken = "Email already exists."

type UserService struct {
	userRepo   repository.UserRepository
	tenantRepo repository.TenantRepository
	hasher     hash.Hasher
	logger     *slog.Logger
}

type CreateUserRequest struct {
	FirstName string      `json:"firstName" validate:"required,max=100"`
	LastName  string      `json:"lastName" validate:"required,max=100"`
	Email     string      `json:"email" validate:"required,email"`
	Password  string      `json:"password" validate:"required,min=8,max=72"`
	Role      domain.Role `json:"role" validate:"required,role"`
	TenantID  *int64      `json:"tenantId" validate:"omitempty,gte=1"`
}

type UpdateUserRequest struct {
	FirstName string      `json:"firstName" validate:"required,max=100"`
	LastName  string      `json:"lastName" validate:"required,max=100"`
	Role      domain.Role `json:"role" validate:"required,role"`
}

func NewUserService(userRepo repository.UserRepository, tenantRepo repository.TenantRepository, hasher hash.Hasher, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		hasher:     hasher,
		logger:     logger,
	}
}

// Create stores a new account with a hashed password. The returned user never
// carries the hash.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	req.Email = NormalizeEmail(req.Email)

	_, err := s.userRepo.GetByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, apperror.Conflict(msgEmailTaken)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, apperror.Storage("failed to look up user", err)
	}

	if req.TenantID != nil {
		if _, err := s.tenantRepo.GetByID(ctx, *req.TenantID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperror.Validation([]apperror.FieldError{
					{Field: "tenantId", Message: "tenantId does not reference an existing tenant"},
				})
			}
			return nil, apperror.Storage("failed to look up tenant", err)
		}
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, hash.ErrPasswordTooLong) || errors.Is(err, hash.ErrEmptyPassword) {
			return nil, apperror.Validation([]apperror.FieldError{
				{Field: "password", Message: err.Error()},
			})
		}
		return nil, apperror.Storage("failed to hash password", err)
	}

	user := &domain.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Role:         req.Role,
		TenantID:     req.TenantID,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperror.Conflict(msgEmailTaken)
		}
		return nil, apperror.Storage("failed to create user", err)
	}

	s.logger.InfoContext(ctx, "user created", "user_id", user.ID, "role", user.Role)
	return user.Public(), nil
}

// NormalizeEmail trims and lowercases an address before it is stored or
// looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("User not found.")
		}
		return nil, apperror.Storage("failed to get user", err)
	}
	return user.Public(), nil
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, apperror.Storage("failed to list users", err)
	}
	for i, u := range users {
		users[i] = u.Public()
	}
	return users, nil
}

func (s *UserService) Update(ctx context.Context, id int64, req UpdateUserRequest) (*domain.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.FirstName = req.FirstName
	user.LastName = req.LastName
	user.Role = req.Role

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound("User not found.")
		}
		return nil, apperror.Storage("failed to update user", err)
	}

	s.logger.InfoContext(ctx, "user updated", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Delete removes the account. Its refresh-token records go with it.
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperror.NotFound("User not found.")
		}
		return apperror.Storage("failed to delete user", err)
	}

	s.logger.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}
