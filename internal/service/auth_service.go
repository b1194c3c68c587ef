package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/repository"
	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
	"github.com/marufkhan20/pizza-auth-service/pkg/hash"
	"github.com/marufkhan20/pizza-auth-service/pkg/jwt"
)

// Denylist revokes access tokens before they expire.
type Denylist interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AuthService struct {
	users        *UserService
	userRepo     repository.UserRepository
	hasher       hash.Hasher
	tokenService *jwt.TokenService
	refreshStore *RefreshTokenStore
	denylist     Denylist
	logger       *slog.Logger
}

type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is the result of a successful register, login or refresh.
type Session struct {
	User                  *domain.User
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// NewAuthService wires the authentication flows. denylist may be nil, in
// which case logout only revokes the refresh record.
func NewAuthService(
	users *UserService,
	userRepo repository.UserRepository,
	hasher hash.Hasher,
	tokenService *jwt.TokenService,
	refreshStore *RefreshTokenStore,
	denylist Denylist,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:        users,
		userRepo:     userRepo,
		hasher:       hasher,
		tokenService: tokenService,
		refreshStore: refreshStore,
		denylist:     denylist,
		logger:       logger,
	}
}

// Register creates a customer account and opens a session for it.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*Session, error) {
	user, err := s.users.Create(ctx, CreateUserRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Role:      domain.RoleCustomer,
	})
	if err != nil {
		return nil, err
	}

	session, err := s.issue(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return session, nil
}

// Login verifies the credential. Unknown emails and wrong passwords fail the
// same way.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	user, err := s.userRepo.GetByEmailWithPassword(ctx, NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.InvalidCredentials()
		}
		return nil, apperror.Storage("failed to look up user", err)
	}

	if !s.hasher.Compare(req.Password, user.PasswordHash) {
		s.logger.InfoContext(ctx, "login rejected", "user_id", user.ID)
		return nil, apperror.InvalidCredentials()
	}

	session, err := s.issue(ctx, user.Public())
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return session, nil
}

// Refresh rotates the refresh record named by identity and issues a new
// token pair carrying the user's current role.
func (s *AuthService) Refresh(ctx context.Context, identity *domain.Identity) (*Session, error) {
	if identity == nil || identity.RecordID == nil {
		return nil, apperror.Unauthenticated("refresh token is required")
	}

	user, err := s.users.GetByID(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	accessToken, accessExp, err := s.tokenService.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Storage("failed to sign access token", err)
	}

	record, err := s.refreshStore.Rotate(ctx, *identity.RecordID, user)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExp, err := s.tokenService.IssueRefreshToken(user.ID, user.Role, record.ID)
	if err != nil {
		return nil, apperror.Storage("failed to sign refresh token", err)
	}

	s.logger.InfoContext(ctx, "refresh token rotated",
		"user_id", user.ID,
		"old_record_id", *identity.RecordID,
		"record_id", record.ID,
	)

	return &Session{
		User:                  user,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// Logout deletes the refresh record and denylists the access token. The
// refresh token must belong to the caller.
func (s *AuthService) Logout(ctx context.Context, access, refresh *domain.Identity) error {
	if access == nil || refresh == nil || refresh.RecordID == nil {
		return apperror.Unauthenticated("access and refresh tokens are required")
	}
	if access.UserID != refresh.UserID {
		return apperror.Unauthenticated("refresh token does not belong to this user")
	}

	if err := s.refreshStore.DeleteByID(ctx, *refresh.RecordID); err != nil {
		return err
	}

	if s.denylist != nil && access.TokenID != "" {
		if err := s.denylist.Revoke(ctx, access.TokenID, access.ExpiresAt); err != nil {
			s.logger.WarnContext(ctx, "failed to revoke access token", "user_id", access.UserID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "user logged out", "user_id", access.UserID)
	return nil
}

// Self returns the caller's profile without the credential.
func (s *AuthService) Self(ctx context.Context, identity *domain.Identity) (*domain.User, error) {
	if identity == nil {
		return nil, apperror.Unauthenticated("access token is required")
	}
	return s.users.GetByID(ctx, identity.UserID)
}

// issue signs the access token, persists a refresh record and signs the
// refresh token with the new record id, in that order.
func (s *AuthService) issue(ctx context.Context, user *domain.User) (*Session, error) {
	accessToken, accessExp, err := s.tokenService.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Storage("failed to sign access token", err)
	}

	record, err := s.refreshStore.Persist(ctx, user)
	if err != nil {
		return nil, err
	}

	refreshToken, refreshExp, err := s.tokenService.IssueRefreshToken(user.ID, user.Role, record.ID)
	if err != nil {
		return nil, apperror.Storage("failed to sign refresh token", err)
	}

	return &Session{
		User:                  user,
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}
