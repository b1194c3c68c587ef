package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/pkg/apperror"
	"github.com/marufkhan20/pizza-auth-service/pkg/jwt"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	identityKey = "identity"
	refreshKey  = "refresh"
)

// Denylist reports whether an access token was revoked before it expired.
type Denylist interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RefreshValidator checks that a refresh record is still live for a user.
type RefreshValidator interface {
	Validate(ctx context.Context, id, userID int64) error
}

// Authenticator turns raw tokens into identities. Its methods hold the whole
// decision; the fiber adapters only move values in and out of the request.
type Authenticator struct {
	tokenService *jwt.TokenService
	denylist     Denylist
	refreshStore RefreshValidator
}

// NewAuthenticator builds an Authenticator. denylist may be nil.
func NewAuthenticator(tokenService *jwt.TokenService, denylist Denylist, refreshStore RefreshValidator) *Authenticator {
	return &Authenticator{
		tokenService: tokenService,
		denylist:     denylist,
		refreshStore: refreshStore,
	}
}

// Access verifies an access token and checks it against the denylist.
func (a *Authenticator) Access(ctx context.Context, raw string) (*domain.Identity, error) {
	if raw == "" {
		return nil, apperror.Unauthenticated("missing access token")
	}

	claims, err := a.tokenService.ParseAccessToken(raw)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, "invalid access token", err)
	}

	if a.denylist != nil {
		revoked, err := a.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperror.Storage("failed to verify token status", err)
		}
		if revoked {
			return nil, apperror.Unauthenticated("access token has been revoked")
		}
	}

	return identity(claims)
}

// Refresh verifies a refresh token and requires its record to still exist
// for the token's subject.
func (a *Authenticator) Refresh(ctx context.Context, raw string) (*domain.Identity, error) {
	id, err := a.decodeRefresh(raw)
	if err != nil {
		return nil, err
	}

	if err := a.refreshStore.Validate(ctx, *id.RecordID, id.UserID); err != nil {
		return nil, err
	}

	return id, nil
}

// decodeRefresh verifies signature, expiry and shape without consulting the
// record store.
func (a *Authenticator) decodeRefresh(raw string) (*domain.Identity, error) {
	if raw == "" {
		return nil, apperror.Unauthenticated("missing refresh token")
	}

	claims, err := a.tokenService.ParseRefreshToken(raw)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, "invalid refresh token", err)
	}
	if claims.RecordID == nil {
		return nil, apperror.Unauthenticated("refresh token has no record id")
	}

	return identity(claims)
}

func identity(claims *domain.Claims) (*domain.Identity, error) {
	userID, err := claims.UserID()
	if err != nil {
		return nil, apperror.Wrap(apperror.KindUnauthenticated, "invalid token subject", err)
	}

	id := &domain.Identity{
		UserID:   userID,
		Role:     claims.Role,
		RecordID: claims.RecordID,
		TokenID:  claims.ID,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}
	return id, nil
}

// Authenticate requires a valid access token from the Authorization header
// or the accessToken cookie.
func (a *Authenticator) Authenticate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := a.Access(c.UserContext(), accessToken(c))
		if err != nil {
			return err
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

// ValidateRefresh requires a live refresh token in the refreshToken cookie and
// stores its identity as the request identity.
func (a *Authenticator) ValidateRefresh() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := a.Refresh(c.UserContext(), c.Cookies(RefreshTokenCookie))
		if err != nil {
			return err
		}

		c.Locals(identityKey, id)
		return c.Next()
	}
}

// ParseRefresh decodes the refreshToken cookie for logout. It does not touch
// the access identity.
func (a *Authenticator) ParseRefresh() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := a.decodeRefresh(c.Cookies(RefreshTokenCookie))
		if err != nil {
			return err
		}

		c.Locals(refreshKey, id)
		return c.Next()
	}
}

func accessToken(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	return c.Cookies(AccessTokenCookie)
}

// Identity returns the identity attached by Authenticate or ValidateRefresh.
func Identity(c *fiber.Ctx) *domain.Identity {
	id, _ := c.Locals(identityKey).(*domain.Identity)
	return id
}

// RefreshIdentity returns the identity attached by ParseRefresh.
func RefreshIdentity(c *fiber.Ctx) *domain.Identity {
	id, _ := c.Locals(refreshKey).(*domain.Identity)
	return id
}
