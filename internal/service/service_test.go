package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/logging"
	"github.com/marufkhan20/pizza-auth-service/internal/repository/memory"
	"github.com/marufkhan20/pizza-auth-service/pkg/hash"
	"github.com/marufkhan20/pizza-auth-service/pkg/jwt"
	"github.com/marufkhan20/pizza-auth-service/pkg/jwt/jwttest"
)

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func (d *fakeDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}
	if d.revoked == nil {
		d.revoked = make(map[string]time.Time)
	}
	d.revoked[tokenID] = expiresAt
	return nil
}

type testEnv struct {
	store   *memory.Store
	tokens  *jwt.TokenService
	refresh *RefreshTokenStore
	users   *UserService
	tenants *TenantService
	auth    *AuthService
	deny    *fakeDenylist
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := logging.Discard()
	store := memory.NewStore()
	tokens := jwttest.TokenService(t, jwt.Options{Issuer: "auth-service"})
	hasher := hash.NewBcryptHasher(hash.DefaultCost)
	refresh := NewRefreshTokenStore(store.RefreshTokens(), tokens.RefreshTTL(), logger)
	users := NewUserService(store.Users(), store.Tenants(), hasher, logger)
	deny := &fakeDenylist{}

	return &testEnv{
		store:   store,
		tokens:  tokens,
		refresh: refresh,
		users:   users,
		tenants: NewTenantService(store.Tenants(), logger),
		auth:    NewAuthService(users, store.Users(), hasher, tokens, refresh, deny, logger),
		deny:    deny,
	}
}

func (e *testEnv) register(t *testing.T, email string) *Session {
	t.Helper()
	session, err := e.auth.Register(context.Background(), RegisterRequest{
		FirstName: "Md",
		LastName:  "Maruf",
		Email:     email,
		Password:  "secret123",
	})
	require.NoError(t, err)
	return session
}

func (e *testEnv) accessIdentity(t *testing.T, raw string) *domain.Identity {
	t.Helper()
	claims, err := e.tokens.ParseAccessToken(raw)
	require.NoError(t, err)
	return identityFromClaims(t, claims)
}

func (e *testEnv) refreshIdentity(t *testing.T, raw string) *domain.Identity {
	t.Helper()
	claims, err := e.tokens.ParseRefreshToken(raw)
	require.NoError(t, err)
	return identityFromClaims(t, claims)
}

func identityFromClaims(t *testing.T, claims *domain.Claims) *domain.Identity {
	t.Helper()
	userID, err := claims.UserID()
	require.NoError(t, err)
	return &domain.Identity{
		UserID:    userID,
		Role:      claims.Role,
		RecordID:  claims.RecordID,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
}
