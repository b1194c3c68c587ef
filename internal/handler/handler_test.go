package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/marufkhan20/pizza-auth-service/internal/domain"
	"github.com/marufkhan20/pizza-auth-service/internal/handler/middleware"
	"github.com/marufkhan20/pizza-auth-service/internal/logging"
	"github.com/marufkhan20/pizza-auth-service/internal/repository/memory"
	"github.com/marufkhan20/pizza-auth-service/internal/service"
	"github.com/marufkhan20/pizza-auth-service/pkg/hash"
	"github.com/marufkhan20/pizza-auth-service/pkg/jwt"
	"github.com/marufkhan20/pizza-auth-service/pkg/jwt/jwttest"
	"github.com/marufkhan20/pizza-auth-service/pkg/validator"
)

type fakeDenylist struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (d *fakeDenylist) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.revoked[tokenID] = expiresAt
	return nil
}

func (d *fakeDenylist) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.revoked[tokenID]
	return ok, nil
}

type testServer struct {
	app    *fiber.App
	store  *memory.Store
	tokens *jwt.TokenService
	users  *service.UserService
}

func newTestServer(t *testing.T, checks map[string]Check) *testServer {
	t.Helper()

	logger := logging.Discard()
	store := memory.NewStore()
	tokens := jwttest.TokenService(t, jwt.Options{Issuer: "auth-service", KeyID: "test-key"})
	hasher := hash.NewBcryptHasher(hash.DefaultCost)
	deny := &fakeDenylist{revoked: map[string]time.Time{}}

	refresh := service.NewRefreshTokenStore(store.RefreshTokens(), tokens.RefreshTTL(), logger)
	users := service.NewUserService(store.Users(), store.Tenants(), hasher, logger)
	tenants := service.NewTenantService(store.Tenants(), logger)
	auth := service.NewAuthService(users, store.Users(), hasher, tokens, refresh, deny, logger)
	v := validator.NewValidator()

	cookies := CookieConfig{
		Domain:     "localhost",
		AccessTTL:  tokens.AccessTTL(),
		RefreshTTL: tokens.RefreshTTL(),
	}

	h := Handlers{
		Auth:    NewAuthHandler(auth, v, cookies),
		Users:   NewUserHandler(users, v),
		Tenants: NewTenantHandler(tenants, v),
		Health:  NewHealthHandler(checks),
		JWKS:    NewJWKSHandler(tokens.PublicKey(), tokens.KeyID()),
	}
	authn := middleware.NewAuthenticator(tokens, deny, refresh)

	app := NewApp(AppOptions{Logger: logger, RequestTimeout: 5 * time.Second}, h, authn)

	return &testServer{app: app, store: store, tokens: tokens, users: users}
}

type response struct {
	status  int
	body    []byte
	cookies map[string]*http.Cookie
}

func (r response) json(t *testing.T, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.body, dst), string(r.body))
}

func (r response) errors(t *testing.T) []ErrorItem {
	t.Helper()
	var env ErrorResponse
	r.json(t, &env)
	return env.Errors
}

func (s *testServer) do(t *testing.T, method, path string, body any, cookies ...*http.Cookie) response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	out := response{status: resp.StatusCode, body: raw, cookies: map[string]*http.Cookie{}}
	for _, c := range resp.Cookies() {
		out.cookies[c.Name] = c
	}
	return out
}

func registerBody(email string) fiber.Map {
	return fiber.Map{
		"firstName": "Md",
		"lastName":  "Maruf",
		"email":     email,
		"password":  "secret123",
	}
}

// session logs in and returns the access and refresh cookies.
func (s *testServer) session(t *testing.T, email string) (*http.Cookie, *http.Cookie) {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/auth/login", fiber.Map{"email": email, "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	return resp.cookies[middleware.AccessTokenCookie], resp.cookies[middleware.RefreshTokenCookie]
}

func (s *testServer) seedUser(t *testing.T, email string, role domain.Role) *domain.User {
	t.Helper()
	user, err := s.users.Create(context.Background(), service.CreateUserRequest{
		FirstName: "Seed",
		LastName:  "User",
		Email:     email,
		Password:  "secret123",
		Role:      role,
	})
	require.NoError(t, err)
	return user
}
