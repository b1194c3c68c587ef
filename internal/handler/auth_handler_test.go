package handler

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marufkhan20/pizza-auth-service/internal/handler/middleware"
)

func TestRegister(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com"))
	require.Equal(t, http.StatusCreated, resp.status, string(resp.body))

	var user map[string]any
	resp.json(t, &user)
	assert.EqualValues(t, 1, user["id"])
	assert.Equal(t, "a@b.com", user["email"])
	assert.Equal(t, "customer", user["role"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "PasswordHash")

	access := resp.cookies[middleware.AccessTokenCookie]
	require.NotNil(t, access)
	assert.Equal(t, 3600, access.MaxAge)
	assert.True(t, access.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, access.SameSite)
	assert.Equal(t, "localhost", access.Domain)
	assert.Equal(t, "/", access.Path)

	refresh := resp.cookies[middleware.RefreshTokenCookie]
	require.NotNil(t, refresh)
	assert.Equal(t, 31536000, refresh.MaxAge)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, refresh.SameSite)

	stored, err := s.store.Users().GetByEmailWithPassword(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Len(t, stored.PasswordHash, 60)
	assert.Regexp(t, regexp.MustCompile(`^\$2[aby]\$10\$`), stored.PasswordHash)
	assert.Len(t, s.store.RefreshTokensForUser(stored.ID), 1)
}

func TestRegister_Validation(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodPost, "/auth/register", fiber.Map{})
	require.Equal(t, http.StatusBadRequest, resp.status)

	errs := resp.errors(t)
	fields := map[string]string{}
	for _, e := range errs {
		assert.Equal(t, "ValidationFailed", e.Type)
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "email is required", fields["email"])
	assert.Equal(t, "password is required", fields["password"])
	assert.Contains(t, fields, "firstName")
	assert.Contains(t, fields, "lastName")

	body := registerBody("not-an-email")
	body["password"] = "short"
	resp = s.do(t, http.MethodPost, "/auth/register", body)
	require.Equal(t, http.StatusBadRequest, resp.status)

	fields = map[string]string{}
	for _, e := range resp.errors(t) {
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "email must be a valid email address", fields["email"])
	assert.Equal(t, "password must be at least 8 characters", fields["password"])
}

func TestRegister_MalformedBody(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodPost, "/auth/register", "not an object")
	require.Equal(t, http.StatusBadRequest, resp.status)
	assert.Equal(t, "ValidationFailed", resp.errors(t)[0].Type)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	s := newTestServer(t, nil)

	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com")).status)

	resp := s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com"))
	require.Equal(t, http.StatusConflict, resp.status)
	assert.Equal(t, "Conflict", resp.errors(t)[0].Type)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com")).status)

	resp := s.do(t, http.MethodPost, "/auth/login", fiber.Map{"email": "a@b.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, resp.status)

	var body map[string]any
	resp.json(t, &body)
	assert.Equal(t, map[string]any{"id": float64(1)}, body)
	assert.NotEmpty(t, resp.cookies[middleware.AccessTokenCookie].Value)
	assert.NotEmpty(t, resp.cookies[middleware.RefreshTokenCookie].Value)
	assert.Len(t, s.store.RefreshTokensForUser(1), 2)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com")).status)

	for _, body := range []fiber.Map{
		{"email": "a@b.com", "password": "wrong-password"},
		{"email": "nobody@b.com", "password": "secret123"},
	} {
		resp := s.do(t, http.MethodPost, "/auth/login", body)
		require.Equal(t, http.StatusBadRequest, resp.status)

		errs := resp.errors(t)
		require.Len(t, errs, 1)
		assert.Equal(t, "InvalidCredentials", errs[0].Type)
		assert.Equal(t, "Email or password does not match.", errs[0].Message)
		assert.Empty(t, resp.cookies)
	}

	assert.Len(t, s.store.RefreshTokensForUser(1), 1)
}

func TestSelf(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com")).status)
	access, _ := s.session(t, "a@b.com")

	resp := s.do(t, http.MethodGet, "/auth/self", nil, access)
	require.Equal(t, http.StatusOK, resp.status)

	var user map[string]any
	resp.json(t, &user)
	assert.EqualValues(t, 1, user["id"])
	assert.Equal(t, "a@b.com", user["email"])
	assert.NotContains(t, user, "password")

	resp = s.do(t, http.MethodGet, "/auth/self", nil)
	require.Equal(t, http.StatusUnauthorized, resp.status)
	assert.Equal(t, "Unauthenticated", resp.errors(t)[0].Type)
}

func TestRefresh(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com")).status)
	_, oldRefresh := s.session(t, "a@b.com")

	resp := s.do(t, http.MethodPost, "/auth/refresh", nil, oldRefresh)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))

	var body map[string]any
	resp.json(t, &body)
	assert.EqualValues(t, 1, body["id"])

	newRefresh := resp.cookies[middleware.RefreshTokenCookie]
	require.NotNil(t, newRefresh)
	assert.NotEqual(t, oldRefresh.Value, newRefresh.Value)
	assert.NotEmpty(t, resp.cookies[middleware.AccessTokenCookie].Value)

	// register + login records, minus the rotated one, plus its replacement.
	assert.Len(t, s.store.RefreshTokensForUser(1), 2)

	resp = s.do(t, http.MethodPost, "/auth/refresh", nil, oldRefresh)
	assert.Equal(t, http.StatusUnauthorized, resp.status)

	resp = s.do(t, http.MethodPost, "/auth/refresh", nil, newRefresh)
	assert.Equal(t, http.StatusOK, resp.status)
}

func TestRefresh_RequiresRefreshCookie(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com")).status)
	access, _ := s.session(t, "a@b.com")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/auth/refresh", nil).status)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/auth/refresh", nil, access).status)
}

func TestLogout(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com")).status)
	access, refresh := s.session(t, "a@b.com")
	before := len(s.store.RefreshTokensForUser(1))

	resp := s.do(t, http.MethodPost, "/auth/logout", nil, access, refresh)
	require.Equal(t, http.StatusOK, resp.status, string(resp.body))
	assert.JSONEq(t, `{}`, string(resp.body))

	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		cleared := resp.cookies[name]
		require.NotNil(t, cleared, name)
		assert.Empty(t, cleared.Value)
		assert.True(t, cleared.Expires.Before(time.Now()), name)
	}

	assert.Len(t, s.store.RefreshTokensForUser(1), before-1)

	// The refresh token is revoked and the access token is denylisted.
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/auth/refresh", nil, refresh).status)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/auth/self", nil, access).status)
}

func TestLogout_RequiresBothTokens(t *testing.T) {
	s := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/auth/register", registerBody("a@b.com")).status)
	access, refresh := s.session(t, "a@b.com")

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/auth/logout", nil, access).status)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, "/auth/logout", nil, refresh).status)
}

func TestRegister_PasswordTooLong(t *testing.T) {
	s := newTestServer(t, nil)

	body := registerBody("long@b.com")
	body["password"] = strings.Repeat("a", 100)
	resp := s.do(t, http.MethodPost, "/auth/register", body)
	require.Equal(t, http.StatusBadRequest, resp.status, string(resp.body))

	errs := resp.errors(t)
	require.Len(t, errs, 1)
	assert.Equal(t, "ValidationFailed", errs[0].Type)
	assert.Equal(t, "password", errs[0].Field)
	assert.Equal(t, "password must be at most 72 characters", errs[0].Message)

	body["password"] = strings.Repeat("é", 40)
	resp = s.do(t, http.MethodPost, "/auth/register", body)
	require.Equal(t, http.StatusBadRequest, resp.status, string(resp.body))
	assert.Equal(t, "password", resp.errors(t)[0].Field)
	assert.Empty(t, s.store.RefreshTokensForUser(1))
}
