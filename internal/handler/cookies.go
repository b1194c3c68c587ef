package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/marufkhan20/pizza-auth-service/internal/handler/middleware"
	"github.com/marufkhan20/pizza-auth-service/internal/service"
)

// CookieConfig controls the session cookies. Each cookie lives as long as the
// token it carries.
type CookieConfig struct {
	Domain     string
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cc CookieConfig) setSession(c *fiber.Ctx, session *service.Session) {
	c.Cookie(cc.cookie(middleware.AccessTokenCookie, session.AccessToken, cc.AccessTTL))
	c.Cookie(cc.cookie(middleware.RefreshTokenCookie, session.RefreshToken, cc.RefreshTTL))
}

// clearSession expires both cookies with the attributes they were set with,
// so browsers actually drop them.
func (cc CookieConfig) clearSession(c *fiber.Ctx) {
	for _, name := range []string{middleware.AccessTokenCookie, middleware.RefreshTokenCookie} {
		cookie := cc.cookie(name, "", 0)
		cookie.Expires = time.Unix(0, 0).UTC()
		c.Cookie(cookie)
	}
}

func (cc CookieConfig) cookie(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cc.Domain,
		MaxAge:   int(ttl / time.Second),
		Secure:   cc.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}
}
