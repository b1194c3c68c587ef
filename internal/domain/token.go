package domain

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT payload for both token kinds. RecordID is set only on
// refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Role      Role   `json:"role"`
	RecordID  *int64 `json:"rid,omitempty"`
	TokenType string `json:"typ"`
}

func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	UserID    int64
	Role      Role
	RecordID  *int64
	TokenID   string
	ExpiresAt time.Time
}
