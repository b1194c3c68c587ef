package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/marufkhan20/pizza-auth-service/internal/domain"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 365 * 24 * time.Hour

	minRefreshSecretLen = 32
)

var (
	ErrInvalidSigningMethod = errors.New("unexpected signing method")
	ErrInvalidToken         = errors.New("invalid token")
	ErrInvalidKeys          = errors.New("invalid key material")
)

// Keys holds the signing material. Access tokens are signed with the RSA
// private key so verifiers only need the public half; refresh tokens use a
// separate HMAC secret.
type Keys struct {
	AccessPrivate *rsa.PrivateKey
	AccessPublic  *rsa.PublicKey
	RefreshSecret []byte
}

// LoadKeys parses PEM encoded RSA keys and validates the refresh secret.
func LoadKeys(privateKeyPEM, publicKeyPEM, refreshSecret []byte) (*Keys, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: access private key: %v", ErrInvalidKeys, err)
	}

	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: access public key: %v", ErrInvalidKeys, err)
	}

	keys := &Keys{
		AccessPrivate: privateKey,
		AccessPublic:  publicKey,
		RefreshSecret: refreshSecret,
	}
	if err := keys.validate(); err != nil {
		return nil, err
	}
	return keys, nil
}

func (k *Keys) validate() error {
	if k == nil || k.AccessPrivate == nil || k.AccessPublic == nil {
		return fmt.Errorf("%w: access key pair is required", ErrInvalidKeys)
	}
	if !k.AccessPrivate.PublicKey.Equal(k.AccessPublic) {
		return fmt.Errorf("%w: access public key does not match private key", ErrInvalidKeys)
	}
	if len(k.RefreshSecret) < minRefreshSecretLen {
		return fmt.Errorf("%w: refresh secret must be at least %d bytes", ErrInvalidKeys, minRefreshSecretLen)
	}
	return nil
}

type Options struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	KeyID      string
	Now        func() time.Time
}

type TokenService struct {
	keys          *Keys
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	issuer        string
	keyID         string
	now           func() time.Time
}

func NewTokenService(keys *Keys, opts Options) (*TokenService, error) {
	if err := keys.validate(); err != nil {
		return nil, err
	}
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = DefaultAccessTTL
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = DefaultRefreshTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &TokenService{
		keys:          keys,
		accessExpiry:  opts.AccessTTL,
		refreshExpiry: opts.RefreshTTL,
		issuer:        opts.Issuer,
		keyID:         opts.KeyID,
		now:           opts.Now,
	}, nil
}

func (s *TokenService) AccessTTL() time.Duration  { return s.accessExpiry }
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshExpiry }

// IssueAccessToken signs {sub, role} with RS256. The token never carries a
// refresh record id.
func (s *TokenService) IssueAccessToken(userID int64, role domain.Role) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.accessExpiry)

	claims := domain.Claims{
		RegisteredClaims: s.registered(userID, now, exp),
		Role:             role,
		TokenType:        domain.TokenTypeAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.keyID != "" {
		token.Header["kid"] = s.keyID
	}

	signed, err := token.SignedString(s.keys.AccessPrivate)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// IssueRefreshToken signs {sub, role, rid} with the refresh secret.
func (s *TokenService) IssueRefreshToken(userID int64, role domain.Role, recordID int64) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.refreshExpiry)

	rid := recordID
	claims := domain.Claims{
		RegisteredClaims: s.registered(userID, now, exp),
		Role:             role,
		RecordID:         &rid,
		TokenType:        domain.TokenTypeRefresh,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.keys.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *TokenService) registered(userID int64, now, exp time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
}

// ParseAccessToken verifies signature, expiry and token type of an access
// token against the RSA public key.
func (s *TokenService) ParseAccessToken(tokenString string) (*domain.Claims, error) {
	claims, err := s.parse(tokenString, jwt.SigningMethodRS256.Alg(), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.keys.AccessPublic, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.TokenType != domain.TokenTypeAccess || claims.RecordID != nil {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return claims, nil
}

// ParseRefreshToken verifies signature, expiry and token type of a refresh
// token against the refresh secret. It does not check revocation.
func (s *TokenService) ParseRefreshToken(tokenString string) (*domain.Claims, error) {
	claims, err := s.parse(tokenString, jwt.SigningMethodHS256.Alg(), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSigningMethod
		}
		return s.keys.RefreshSecret, nil
	})
	if err != nil {
		return nil, err
	}
	if claims.TokenType != domain.TokenTypeRefresh {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return claims, nil
}

func (s *TokenService) parse(tokenString, alg string, keyFunc jwt.Keyfunc) (*domain.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{alg}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &domain.Claims{}, keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*domain.Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, fmt.Errorf("%w: malformed subject", ErrInvalidToken)
	}

	return claims, nil
}

// PublicKey returns the RSA public key for the JWKS endpoint
func (s *TokenService) PublicKey() *rsa.PublicKey {
	return s.keys.AccessPublic
}

func (s *TokenService) KeyID() string {
	return s.keyID
}
