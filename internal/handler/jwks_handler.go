package handler

import (
	"crypto/rsa"
	"encoding/base64"
	"math/big"

	"github.com/gofiber/fiber/v2"
)

type JWKSHandler struct {
	jwks JWKS
}

type JWKS struct {
	Keys []JWK `json:"keys"`
}

type JWK struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// NewJWKSHandler publishes the public half of the access-token key. The key
// never changes while the process runs, so the document is built once.
func NewJWKSHandler(publicKey *rsa.PublicKey, keyID string) *JWKSHandler {
	return &JWKSHandler{
		jwks: JWKS{
			Keys: []JWK{
				{
					Kty: "RSA",
					Use: "sig",
					Kid: keyID,
					Alg: "RS256",
					N:   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
					E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
				},
			},
		},
	}
}

// GetJWKS
// GET /.well-known/jwks.json
func (h *JWKSHandler) GetJWKS(c *fiber.Ctx) error {
	c.Set(fiber.HeaderCacheControl, "public, max-age=300")
	return c.JSON(h.jwks)
}
