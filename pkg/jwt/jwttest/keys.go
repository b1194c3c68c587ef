// Package jwttest provides throwaway key material for tests.
package jwttest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/marufkhan20/pizza-auth-service/pkg/jwt"
)

// Secret is the refresh-token HMAC secret used by Keys.
var Secret = []byte("0123456789abcdef0123456789abcdef")

var (
	once   sync.Once
	rsaKey *rsa.PrivateKey
	keyErr error
)

// RSAKey returns a 2048-bit key generated once per test binary.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	once.Do(func() {
		rsaKey, keyErr = rsa.GenerateKey(rand.Reader, 2048)
	})
	if keyErr != nil {
		t.Fatalf("generate rsa key: %v", keyErr)
	}
	return rsaKey
}

func Keys(t testing.TB) *jwt.Keys {
	t.Helper()
	key := RSAKey(t)
	return &jwt.Keys{
		AccessPrivate: key,
		AccessPublic:  &key.PublicKey,
		RefreshSecret: Secret,
	}
}

// PEM returns the PEM encodings of the shared test key pair.
func PEM(t testing.TB) (privatePEM, publicPEM []byte) {
	t.Helper()
	key := RSAKey(t)

	privatePEM = pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privatePEM, publicPEM
}

func TokenService(t testing.TB, opts jwt.Options) *jwt.TokenService {
	t.Helper()
	svc, err := jwt.NewTokenService(Keys(t), opts)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc
}
