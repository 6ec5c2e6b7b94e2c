package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestExpiryReadsClaim(t *testing.T) {
	t.Parallel()
	exp := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	token := signedToken(t, jwt.MapClaims{"sub": "user@example.com", "exp": exp.Unix()})

	got, ok := NewInspector().Expiry(token)
	if !ok {
		t.Fatal("expiry not found")
	}
	if !got.Equal(exp) {
		t.Fatalf("expiry = %v, want %v", got, exp)
	}
}

func TestExpiryWithoutClaim(t *testing.T) {
	t.Parallel()
	token := signedToken(t, jwt.MapClaims{"sub": "user@example.com"})
	if _, ok := NewInspector().Expiry(token); ok {
		t.Fatal("expiry reported for token without exp claim")
	}
}

func TestExpiryOnOpaqueToken(t *testing.T) {
	t.Parallel()
	if _, ok := NewInspector().Expiry("not-a-jwt"); ok {
		t.Fatal("expiry reported for opaque token")
	}
	if _, ok := NewInspector().Expiry(""); ok {
		t.Fatal("expiry reported for empty token")
	}
}
