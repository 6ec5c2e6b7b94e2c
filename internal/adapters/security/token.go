// Package security inspects bearer tokens issued by the backend.
package security

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Inspector reads the expiry claim out of a JWT without verifying its
// signature. The backend is the authority on token validity; this only
// lets the client skip resuming a session it knows is already dead.
type Inspector struct {
	parser *jwt.Parser
}

func NewInspector() *Inspector {
	return &Inspector{parser: jwt.NewParser()}
}

// Expiry returns the token's expiration time. The second return is
// false when the token is not a parseable JWT or carries no exp claim.
func (i *Inspector) Expiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := i.parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
