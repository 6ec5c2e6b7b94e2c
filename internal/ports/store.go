package ports

import (
	"context"
	"time"

	"github.com/Patocuak64/dentalsmart-client/internal/domain"
)

// Fixed keys under which the session survives restarts.
const (
	KeyToken     = "token"
	KeyUserEmail = "user_email"
)

// KeyValueStore persists small client-side state across restarts.
// Get returns "" with a nil error for an absent key.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// HistoryCache keeps the most recently fetched saved-analysis list per
// user so history stays readable when the backend is unreachable.
type HistoryCache interface {
	Replace(ctx context.Context, email string, analyses []domain.SavedAnalysis) error
	List(ctx context.Context, email string) ([]domain.SavedAnalysis, error)
	Close() error
}

// TokenInspector reports what the client can read off a bearer token
// without verifying it. The backend stays the only verifier; the client
// just avoids presenting a token it can already see is expired.
type TokenInspector interface {
	Expiry(token string) (time.Time, bool)
}
