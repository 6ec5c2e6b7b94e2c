package domain

import "fmt"

// MinPasswordLength mirrors the backend's minimum so obviously short
// passwords fail fast without consuming a request. The backend remains
// the authority on password policy.
const MinPasswordLength = 6

// ValidatePassword enforces the client-side password policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}
