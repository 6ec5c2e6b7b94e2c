package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	if err := ValidatePassword("secret"); err != nil {
		t.Fatalf("six characters rejected: %v", err)
	}
	if err := ValidatePassword(strings.Repeat("a", 64)); err != nil {
		t.Fatalf("long password rejected: %v", err)
	}

	for _, short := range []string{"", "12345"} {
		err := ValidatePassword(short)
		if err == nil {
			t.Fatalf("ValidatePassword(%q) accepted", short)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("ValidatePassword(%q) = %v, want ErrInvalidInput", short, err)
		}
	}
}
