package domain

import (
	"strings"
	"unicode"
)

// EmailValidationResult is the structured verdict of ValidateEmail.
// Valid is true iff Err is empty and Normalized is set.
type EmailValidationResult struct {
	Valid      bool
	Err        string
	Normalized string
}

func invalidEmail(msg string) EmailValidationResult {
	return EmailValidationResult{Err: msg}
}

// ValidateEmail checks format and structure of an email address and
// returns the trimmed, lowercased form when it passes. Rules run in a
// fixed order and the first failing rule wins.
func ValidateEmail(raw string) EmailValidationResult {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return invalidEmail("email is required")
	}

	if !hasBasicShape(email) {
		return invalidEmail("invalid email format")
	}

	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]

	if strings.Contains(local, "..") {
		return invalidEmail("email cannot contain consecutive dots (..)")
	}
	if strings.HasPrefix(local, ".") {
		return invalidEmail("email cannot start with a dot")
	}
	if strings.HasSuffix(local, ".") {
		return invalidEmail("email cannot end with a dot before the @")
	}
	if !containsAlnum(local) {
		return invalidEmail("email must contain at least one letter or digit")
	}
	// Subsumed by the alphanumeric rule above, but kept as an
	// independent guard so neither check depends on the other.
	if strings.Trim(local, ".") == "" {
		return invalidEmail("email cannot consist only of dots")
	}

	if !strings.Contains(domain, ".") {
		return invalidEmail("domain must have a valid extension")
	}
	if strings.Contains(domain, "..") {
		return invalidEmail("domain cannot contain consecutive dots")
	}
	parts := strings.Split(domain, ".")
	ext := parts[len(parts)-1]
	if len(ext) < 2 {
		return invalidEmail("domain extension must be at least 2 characters")
	}
	if !isAlpha(ext) {
		return invalidEmail("domain extension can only contain letters")
	}
	if strings.Join(parts[:len(parts)-1], ".") == "" {
		return invalidEmail("domain name cannot be empty")
	}

	return EmailValidationResult{Valid: true, Normalized: email}
}

// hasBasicShape enforces the general local@domain.ext outline: exactly
// one @, no whitespace, both sides non-empty, and a dotted domain with
// at least one character on each side of its last dot.
func hasBasicShape(email string) bool {
	if strings.Count(email, "@") != 1 {
		return false
	}
	if strings.ContainsFunc(email, unicode.IsSpace) {
		return false
	}
	at := strings.Index(email, "@")
	local, domain := email[:at], email[at+1:]
	if local == "" || domain == "" {
		return false
	}
	dot := strings.LastIndex(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

func containsAlnum(s string) bool {
	return strings.ContainsFunc(s, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	})
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

var knownProviders = map[string]struct{}{
	"gmail.com":      {},
	"outlook.com":    {},
	"hotmail.com":    {},
	"yahoo.com":      {},
	"icloud.com":     {},
	"protonmail.com": {},
	"aol.com":        {},
	"zoho.com":       {},
	"mail.com":       {},
	"gmx.com":        {},
}

// IsKnownProvider reports whether the address belongs to one of the
// well-known mail providers. Informational only; membership is not
// required for validity.
func IsKnownProvider(email string) bool {
	_, domain, ok := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	if !ok {
		return false
	}
	_, known := knownProviders[domain]
	return known
}
