package domain

import "testing"

func TestValidateEmailAcceptsWellFormedAddresses(t *testing.T) {
	t.Parallel()
	valid := []string{
		"user@example.com",
		"first.last@example.com",
		"user123@mail.example.org",
		"u@ab.co",
		"1234@example.com",
	}
	for _, email := range valid {
		if res := ValidateEmail(email); !res.Valid {
			t.Errorf("ValidateEmail(%q) rejected: %s", email, res.Err)
		}
	}
}

func TestValidateEmailRejectsMalformedAddresses(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name  string
		email string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"missing at", "userexample.com"},
		{"two ats", "a@b@c.com"},
		{"embedded space", "us er@example.com"},
		{"empty local", "@example.com"},
		{"empty domain", "user@"},
		{"no domain dot", "user@example"},
		{"trailing domain dot", "user@example.com."},
		{"consecutive dots in local", "a..b@example.com"},
		{"leading dot in local", ".abc@example.com"},
		{"trailing dot in local", "abc.@example.com"},
		{"only dots in local", "...@example.com"},
		{"consecutive dots in domain", "abc@x..com"},
		{"one letter extension", "abc@example.c"},
		{"numeric extension", "abc@example.123"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			res := ValidateEmail(tc.email)
			if res.Valid {
				t.Fatalf("ValidateEmail(%q) accepted, want rejection", tc.email)
			}
			if res.Err == "" {
				t.Fatalf("ValidateEmail(%q) rejected with empty message", tc.email)
			}
			if res.Normalized != "" {
				t.Fatalf("ValidateEmail(%q) set Normalized=%q on rejection", tc.email, res.Normalized)
			}
		})
	}
}

func TestValidateEmailExtensionBoundary(t *testing.T) {
	t.Parallel()
	if res := ValidateEmail("abc@example.c"); res.Valid {
		t.Error("one-letter extension accepted")
	}
	if res := ValidateEmail("abc@example.co"); !res.Valid {
		t.Errorf("two-letter extension rejected: %s", res.Err)
	}
}

func TestValidateEmailNormalizes(t *testing.T) {
	t.Parallel()
	res := ValidateEmail("  User@Example.COM  ")
	if !res.Valid {
		t.Fatalf("rejected: %s", res.Err)
	}
	if res.Normalized != "user@example.com" {
		t.Fatalf("Normalized = %q, want %q", res.Normalized, "user@example.com")
	}

	again := ValidateEmail(res.Normalized)
	if !again.Valid || again.Normalized != res.Normalized {
		t.Fatalf("normalization not idempotent: %+v", again)
	}
}

func TestValidateEmailFirstFailingRuleWins(t *testing.T) {
	t.Parallel()
	// "..." local violates several rules; the consecutive-dot rule runs
	// first and its message is the one reported.
	res := ValidateEmail("...@example.com")
	if res.Valid {
		t.Fatal("accepted")
	}
	if res.Err != "email cannot contain consecutive dots (..)" {
		t.Fatalf("Err = %q", res.Err)
	}
}

func TestIsKnownProvider(t *testing.T) {
	t.Parallel()
	if !IsKnownProvider("user@gmail.com") {
		t.Error("gmail.com not recognized")
	}
	if !IsKnownProvider("  User@OUTLOOK.com ") {
		t.Error("provider match should be case and whitespace insensitive")
	}
	if IsKnownProvider("user@clinic-imaging.example") {
		t.Error("unknown domain reported as known provider")
	}
	if IsKnownProvider("no-at-sign") {
		t.Error("malformed address reported as known provider")
	}
}
