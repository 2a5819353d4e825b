package verification

import (
	"fmt"
	"strings"
	"time"
)

// Purpose identifies which flow a verification code belongs to.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposeLogin         Purpose = "login"
	PurposePasswordReset Purpose = "password_reset"
)

// ParsePurpose validates a purpose value received at the boundary. Unknown
// values are rejected before any store access.
func ParsePurpose(s string) (Purpose, error) {
	switch Purpose(s) {
	case PurposeRegistration, PurposeLogin, PurposePasswordReset:
		return Purpose(s), nil
	default:
		return "", fmt.Errorf("unknown verification purpose %q", s)
	}
}

// Code is a single issued verification code. Codes are exactly six ASCII
// digits and are kept as strings to preserve leading zeros.
type Code struct {
	ID        string
	Email     string
	Purpose   Purpose
	Code      string
	IssuedAt  time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
	Attempts  int
}

// Used reports whether the code has been consumed.
func (c Code) Used() bool {
	return c.UsedAt != nil
}

// Expired reports whether the code is past its expiry at the given instant.
func (c Code) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// NormalizeEmail lowercases and trims an address so that lookups and issues
// agree on the key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
