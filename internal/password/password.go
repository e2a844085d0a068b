// Package password owns credential hashing policy: bcrypt truncation,
// empty-secret rejection and the strength rules applied to new passwords.
package password

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/shiftwise/shiftwise/internal/shared"
)

// MaxLength is bcrypt's input limit in bytes. Longer secrets are truncated
// to this length before hashing AND before verification so the two stay
// consistent. Truncation silently reduces entropy for very long inputs;
// the behavior is kept for compatibility and pinned by tests.
const MaxLength = 72

// MinLength is the minimum accepted password length in characters.
const MinLength = 8

func truncate(secret string) []byte {
	b := []byte(secret)
	if len(b) > MaxLength {
		return b[:MaxLength]
	}
	return b
}

// Hash derives a bcrypt hash from the secret. Empty secrets are rejected.
func Hash(secret string) (string, error) {
	if secret == "" {
		return "", shared.ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword(truncate(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("password: hash: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether the secret matches the stored hash, applying the
// same truncation as Hash.
func Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), truncate(secret)) == nil
}

// EvaluateStrength checks the secret against the password policy and returns
// the first failing reason, not all of them.
func EvaluateStrength(secret string) (bool, string) {
	if len([]rune(secret)) < MinLength {
		return false, fmt.Sprintf("password must be at least %d characters", MinLength)
	}
	if len([]byte(secret)) > MaxLength {
		return false, fmt.Sprintf("password must not exceed %d bytes", MaxLength)
	}

	var hasLower, hasUpper, hasDigit bool
	for _, r := range secret {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLower || !hasUpper || !hasDigit {
		return false, "password must contain at least one lowercase letter, one uppercase letter and one digit"
	}
	return true, ""
}
