package core

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"unicode/utf8"
)

// MinPasswordLength is the minimum number of characters in a password.
const MinPasswordLength = 8

const redacted = "********"

// Password is a plaintext credential. It redacts itself when formatted or
// logged; use Reveal only where the raw value is needed.
type Password struct {
	value string
}

// ParsePassword enforces the password length policy.
func ParsePassword(s string) (Password, error) {
	if utf8.RuneCountInString(s) < MinPasswordLength {
		return Password{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return Password{value: s}, nil
}

// Reveal returns the raw credential.
func (p Password) Reveal() string { return p.value }

// Equal compares two passwords in constant time.
func (p Password) Equal(other Password) bool {
	return subtle.ConstantTimeCompare([]byte(p.value), []byte(other.value)) == 1
}

func (p Password) String() string   { return redacted }
func (p Password) GoString() string { return "core.Password{" + redacted + "}" }

func (p Password) LogValue() slog.Value { return slog.StringValue(redacted) }
