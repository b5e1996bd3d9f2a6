package core

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Email identifies a principal. The zero value is not a valid Email; obtain
// one with ParseEmail.
type Email struct {
	value string
}

// ParseEmail validates s as an email address.
func ParseEmail(s string) (Email, error) {
	s = strings.TrimSpace(s)
	if err := validate.Var(s, "required,email"); err != nil {
		return Email{}, fmt.Errorf("%w: malformed email address", ErrInvalidInput)
	}
	return Email{value: s}, nil
}

// MustParseEmail is like ParseEmail but panics on error. Intended for tests
// and static seeds.
func MustParseEmail(s string) Email {
	e, err := ParseEmail(s)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) String() string { return e.value }

// IsZero reports whether e was never parsed.
func (e Email) IsZero() bool { return e.value == "" }
