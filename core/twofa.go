package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// LoginAttemptID correlates a two-factor verification with the login that
// created the challenge.
type LoginAttemptID string

// NewLoginAttemptID returns a random (v4) attempt id.
func NewLoginAttemptID() LoginAttemptID {
	return LoginAttemptID(uuid.New().String())
}

// ParseLoginAttemptID validates s as a UUID and returns its canonical form.
func ParseLoginAttemptID(s string) (LoginAttemptID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("%w: malformed login attempt id", ErrInvalidInput)
	}
	return LoginAttemptID(id.String()), nil
}

func (id LoginAttemptID) String() string { return string(id) }

// TwoFACodeLength is the number of digits in a two-factor code.
const TwoFACodeLength = 6

const (
	minTwoFACode = 100000
	maxTwoFACode = 999999
)

// TwoFACode is a six digit one-time code.
type TwoFACode string

// NewTwoFACode draws a code uniformly from 100000..999999.
func NewTwoFACode() (TwoFACode, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxTwoFACode-minTwoFACode+1))
	if err != nil {
		return "", fmt.Errorf("%w: generate two-factor code: %v", ErrUnexpected, err)
	}
	return TwoFACode(strconv.FormatInt(n.Int64()+minTwoFACode, 10)), nil
}

// ParseTwoFACode accepts exactly six ASCII digits.
func ParseTwoFACode(s string) (TwoFACode, error) {
	if len(s) != TwoFACodeLength {
		return "", fmt.Errorf("%w: two-factor code must be %d digits", ErrInvalidInput, TwoFACodeLength)
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return "", fmt.Errorf("%w: two-factor code must be numeric", ErrInvalidInput)
		}
	}
	return TwoFACode(s), nil
}

func (c TwoFACode) String() string { return string(c) }
