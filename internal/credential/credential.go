// Package credential hashes and verifies account passwords with bcrypt.
package credential

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted, in characters.
const MinPasswordLength = 8

// MaxKeyBytes is the number of password bytes bcrypt keys on. Longer
// passwords are cut to this length on both hash and verify.
const MaxKeyBytes = 72

var (
	ErrHash             = errors.New("password hashing failed")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// Hasher hashes passwords at a fixed bcrypt cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or bcrypt.DefaultCost (10) when
// cost is outside bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// ValidatePassword enforces MinPasswordLength.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

func (h *Hasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(key(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHash, err)
	}
	return string(hash), nil
}

// Verify reports whether password matches hash. Malformed hashes and any
// other bcrypt error count as a mismatch.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), key(password)) == nil
}

func key(password string) []byte {
	b := []byte(password)
	if len(b) > MaxKeyBytes {
		b = b[:MaxKeyBytes]
	}
	return b
}
