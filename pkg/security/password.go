package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooShort is returned by Hash for passwords under the
// configured minimum; callers map it to a validation error.
var ErrPasswordTooShort = errors.New("password too short")

const defaultMinPasswordLen = 10

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hashedPassword, password string) error
}

// BcryptConfig tunes the hasher. Zero values fall back to
// bcrypt.DefaultCost and a 10-character minimum.
type BcryptConfig struct {
	Cost           int
	MinPasswordLen int
}

type bcryptHasher struct {
	cost   int
	minLen int
}

func NewBcryptHasher(cfg BcryptConfig) PasswordHasher {
	cost := cfg.Cost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	minLen := cfg.MinPasswordLen
	if minLen <= 0 {
		minLen = defaultMinPasswordLen
	}
	return &bcryptHasher{cost: cost, minLen: minLen}
}

func (b *bcryptHasher) Hash(password string) (string, error) {
	if len(password) < b.minLen {
		return "", fmt.Errorf("%w: need at least %d characters", ErrPasswordTooShort, b.minLen)
	}

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

func (b *bcryptHasher) Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
