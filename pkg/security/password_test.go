package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	h := NewBcryptHasher(BcryptConfig{Cost: bcrypt.MinCost})

	hash, err := h.Hash("correct-horse-battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse-battery", hash)

	assert.NoError(t, h.Compare(hash, "correct-horse-battery"))
	assert.Error(t, h.Compare(hash, "wrong-password"))
}

func TestHash_RejectsShortPassword(t *testing.T) {
	h := NewBcryptHasher(BcryptConfig{Cost: bcrypt.MinCost, MinPasswordLen: 12})

	_, err := h.Hash("elevenchars")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPasswordTooShort))

	_, err = h.Hash("twelve-chars")
	assert.NoError(t, err)
}

func TestNewBcryptHasher_Defaults(t *testing.T) {
	h := NewBcryptHasher(BcryptConfig{}).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
	assert.Equal(t, defaultMinPasswordLen, h.minLen)

	// Out-of-range costs clamp rather than fail at hash time.
	h = NewBcryptHasher(BcryptConfig{Cost: 99}).(*bcryptHasher)
	assert.Equal(t, bcrypt.DefaultCost, h.cost)
}
