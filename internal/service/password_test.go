package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasher(t *testing.T) {
	t.Parallel()

	hasher := NewPasswordHasher(bcrypt.MinCost)

	t.Run("verifies the original plaintext only", func(t *testing.T) {
		hash, err := hasher.Hash("secret123")
		require.NoError(t, err)
		assert.NotEqual(t, "secret123", hash)

		assert.True(t, hasher.Verify("secret123", hash))
		assert.False(t, hasher.Verify("secret124", hash))
	})

	t.Run("salts every hash", func(t *testing.T) {
		first, err := hasher.Hash("secret123")
		require.NoError(t, err)
		second, err := hasher.Hash("secret123")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})

	t.Run("malformed hash is a mismatch", func(t *testing.T) {
		assert.False(t, hasher.Verify("secret123", "not-a-bcrypt-hash"))
		assert.False(t, hasher.Verify("secret123", ""))
	})

	t.Run("accepts passwords longer than bcrypt input", func(t *testing.T) {
		long := strings.Repeat("a1", 64)
		hash, err := hasher.Hash(long)
		require.NoError(t, err)
		assert.True(t, hasher.Verify(long, hash))
	})

	t.Run("invalid cost falls back to default", func(t *testing.T) {
		assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(0).cost)
		assert.Equal(t, DefaultBcryptCost, NewPasswordHasher(99).cost)
		assert.Equal(t, bcrypt.MinCost, hasher.cost)
	})
}
