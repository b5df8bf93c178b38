package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := hashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, "password123", hash)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"))
	assert.NotContains(t, hash, "password123")
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := hashPassword("password123")
	require.NoError(t, err)
	hash2, err := hashPassword("password123")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := hashPassword("password123")
	require.NoError(t, err)

	assert.True(t, verifyPassword(hash, "password123"))
	assert.False(t, verifyPassword(hash, "wrongpassword"))
	assert.False(t, verifyPassword(hash, ""))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	assert.False(t, verifyPassword("", "password123"))
	assert.False(t, verifyPassword("not-a-hash", "password123"))
	assert.False(t, verifyPassword("$argon2id$v=19$bogus", "password123"))
}
