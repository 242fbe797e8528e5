package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundtrip(t *testing.T) {
	hash, err := HashPassword("secreto")
	require.NoError(t, err)
	assert.NotEqual(t, "secreto", hash)

	assert.True(t, VerifyPassword("secreto", hash))
	assert.False(t, VerifyPassword("otro", hash))
	assert.False(t, VerifyPassword("secreto", "not-a-hash"))
}

func TestTokenRoundtrip(t *testing.T) {
	token, err := GenerateToken("shared-secret", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("shared-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Subject)
}

func TestTokenRejectedWithWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret-a", time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("secret-b", token)
	assert.Error(t, err)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("shared-secret", -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("shared-secret", token)
	assert.Error(t, err)
}

func TestGenerateTokenRequiresSecret(t *testing.T) {
	_, err := GenerateToken("", time.Hour)
	assert.Error(t, err)
}
