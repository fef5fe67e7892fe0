package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAPIKeyShape(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "rk_"))
	assert.Len(t, key, 3+48)

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestSecretHashRoundTrip(t *testing.T) {
	secret, err := GenerateAPISecret()
	require.NoError(t, err)

	hash := HashSecret(secret)
	assert.Len(t, hash, 64)
	assert.True(t, SecretMatchesHash(secret, hash))
	assert.False(t, SecretMatchesHash(secret+"x", hash))
	assert.False(t, SecretMatchesHash("", hash))
}

func TestTruncateRuneSafety(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab...", Truncate("abcdefgh", 5))
	assert.Equal(t, "日本...", Truncate("日本語のテキスト", 5))
	assert.Equal(t, "", Truncate("anything", 0))
}
