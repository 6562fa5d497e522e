package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	require.NotEqual(t, "hunter22", hash)

	require.True(t, CheckPassword(hash, "hunter22"))
	require.False(t, CheckPassword(hash, "hunter23"))
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := IssueToken("secret", 42, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken("secret", token)
	require.NoError(t, err)
	require.Equal(t, 42, claims.UserID)
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := IssueToken("secret", 42, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken("other", token)
	require.Error(t, err)
}

func TestExpiredToken(t *testing.T) {
	token, err := IssueToken("secret", 42, -time.Minute)
	require.NoError(t, err)

	_, err = ParseToken("secret", token)
	require.Error(t, err)
}
