package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseToken(t *testing.T) {
	v := NewVerifier("test-secret", time.Hour)

	token, err := v.GenerateToken("alpha", "Team Alpha")
	require.NoError(t, err)

	claims, err := v.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, "alpha", claims.TeamID)
	require.Equal(t, "Team Alpha", claims.TeamName)
}

func TestParseToken_WrongSecret(t *testing.T) {
	token, err := NewVerifier("secret-a", time.Hour).GenerateToken("alpha", "Team Alpha")
	require.NoError(t, err)

	_, err = NewVerifier("secret-b", time.Hour).ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Expired(t *testing.T) {
	v := NewVerifier("test-secret", -time.Minute)
	token, err := v.GenerateToken("alpha", "Team Alpha")
	require.NoError(t, err)

	_, err = v.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	_, err := NewVerifier("test-secret", time.Hour).ParseToken("not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}
