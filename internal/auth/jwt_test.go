package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	token, err := issuer.GenerateToken("u-1", "a@b.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := issuer.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
	require.Equal(t, "a@b.com", claims.Email)
}

func TestValidateToken_Invalid(t *testing.T) {
	_, err := NewIssuer("secret", time.Hour).ValidateToken("invalid.token")
	require.Error(t, err)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, err := NewIssuer("one", time.Hour).GenerateToken("u-1", "a@b.com")
	require.NoError(t, err)
	_, err = NewIssuer("two", time.Hour).ValidateToken(token)
	require.Error(t, err)
}

func TestExpiresAt(t *testing.T) {
	token, err := NewIssuer("secret", time.Hour).GenerateToken("u-1", "a@b.com")
	require.NoError(t, err)

	exp, err := ExpiresAt(token)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)
	require.False(t, Expired(token, time.Minute))
	require.True(t, Expired(token, 2*time.Hour))
	require.True(t, Expired("garbage", 0))
}
