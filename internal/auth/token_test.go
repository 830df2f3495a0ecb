package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour, "stocktally")
	user := &User{ID: "user-1", Email: "a@b.c"}

	signed, err := tokens.Generate(user)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	claims, err := tokens.Validate(signed)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UID)
	require.Equal(t, "a@b.c", claims.Email)
	require.Equal(t, "stocktally", claims.Issuer)
}

func TestTokenExpired(t *testing.T) {
	tokens := NewTokenManager("test-secret", -time.Minute, "stocktally")

	signed, err := tokens.Generate(&User{ID: "user-1"})
	require.NoError(t, err)

	_, err = tokens.Validate(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	signed, err := NewTokenManager("secret-a", time.Hour, "stocktally").Generate(&User{ID: "user-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("secret-b", time.Hour, "stocktally").Validate(signed)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenGarbage(t *testing.T) {
	tokens := NewTokenManager("test-secret", time.Hour, "stocktally")

	_, err := tokens.Validate("not.a.token")
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Validate("")
	require.ErrorIs(t, err, ErrInvalidToken)
}
