package auth

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestEmptyTokenIsDefinedState(t *testing.T) {
	creds, err := NewCredentials("")
	require.NoError(t, err)
	require.Empty(t, creds.Token())
	require.Empty(t, creds.Identity().UserID)
}

func TestIdentityFromStringClaims(t *testing.T) {
	token := sign(t, jwt.MapClaims{"user_id": "u1", "username": "nina"})

	creds, err := NewCredentials(token)
	require.NoError(t, err)
	require.Equal(t, token, creds.Token())
	require.Equal(t, Identity{UserID: "u1", Username: "nina"}, creds.Identity())
}

func TestIdentityFromNumericUserID(t *testing.T) {
	token := sign(t, jwt.MapClaims{"user_id": 42, "username": "nina"})

	creds, err := NewCredentials(token)
	require.NoError(t, err)
	require.Equal(t, "42", creds.Identity().UserID)
}

func TestMalformedTokenIsRejected(t *testing.T) {
	_, err := NewCredentials("not-a-jwt")
	require.Error(t, err)

	_, err = NewCredentials(sign(t, jwt.MapClaims{"username": "nina"}))
	require.ErrorIs(t, err, ErrInvalidToken)
}
