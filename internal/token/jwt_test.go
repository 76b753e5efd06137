package token

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestJWT_AccessToken_Roundtrip(t *testing.T) {
	j := NewJWT("secret")
	u := uuid.New()

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)
	got, err := j.ParseAccessToken(access)
	require.NoError(t, err)
	require.Equal(t, u, got)
}

func TestJWT_RefreshToken_Roundtrip(t *testing.T) {
	j := NewJWT("secret")
	u := uuid.New()

	refresh, jti, err := j.GenerateRefreshToken(u)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	gotUser, gotJTI, err := j.ParseRefreshToken(refresh)
	require.NoError(t, err)
	require.Equal(t, u, gotUser)
	require.Equal(t, jti, gotJTI)
}

func TestJWT_TokenType_Mismatch(t *testing.T) {
	j := NewJWT("secret")
	u := uuid.New()

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)

	_, _, err = j.ParseRefreshToken(access)
	require.Error(t, err)

	refresh, _, err := j.GenerateRefreshToken(u)
	require.NoError(t, err)

	_, err = j.ParseAccessToken(refresh)
	require.Error(t, err)
}

func TestJWT_WrongSecret(t *testing.T) {
	u := uuid.New()

	access, err := NewJWT("secret").GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = NewJWT("other").ParseAccessToken(access)
	require.Error(t, err)
}

func TestJWT_Garbage(t *testing.T) {
	j := NewJWT("secret")

	_, err := j.ParseAccessToken("not-a-token")
	require.Error(t, err)

	_, _, err = j.ParseRefreshToken("")
	require.Error(t, err)
}
