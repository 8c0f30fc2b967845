package auth

import (
	"testing"
	"time"

	"github.com/contactbox/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *TokenManager {
	return NewTokenManager("test-secret", config.AuthConfig{
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
		EmailTokenTTL:   24 * time.Hour,
	})
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager()

	access, err := m.CreateAccessToken("ann@x.com")
	require.NoError(t, err)
	refresh, err := m.CreateRefreshToken("ann@x.com")
	require.NoError(t, err)
	email, err := m.CreateEmailToken("ann@x.com")
	require.NoError(t, err)

	subject, err := m.DecodeAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", subject)

	subject, err = m.DecodeRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", subject)

	subject, err = m.DecodeEmailToken(email)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", subject)
}

func TestTokenScopeMismatch(t *testing.T) {
	m := testManager()

	access, err := m.CreateAccessToken("ann@x.com")
	require.NoError(t, err)

	_, err = m.DecodeRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.DecodeEmailToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	m := NewTokenManager("test-secret", config.AuthConfig{
		AccessTokenTTL:  -time.Minute,
		RefreshTokenTTL: -time.Minute,
		EmailTokenTTL:   -time.Minute,
	})

	token, err := m.CreateRefreshToken("ann@x.com")
	require.NoError(t, err)

	_, err = m.DecodeRefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenWrongSecret(t *testing.T) {
	m := testManager()
	other := NewTokenManager("other-secret", config.AuthConfig{
		AccessTokenTTL: 15 * time.Minute,
	})

	token, err := other.CreateAccessToken("ann@x.com")
	require.NoError(t, err)

	_, err = m.DecodeAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.True(t, VerifyPassword("s3cret!", hash))
	assert.False(t, VerifyPassword("wrong", hash))
}
