package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "intern", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	uid, role, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), uid)
	assert.Equal(t, "intern", role)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "admin", 15)
	require.NoError(t, err)

	_, _, err = ParseAccessToken("other", tok.Token)
	assert.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, "admin", -1)
	require.NoError(t, err)

	_, _, err = ParseAccessToken("secret", tok.Token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestClaimsIdentity(t *testing.T) {
	uid, role, err := ClaimsIdentity(jwt.MapClaims{"sub": "7", "role": "admin"})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), uid)
	assert.Equal(t, "admin", role)

	uid, _, err = ClaimsIdentity(jwt.MapClaims{"sub": float64(8), "role": "intern"})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), uid)

	_, _, err = ClaimsIdentity(jwt.MapClaims{"sub": "x", "role": "intern"})
	assert.ErrorIs(t, err, ErrInvalidClaims)
	_, _, err = ClaimsIdentity(jwt.MapClaims{"sub": "7"})
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestRefreshToken(t *testing.T) {
	a, err := NewRefreshToken(7)
	require.NoError(t, err)
	b, err := NewRefreshToken(7)
	require.NoError(t, err)

	assert.Len(t, a.Raw, 96)
	assert.NotEqual(t, a.Raw, b.Raw)
	assert.Len(t, HashRefreshRaw(a.Raw), 64)
	assert.Equal(t, HashRefreshRaw(a.Raw), HashRefreshRaw(a.Raw))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "s3cret!"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("", ""))
}

func TestHashPasswordCost(t *testing.T) {
	hash, err := HashPassword("s3cret!", 0)
	require.NoError(t, err)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)

	_, err = HashPassword(strings.Repeat("x", 73), bcrypt.MinCost)
	assert.ErrorIs(t, err, bcrypt.ErrPasswordTooLong)
}
