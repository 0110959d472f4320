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
	tok, err := NewAccessToken("secret", 42, "ADMIN", 15)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), tok.Exp, 5*time.Second)

	claims, err := ParseAccessToken("secret", tok.Token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)

	_, err = ParseAccessToken("other", tok.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenRejectsCheckInToken(t *testing.T) {
	ci, err := NewCheckInToken("secret", 7, time.Hour, "/checkin")
	require.NoError(t, err)

	_, err = ParseAccessToken("secret", ci.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAccessTokenRejectsOtherAlgorithms(t *testing.T) {
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "1", "role": "ADMIN", "typ": "access", "exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = ParseAccessToken("secret", raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCheckInToken(t *testing.T) {
	ci, err := NewCheckInToken("k", 99, time.Hour, "https://event.example/checkin")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ci.URL, "https://event.example/checkin?token="))

	sid, err := ParseCheckInToken("k", "  "+ci.Token+"\n")
	require.NoError(t, err)
	assert.Equal(t, uint64(99), sid)

	forged, err := NewCheckInToken("not-k", 99, time.Hour, "/checkin")
	require.NoError(t, err)
	_, err = ParseCheckInToken("k", forged.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	parts := strings.Split(ci.Token, ".")
	require.Len(t, parts, 3)
	_, err = ParseCheckInToken("k", parts[0]+"."+parts[1]+"x."+parts[2])
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := NewCheckInToken("k", 99, -time.Minute, "/c?x=1")
	require.NoError(t, err)
	assert.Contains(t, expired.URL, "/c?x=1&token=")
	_, err = ParseCheckInToken("k", expired.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshToken(t *testing.T) {
	rt, err := NewRefreshToken(7)
	require.NoError(t, err)
	assert.Len(t, rt.Raw, 96)
	assert.Len(t, HashRefreshRaw(rt.Raw), 64)
	assert.NotEqual(t, rt.Raw, HashRefreshRaw(rt.Raw))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))

	other, err := HashPassword("correct horse", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "each hash gets its own salt")

	_, err = HashPassword("short", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrWeakPassword)
}
