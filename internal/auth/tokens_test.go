package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-chars"

func fixedClock(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestResetToken_RoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret)

	token, err := tokens.IssueReset(42, 600*time.Second)
	require.NoError(t, err)

	id, ok := tokens.VerifyReset(token)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}

func TestResetToken_Expired(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens := NewTokens(testSecret).WithClock(fixedClock(issuedAt))

	token, err := tokens.IssueReset(7, 600*time.Second)
	require.NoError(t, err)

	_, ok := tokens.WithClock(fixedClock(issuedAt.Add(599 * time.Second))).VerifyReset(token)
	assert.True(t, ok, "token should still be valid before expiry")

	_, ok = tokens.WithClock(fixedClock(issuedAt.Add(601 * time.Second))).VerifyReset(token)
	assert.False(t, ok, "token should be rejected after expiry")
}

func TestResetToken_FailsClosed(t *testing.T) {
	tokens := NewTokens(testSecret)
	valid, err := tokens.IssueReset(3, time.Minute)
	require.NoError(t, err)

	other, err := NewTokens("another-secret-that-is-long-enough!!").IssueReset(3, time.Minute)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"reset_password": 3}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	zeroUser, err := tokens.IssueReset(0, time.Minute)
	require.NoError(t, err)

	cases := map[string]string{
		"empty":          "",
		"garbage":        "not-a-token",
		"truncated":      valid[:len(valid)-4],
		"tampered":       strings.Replace(valid, ".", ".x", 1),
		"wrong secret":   other,
		"missing expiry": noExpiry,
		"zero user":      zeroUser,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			id, ok := tokens.VerifyReset(token)
			assert.False(t, ok)
			assert.Zero(t, id)
		})
	}
}

func TestResetToken_RejectsNoneAlgorithm(t *testing.T) {
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"reset_password": 1,
		"exp":            time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, ok := NewTokens(testSecret).VerifyReset(token)
	assert.False(t, ok)
}

func TestSessionToken_RoundTrip(t *testing.T) {
	tokens := NewTokens(testSecret)

	token, err := tokens.IssueSession(9, "alice", time.Hour)
	require.NoError(t, err)

	id, err := tokens.ParseSession(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), id)
}

func TestSessionToken_NotInterchangeableWithReset(t *testing.T) {
	tokens := NewTokens(testSecret)

	reset, err := tokens.IssueReset(9, time.Hour)
	require.NoError(t, err)
	_, err = tokens.ParseSession(reset)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestSessionToken_Expired(t *testing.T) {
	issuedAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens := NewTokens(testSecret).WithClock(fixedClock(issuedAt))

	token, err := tokens.IssueSession(1, "bob", time.Hour)
	require.NoError(t, err)

	_, err = tokens.WithClock(fixedClock(issuedAt.Add(2 * time.Hour))).ParseSession(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestIssue_RequiresSecret(t *testing.T) {
	tokens := NewTokens("")
	_, err := tokens.IssueSession(1, "x", time.Hour)
	assert.Error(t, err)
	_, err = tokens.IssueReset(1, time.Hour)
	assert.Error(t, err)
}
