package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"microblog/internal/auth"
	"microblog/internal/mail"
	"microblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenFromLink extracts the token from the reset link in a mail body.
func tokenFromLink(t *testing.T, body string) string {
	t.Helper()
	const marker = "/reset_password/"
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0, "no reset link in %q", body)
	rest := body[i+len(marker):]
	if end := strings.IndexAny(rest, " \n\r\t\"<"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func TestPasswordService_RequestReset(t *testing.T) {
	s := newServices(t, 0)
	ctx := context.Background()
	alice := s.register(t, "alice", "a@x.com")

	require.NoError(t, s.password.RequestReset(ctx, "a@x.com"))

	sent := s.mailer.messages()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, mail.ResetPasswordSubject, msg.Subject)
	assert.Equal(t, "[Microblog] Reset Your Password", msg.Subject)
	assert.Equal(t, []string{"a@x.com"}, msg.Recipients)
	assert.Equal(t, "no-reply@microblog.test", msg.Sender)
	assert.Contains(t, msg.TextBody, "http://microblog.test/reset_password/")
	assert.NotEmpty(t, msg.HTMLBody)

	user := s.password.VerifyResetPasswordToken(ctx, tokenFromLink(t, msg.TextBody))
	require.NotNil(t, user)
	assert.Equal(t, alice.ID, user.ID)
}

func TestPasswordService_RequestResetUnknownEmailIsSilent(t *testing.T) {
	s := newServices(t, 0)
	require.NoError(t, s.password.RequestReset(context.Background(), "ghost@x.com"))
	assert.Empty(t, s.mailer.messages())

	err := s.password.RequestReset(context.Background(), "not-an-email")
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestPasswordService_RequestResetMailFailure(t *testing.T) {
	s := newServices(t, 0)
	s.register(t, "alice", "a@x.com")
	s.mailer.err = errors.New("smtp down")

	err := s.password.RequestReset(context.Background(), "a@x.com")
	assert.True(t, models.HasCode(err, models.CodeInternal))
}

func TestPasswordService_VerifyResetPasswordToken(t *testing.T) {
	s := newServices(t, 0)
	ctx := context.Background()
	alice := s.register(t, "alice", "a@x.com")

	valid, err := s.tokens.IssueReset(alice.ID, time.Minute)
	require.NoError(t, err)

	expired, err := auth.NewTokens(testSecret).
		WithClock(func() time.Time { return time.Now().Add(-time.Hour) }).
		IssueReset(alice.ID, time.Minute)
	require.NoError(t, err)

	forged, err := auth.NewTokens("some-other-secret-of-enough-length").IssueReset(alice.ID, time.Minute)
	require.NoError(t, err)

	unknown, err := s.tokens.IssueReset(9999, time.Minute)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	require.Len(t, parts, 3)
	flipped := "A"
	if parts[2][0] == 'A' {
		flipped = "B"
	}
	tampered := parts[0] + "." + parts[1] + "." + flipped + parts[2][1:]

	require.NotNil(t, s.password.VerifyResetPasswordToken(ctx, valid))
	for name, token := range map[string]string{
		"expired":      expired,
		"forged":       forged,
		"unknown user": unknown,
		"garbage":      "not.a.token",
		"empty":        "",
		"tampered":     tampered,
	} {
		assert.Nil(t, s.password.VerifyResetPasswordToken(ctx, token), name)
	}
}

func TestPasswordService_ResetPassword(t *testing.T) {
	s := newServices(t, 0)
	ctx := context.Background()
	alice := s.register(t, "alice", "a@x.com")

	token, err := s.tokens.IssueReset(alice.ID, time.Minute)
	require.NoError(t, err)

	err = s.password.ResetPassword(ctx, ResetPasswordInput{Token: token, Password: "new-secret", Password2: "mismatch!"})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	require.NoError(t, s.password.ResetPassword(ctx, ResetPasswordInput{Token: token, Password: "new-secret", Password2: "new-secret"}))

	_, err = s.users.Authenticate(ctx, LoginInput{Username: "alice", Password: "secret123"})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
	_, err = s.users.Authenticate(ctx, LoginInput{Username: "alice", Password: "new-secret"})
	require.NoError(t, err)

	err = s.password.ResetPassword(ctx, ResetPasswordInput{Token: "bogus", Password: "new-secret", Password2: "new-secret"})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}
