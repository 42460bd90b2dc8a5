package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"microblog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_Register(t *testing.T) {
	s := newServices(t, 0)
	ctx := context.Background()

	alice := s.register(t, "alice", "a@x.com")
	assert.NotZero(t, alice.ID)
	assert.Nil(t, alice.PasswordHash, "hash must not leave the service")

	stored, err := s.users.userRepo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.PasswordHash)
	assert.NotEqual(t, "secret123", *stored.PasswordHash)
	assert.True(t, stored.CheckPassword("secret123"))

	tests := []struct {
		name    string
		in      RegisterInput
		code    string
		message string
	}{
		{
			name:    "username taken",
			in:      RegisterInput{Username: "alice", Email: "other@x.com", Password: "secret123", Password2: "secret123"},
			code:    models.CodeConflict,
			message: "Please use a different username.",
		},
		{
			name:    "email taken",
			in:      RegisterInput{Username: "alice2", Email: "a@x.com", Password: "secret123", Password2: "secret123"},
			code:    models.CodeConflict,
			message: "Please use a different email address.",
		},
		{
			name: "passwords differ",
			in:   RegisterInput{Username: "bob", Email: "b@x.com", Password: "secret123", Password2: "secret124"},
			code: models.CodeValidation,
		},
		{
			name: "bad email",
			in:   RegisterInput{Username: "bob", Email: "bob", Password: "secret123", Password2: "secret123"},
			code: models.CodeValidation,
		},
		{
			name: "short password",
			in:   RegisterInput{Username: "bob", Email: "b@x.com", Password: "short", Password2: "short"},
			code: models.CodeValidation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.users.Register(ctx, tt.in)
			require.Error(t, err)
			assert.True(t, models.HasCode(err, tt.code), err.Error())
			if tt.message != "" {
				assert.Equal(t, tt.message, err.Error())
			}
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	s := newServices(t, 0)
	ctx := context.Background()
	alice := s.register(t, "alice", "a@x.com")

	res, err := s.users.Authenticate(ctx, LoginInput{Username: "alice", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, alice.ID, res.User.ID)
	assert.Nil(t, res.User.PasswordHash)

	id, err := s.tokens.ParseSession(res.Token)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, id)

	_, err = s.users.Authenticate(ctx, LoginInput{Username: "alice", Password: "wrong-password"})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))

	_, err = s.users.Authenticate(ctx, LoginInput{Username: "nobody", Password: "secret123"})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))
}

func TestUserService_GetProfile(t *testing.T) {
	s := newServices(t, 0)
	ctx := context.Background()
	alice := s.register(t, "alice", "a@x.com")
	bob := s.register(t, "bob", "b@x.com")

	_, err := s.follows.Follow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	profile, err := s.users.GetProfile(ctx, alice.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, profile.User.ID)
	assert.Nil(t, profile.User.PasswordHash)
	assert.Equal(t, int64(1), profile.FollowerCount)
	assert.Equal(t, int64(0), profile.FollowingCount)
	assert.True(t, profile.IsFollowing)
	assert.False(t, profile.IsSelf)

	self, err := s.users.GetProfile(ctx, alice.ID, "alice")
	require.NoError(t, err)
	assert.True(t, self.IsSelf)
	assert.False(t, self.IsFollowing)
	assert.Equal(t, int64(1), self.FollowingCount)

	anon, err := s.users.GetProfile(ctx, 0, "bob")
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)

	_, err = s.users.GetProfile(ctx, alice.ID, "nobody")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUserService_UpdateProfile(t *testing.T) {
	s := newServices(t, 0)
	ctx := context.Background()
	alice := s.register(t, "alice", "a@x.com")
	s.register(t, "bob", "b@x.com")

	updated, err := s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Username: "alice", AboutMe: "hello there"})
	require.NoError(t, err)
	assert.Equal(t, "hello there", updated.AboutMe)

	updated, err = s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Username: "alicia", AboutMe: "renamed"})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)

	_, err = s.users.UpdateProfile(ctx, UpdateProfileInput{UserID: alice.ID, Username: "bob"})
	require.Error(t, err)
	assert.Equal(t, "Please use a different username.", err.Error())

	invalid := []UpdateProfileInput{
		{UserID: alice.ID, Username: ""},
		{UserID: alice.ID, Username: "a b"},
		{UserID: alice.ID, Username: strings.Repeat("a", models.MaxUsernameLen+1)},
		{UserID: alice.ID, Username: "alicia", AboutMe: strings.Repeat("x", models.MaxAboutMeLen+1)},
	}
	for _, in := range invalid {
		_, err = s.users.UpdateProfile(ctx, in)
		assert.True(t, models.HasCode(err, models.CodeValidation), "%+v", in)
	}

	got, err := s.users.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.AboutMe, "rejected updates leave the profile alone")
}

func TestUserService_Touch(t *testing.T) {
	s := newServices(t, 0)
	ctx := context.Background()
	alice := s.register(t, "alice", "a@x.com")

	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.users.now = func() time.Time { return fixed }
	require.NoError(t, s.users.Touch(ctx, alice.ID))

	got, err := s.users.GetUser(ctx, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastSeen)
	assert.True(t, fixed.Equal(*got.LastSeen))

	assert.True(t, models.HasCode(s.users.Touch(ctx, 9999), models.CodeNotFound))
}
