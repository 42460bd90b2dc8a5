package seed

import (
	"context"
	"testing"

	"microblog/internal/models"
	"microblog/internal/testutil"
	"microblog/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	res, err := Seed(ctx, db, Options{NumUsers: 6, NumPosts: 30, FollowsPerUser: 3, RandSeed: 42})
	require.NoError(t, err)
	require.Len(t, res.Users, 6)
	assert.Equal(t, "alice", res.Users[0].Username)
	assert.Equal(t, 30, res.Posts)

	var users, posts, follows int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Follow{}).Count(&follows).Error)
	assert.Equal(t, int64(6), users)
	assert.Equal(t, int64(30), posts)
	assert.Equal(t, int64(res.Follows), follows)

	var selfFollows int64
	require.NoError(t, db.Model(&models.Follow{}).Where("follower_id = followed_id").Count(&selfFollows).Error)
	assert.Zero(t, selfFollows)

	for _, u := range res.Users {
		assert.NoError(t, validation.ValidateUsername(u.Username), u.Username)
		assert.True(t, u.CheckPassword(DemoPassword))
	}

	var stored []models.Post
	require.NoError(t, db.Find(&stored).Error)
	for _, p := range stored {
		assert.NoError(t, validation.ValidatePostBody(p.Body))
	}
}

func TestSeed_Clean(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	ctx := context.Background()

	_, err := Seed(ctx, db, Options{NumUsers: 3, NumPosts: 5, FollowsPerUser: 1, RandSeed: 1})
	require.NoError(t, err)

	_, err = Seed(ctx, db, Options{NumUsers: 2, NumPosts: 4, ShouldClean: true, RandSeed: 2})
	require.NoError(t, err)

	var users, posts int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.Equal(t, int64(2), users)
	assert.Equal(t, int64(4), posts)
}

func TestSanitizeUsername(t *testing.T) {
	assert.Equal(t, "John_Doe.1", sanitizeUsername("John_Doe.1"))
	assert.Equal(t, "JohnDoe", sanitizeUsername("John Doe!"))
	assert.Equal(t, "user", sanitizeUsername("ü ñ"))
	assert.Equal(t, "abc", truncate("abcdef", 3))
}
