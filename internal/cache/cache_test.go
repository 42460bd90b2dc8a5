package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedThing struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(mr.Addr())
	require.NoError(t, err)
	SetClient(c)
	t.Cleanup(func() { _ = Close() })
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedThing) func() error {
		return func() error {
			calls++
			*dest = cachedThing{ID: 1, Name: "alice"}
			return nil
		}
	}

	var first cachedThing
	require.NoError(t, Aside(ctx, UserKey(1), &first, UserTTL, fetch(&first)))
	assert.Equal(t, "alice", first.Name)
	assert.True(t, mr.Exists("user:1"))

	var second cachedThing
	require.NoError(t, Aside(ctx, UserKey(1), &second, UserTTL, fetch(&second)))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls, "second read must be served from Redis")

	InvalidateUser(ctx, 1)
	assert.False(t, mr.Exists("user:1"))
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := setupMiniredis(t)

	var dest cachedThing
	err := Aside(context.Background(), UserKey(2), &dest, UserTTL, func() error {
		return errors.New("not found")
	})
	require.Error(t, err)
	assert.False(t, mr.Exists("user:2"))
}

func TestAside_FallsBackWhenRedisDown(t *testing.T) {
	mr := setupMiniredis(t)
	mr.Close()

	var dest cachedThing
	err := Aside(context.Background(), UserKey(3), &dest, UserTTL, func() error {
		dest = cachedThing{ID: 3}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, uint(3), dest.ID)
}

func TestHelpers_NoClient(t *testing.T) {
	SetClient(nil)

	found, err := GetJSON(context.Background(), "k", &cachedThing{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetJSON(context.Background(), "k", cachedThing{}, UserTTL))
	Invalidate(context.Background(), "k")
}

func TestNewClient_URL(t *testing.T) {
	c, err := NewClient("redis://:pw@localhost:6380/2")
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.Equal(t, "localhost:6380", c.Options().Addr)
	assert.Equal(t, 2, c.Options().DB)
	assert.Equal(t, "pw", c.Options().Password)

	_, err = NewClient("redis://%zz")
	assert.Error(t, err)
}
