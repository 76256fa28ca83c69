package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCache_LocalWhenNoRedis(t *testing.T) {
	c, err := NewCache(CacheConfig{})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = c.Get(ctx, "nope")
	assert.True(t, IsNotFound(err))

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestNewPubSub_LocalBridge(t *testing.T) {
	ps, err := NewPubSub(CacheConfig{LocalPubSubBuf: 8})
	require.NoError(t, err)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "world.events")
	require.NoError(t, err)
	require.NoError(t, ps.Publish(ctx, "world.events", `{"kind":"log"}`))

	select {
	case msg := <-ch:
		assert.Equal(t, "world.events", msg.Channel)
		assert.Equal(t, `{"kind":"log"}`, msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message")
	}

	cancel()
	select {
	case _, open := <-ch:
		assert.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("bridge not closed")
	}
}

func TestIsNotFound(t *testing.T) {
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(context.Canceled))
}
