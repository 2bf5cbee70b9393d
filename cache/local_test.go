package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv(t *testing.T, ch <-chan *Message) *Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return nil
	}
}

func TestLocalPubSub_Basic(t *testing.T) {
	ps := NewLocalPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "test-channel")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, ps.Publish(ctx, "test-channel", "hello"))
	msg := recv(t, ch)
	assert.Equal(t, "test-channel", msg.Channel)
	assert.Equal(t, "hello", msg.Payload)
}

func TestLocalPubSub_CancelClosesChannel(t *testing.T) {
	ps := NewLocalPubSub(16)
	ctx := context.Background()

	ch, cancel, err := ps.Subscribe(ctx, "ch")
	require.NoError(t, err)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after cancel")
	assert.NoError(t, ps.Publish(ctx, "ch", "msg"))
}

func TestLocalPubSub_ContextCancel(t *testing.T) {
	ps := NewLocalPubSub(16)
	ctx, cancel := context.WithCancel(context.Background())

	ch, _, err := ps.Subscribe(ctx, "ch")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancel")
	}
}

func TestLocalPubSub_MultipleSubscribers(t *testing.T) {
	ps := NewLocalPubSub(16)
	ctx := context.Background()

	ch1, cancel1, _ := ps.Subscribe(ctx, "broadcast")
	ch2, cancel2, _ := ps.Subscribe(ctx, "broadcast")
	defer cancel1()
	defer cancel2()

	require.NoError(t, ps.Publish(ctx, "broadcast", "world"))
	assert.Equal(t, "world", recv(t, ch1).Payload)
	assert.Equal(t, "world", recv(t, ch2).Payload)
}

func TestLocalPubSub_ChannelsAreIsolated(t *testing.T) {
	ps := NewLocalPubSub(16)
	ctx := context.Background()

	ch, cancel, _ := ps.Subscribe(ctx, "a")
	defer cancel()
	require.NoError(t, ps.Publish(ctx, "b", "nope"))
	require.NoError(t, ps.Publish(ctx, "a", "yes"))
	assert.Equal(t, "yes", recv(t, ch).Payload)
}

func TestLocalPubSub_FullBufferDrops(t *testing.T) {
	ps := NewLocalPubSub(1)
	ctx := context.Background()

	_, cancel, _ := ps.Subscribe(ctx, "x")
	defer cancel()
	require.NoError(t, ps.Publish(ctx, "x", "1"))
	require.NoError(t, ps.Publish(ctx, "x", "2"))
	assert.Equal(t, int64(1), ps.Dropped())
}

func TestLocalPubSub_Close(t *testing.T) {
	ps := NewLocalPubSub(4)
	ch, _, _ := ps.Subscribe(context.Background(), "x", "y")
	require.NoError(t, ps.Close())
	_, ok := <-ch
	assert.False(t, ok)
}

func TestNewPubSub_DefaultsToLocal(t *testing.T) {
	ps, err := NewPubSub(Config{})
	require.NoError(t, err)
	_, ok := ps.(*LocalPubSub)
	assert.True(t, ok)
}
