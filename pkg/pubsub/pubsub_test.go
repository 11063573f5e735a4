package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserChannelRoundTrip(t *testing.T) {
	ch := UserChannel(StreamNotifications, 42)
	assert.Equal(t, "notis:user:42", ch)

	stream, id, err := ParseUserChannel(ch)
	require.NoError(t, err)
	assert.Equal(t, StreamNotifications, stream)
	assert.Equal(t, uint(42), id)

	for _, bad := range []string{"notis:42", "notis:room:1", "notis:user:abc", "notis:user:0", ":user:1"} {
		_, _, err := ParseUserChannel(bad)
		assert.Error(t, err, bad)
	}
}

func TestKafkaTopicMapping(t *testing.T) {
	topic, key, err := channelToTopicAndKey("", "notis:user:7")
	require.NoError(t, err)
	assert.Equal(t, "yaycha-notis", topic)
	assert.Equal(t, "7", key)

	topic, err = patternToTopic("social", UserPattern(StreamNotifications))
	require.NoError(t, err)
	assert.Equal(t, "social-notis", topic)

	_, err = patternToTopic("", "notis:user:7")
	assert.Error(t, err)
}

func TestMemoryPubSubDeliversMatchingChannels(t *testing.T) {
	ps := NewMemoryPubSub()
	defer ps.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := ps.SubscribePattern(ctx, UserPattern(StreamNotifications))
	require.NoError(t, err)

	evt, err := NewEvent(EventNotificationCreated, map[string]int{"id": 1})
	require.NoError(t, err)
	require.NoError(t, ps.Publish(ctx, UserChannel(StreamNotifications, 5), evt))

	other, err := NewEvent("other", nil)
	require.NoError(t, err)
	require.NoError(t, ps.Publish(ctx, "chat:user:5", other))

	select {
	case got := <-events:
		assert.Equal(t, EventNotificationCreated, got.Type)
		assert.Equal(t, "notis:user:5", got.Channel)
		var payload map[string]int
		require.NoError(t, got.UnmarshalPayload(&payload))
		assert.Equal(t, 1, payload["id"])
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case got := <-events:
		t.Fatalf("unexpected event %q", got.Type)
	default:
	}
}

func TestMemoryPubSubClosesOnCancel(t *testing.T) {
	ps := NewMemoryPubSub()
	ctx, cancel := context.WithCancel(context.Background())

	events, err := ps.SubscribePattern(ctx, "notis:user:*")
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription not closed")
	}

	require.NoError(t, ps.Close())
	evt, _ := NewEvent("x", nil)
	assert.ErrorIs(t, ps.Publish(context.Background(), "notis:user:1", evt), ErrClosed)
}

func TestNewPubSubDrivers(t *testing.T) {
	ps, err := NewPubSub(Config{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryPubSub{}, ps)

	_, err = NewPubSub(Config{Driver: "nats"})
	assert.Error(t, err)
}
