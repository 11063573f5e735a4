package consumer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []*DebeziumMessage
	err    error
}

func (h *recordingHandler) HandleCDCEvent(_ context.Context, event *DebeziumMessage) error {
	h.events = append(h.events, event)
	return h.err
}

func TestDispatchDecodesDebeziumEnvelope(t *testing.T) {
	h := &recordingHandler{}
	value := []byte(`{"payload":{"before":null,"after":{"id":4,"follower_id":1,"following_id":2,"deleted_at":"2024-01-01T00:00:00Z"},"op":"u","ts_ms":17}}`)

	Dispatch(context.Background(), h, value)

	require.Len(t, h.events, 1)
	p := h.events[0].Payload
	assert.Equal(t, OpUpdate, p.Op)
	assert.Nil(t, p.Before)
	require.NotNil(t, p.After)
	assert.Equal(t, uint(2), p.After.FollowingID)
	require.NotNil(t, p.After.DeletedAt)
}

func TestDispatchDropsBadMessages(t *testing.T) {
	h := &recordingHandler{err: errors.New("boom")}

	Dispatch(context.Background(), h, nil)
	Dispatch(context.Background(), h, []byte("{not json"))
	assert.Empty(t, h.events)

	// handler errors are logged, not propagated
	Dispatch(context.Background(), h, []byte(`{"payload":{"op":"r"}}`))
	assert.Len(t, h.events, 1)
}
