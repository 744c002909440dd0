package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesSubscribers(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	h.Publish("req-1", PostingCreated, map[string]any{"id": "I001"})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(<-ch), &e))
	assert.Equal(t, PostingCreated, e.Type)
	assert.Equal(t, "req-1", e.RequestID)
	assert.Equal(t, int64(1), h.Published())
}

func TestPublishCountsEvenWithoutSubscribers(t *testing.T) {
	h := NewHub()
	h.Publish("", RunStarted, nil)
	h.Publish("", RunCompleted, nil)
	assert.Equal(t, int64(2), h.Published())
}

func TestSlowSubscriberIsSkipped(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	// fill the buffer and then some; Publish must not block
	for i := 0; i < 20; i++ {
		h.Publish("", PostingUpdated, nil)
	}
	assert.Equal(t, int64(20), h.Published())
}
