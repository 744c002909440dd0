package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the storage layer's consumers.
const (
	PostingCreated = "posting_created"
	PostingUpdated = "posting_updated"
	RunStarted     = "run_started"
	RunCompleted   = "run_completed"
	RunFailed      = "run_failed"
)

type Event struct {
	Type      string          `json:"type"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Hub fans events out to SSE subscribers and keeps a lifetime counter
// of everything published (surfaced in the run summary).
type Hub struct {
	mu        sync.Mutex
	clients   map[chan string]struct{}
	published atomic.Int64
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan string]struct{})}
}

func (h *Hub) Subscribe() chan string {
	ch := make(chan string, 10)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan string) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
	close(ch)
}

// Publish builds the event payload and delivers it to every
// subscriber. Slow subscribers are skipped rather than blocked on.
func (h *Hub) Publish(reqID, typ string, data any) {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	b, _ := json.Marshal(Event{
		Type:      typ,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	})
	msg := string(b)

	h.published.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// drop if slow
		}
	}
}

// Published returns the lifetime count of published events.
func (h *Hub) Published() int64 {
	return h.published.Load()
}
