// Package broadcast fans bid-line state changes out to subscribers:
// SSE streams for connected browsers plus optional chat-platform sinks.
// Publishing is always best-effort; a delivery failure never rolls back
// the state transition that produced the event.
package broadcast

import (
	"log"
	"sync"
	"time"

	"github.com/linebid/linebid/internal/models"
)

// Event describes one bid-line state change.
type Event struct {
	Type       string            `json:"type"` // "claimed", "assigned", "released", "blacked_out"
	BidLineID  uint              `json:"bidLineId"`
	LineNumber int               `json:"lineNumber"`
	Status     models.LineStatus `json:"status"`
	Actor      string            `json:"actor"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Broadcaster receives state-change events for fan-out.
type Broadcaster interface {
	Publish(event Event) error
}

// Sink is a named delivery target attached to a Hub.
type Sink interface {
	Name() string
	Deliver(event Event) error
}

// Hub fans events out to SSE subscribers and registered sinks.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan Event]struct{}
	sinks       []Sink
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subscribers: make(map[chan Event]struct{})}
}

// AddSink registers a delivery target. Not safe to call after serving
// traffic; wire sinks at startup.
func (h *Hub) AddSink(s Sink) {
	h.sinks = append(h.sinks, s)
}

// Subscribe registers a new event channel. The caller must Unsubscribe
// when done. A slow subscriber drops events rather than blocking the
// publisher.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	if _, ok := h.subscribers[ch]; ok {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish delivers the event to every subscriber and sink. Sink
// failures are logged and swallowed; Publish never returns an error
// from a delivery problem.
func (h *Hub) Publish(event Event) error {
	h.mu.Lock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is not keeping up; drop.
		}
	}
	sinks := h.sinks
	h.mu.Unlock()

	for _, s := range sinks {
		if err := s.Deliver(event); err != nil {
			log.Printf("broadcast: %s sink: %v", s.Name(), err)
		}
	}
	return nil
}
