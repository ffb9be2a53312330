package broadcast

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/linebid/linebid/internal/models"
)

func event(eventType string, lineNumber int) Event {
	return Event{
		Type:       eventType,
		BidLineID:  uint(lineNumber),
		LineNumber: lineNumber,
		Status:     models.StatusTaken,
		Actor:      "u-1",
		OccurredAt: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestHub_DeliversToSubscribers(t *testing.T) {
	hub := NewHub()
	first := hub.Subscribe()
	second := hub.Subscribe()
	defer hub.Unsubscribe(first)
	defer hub.Unsubscribe(second)

	if err := hub.Publish(event("claimed", 7)); err != nil {
		t.Fatalf("Publish() error: %v", err)
	}

	for name, ch := range map[string]chan Event{"first": first, "second": second} {
		select {
		case got := <-ch:
			if got.LineNumber != 7 || got.Type != "claimed" {
				t.Errorf("%s received %+v", name, got)
			}
		default:
			t.Errorf("%s subscriber received nothing", name)
		}
	}
}

func TestHub_UnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	hub.Unsubscribe(ch)

	if _, open := <-ch; open {
		t.Error("channel still open after Unsubscribe")
	}
	// Double unsubscribe must not panic.
	hub.Unsubscribe(ch)
	if err := hub.Publish(event("released", 1)); err != nil {
		t.Fatalf("Publish() after unsubscribe error: %v", err)
	}
}

func TestHub_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe()
	defer hub.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Publish(event("claimed", i))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
}

// failingSink always errors, to prove Publish swallows sink failures.
type failingSink struct{ calls int }

func (s *failingSink) Name() string { return "failing" }

func (s *failingSink) Deliver(Event) error {
	s.calls++
	return errors.New("sink down")
}

func TestHub_SinkFailureIsSwallowed(t *testing.T) {
	hub := NewHub()
	sink := &failingSink{}
	hub.AddSink(sink)

	if err := hub.Publish(event("blacked_out", 3)); err != nil {
		t.Fatalf("Publish() error = %v, want nil despite sink failure", err)
	}
	if sink.calls != 1 {
		t.Errorf("sink calls = %d, want 1", sink.calls)
	}
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		eventType string
		want      string
	}{
		{"claimed", "Line 5 claimed by u-1"},
		{"assigned", "Line 5 assigned to u-1"},
		{"released", "Line 5 released (by u-1)"},
		{"blacked_out", "Line 5 blacked out by u-1"},
	}
	for _, tt := range tests {
		if got := FormatEvent(event(tt.eventType, 5)); got != tt.want {
			t.Errorf("FormatEvent(%s) = %q, want %q", tt.eventType, got, tt.want)
		}
	}

	if got := FormatEvent(event("custom", 5)); !strings.Contains(got, "custom") {
		t.Errorf("FormatEvent(custom) = %q, want the type named", got)
	}
}
