package core

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newActiveSession(t *testing.T, hub *Hub, id, room string) *Session {
	t.Helper()

	s := NewSession(id, 128)
	if err := hub.Subscribe(s, room); err != nil {
		t.Fatalf("subscribe %s to %s: %v", id, room, err)
	}
	return s
}

// mustEvent waits for the next event of the given kind, skipping others.
func mustEvent(t *testing.T, s *Session, kind EventKind) Event {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				t.Fatalf("event channel closed while waiting for kind %d", kind)
			}
			if ev.Kind == kind {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event kind %d not received", kind)
		}
	}
}

// mustNoEvent asserts that no event of the given kind arrives within the
// window. Other kinds are ignored.
func mustNoEvent(t *testing.T, s *Session, kind EventKind) {
	t.Helper()

	timeout := time.After(100 * time.Millisecond)
	for {
		select {
		case ev, ok := <-s.Events():
			if !ok {
				return
			}
			if ev.Kind == kind {
				t.Fatalf("unexpected event of kind %d: %+v", kind, ev)
			}
		case <-timeout:
			return
		}
	}
}
