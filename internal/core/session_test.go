package core

import (
	"errors"
	"sync"
	"testing"
)

func TestOperationsBeforeActiveFailNotReady(t *testing.T) {
	s := NewSession("s1", 0)

	if err := s.Publish("typing", nil); !errors.Is(err, ErrNotReady) {
		t.Fatalf("publish before active: expected ErrNotReady, got %v", err)
	}
	if err := s.Track("alice", nil); !errors.Is(err, ErrNotReady) {
		t.Fatalf("track before active: expected ErrNotReady, got %v", err)
	}
	if err := s.Leave(); !errors.Is(err, ErrNotReady) {
		t.Fatalf("leave before active: expected ErrNotReady, got %v", err)
	}
}

func TestOperationsAfterCloseFailInvalidState(t *testing.T) {
	hub := NewHub(testLogger())

	s := newActiveSession(t, hub, "s1", "general")
	s.Close()

	if err := s.Publish("typing", nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("publish after close: expected ErrInvalidState, got %v", err)
	}
	if err := s.Track("alice", nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("track after close: expected ErrInvalidState, got %v", err)
	}
	if err := s.Untrack(); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("untrack after close: expected ErrInvalidState, got %v", err)
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	hub := NewHub(testLogger())

	watcher := newActiveSession(t, hub, "w", "general")
	s := newActiveSession(t, hub, "s1", "general")
	if err := s.Track("alice", nil); err != nil {
		t.Fatalf("track: %v", err)
	}
	mustEvent(t, watcher, EventJoin)

	if err := s.Leave(); err != nil {
		t.Fatalf("first leave: %v", err)
	}
	if err := s.Leave(); err != nil {
		t.Fatalf("second leave should be a no-op: %v", err)
	}
	s.Close() // disconnect after leave is also a no-op

	mustEvent(t, watcher, EventLeave)
	mustNoEvent(t, watcher, EventLeave)
}

func TestConcurrentCloseAndLeave(t *testing.T) {
	hub := NewHub(testLogger())

	for j := 0; j < 100; j++ {
		s := newActiveSession(t, hub, "s1", "general")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Leave()
		}()
		go func() {
			defer wg.Done()
			s.Close()
		}()
		wg.Wait()

		if s.State() != StateClosed {
			t.Fatalf("expected closed, got %v", s.State())
		}
	}
}

func TestEventChannelClosesOnTeardown(t *testing.T) {
	hub := NewHub(testLogger())

	s := newActiveSession(t, hub, "s1", "general")
	s.Close()

	for range s.Events() {
		// drain whatever was buffered
	}
}

func TestStateString(t *testing.T) {
	states := map[SessionState]string{
		StateConnecting: "connecting",
		StateActive:     "active",
		StateLeaving:    "leaving",
		StateClosed:     "closed",
	}
	for st, want := range states {
		if st.String() != want {
			t.Fatalf("state %d: expected %q, got %q", st, want, st.String())
		}
	}
}
