package core

import (
	"sync"
	"sync/atomic"
)

// SessionState is the lifecycle state of a subscription session.
type SessionState int

const (
	// StateConnecting is the initial state, before subscribe completes.
	StateConnecting SessionState = iota
	// StateActive allows track, untrack, publish and event delivery.
	StateActive
	// StateLeaving means teardown side effects are being applied.
	StateLeaving
	// StateClosed is terminal; every operation fails.
	StateClosed
)

func (st SessionState) String() string {
	switch st {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateLeaving:
		return "leaving"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

const defaultEventBuffer = 32

// Session is one connected client's membership handle within a room. A
// session subscribes to at most one room; clients wanting several rooms open
// several sessions.
type Session struct {
	ID string

	mu    sync.Mutex
	state SessionState
	hub   *Hub
	room  *Room

	events chan Event
	misses atomic.Uint64
}

// NewSession constructs a session in the connecting state. buffer sizes the
// outbound event channel; zero picks the default.
func NewSession(id string, buffer int) *Session {
	if buffer <= 0 {
		buffer = defaultEventBuffer
	}
	return &Session{
		ID:     id,
		events: make(chan Event, buffer),
	}
}

// Events exposes the outbound event stream. The channel is closed once the
// session reaches the closed state.
func (s *Session) Events() <-chan Event {
	return s.events
}

// State returns the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RoomName returns the subscribed room's name, or "" before subscribe.
func (s *Session) RoomName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return ""
	}
	return s.room.Name
}

// Misses reports how many events were dropped because this session's
// outbound buffer was full.
func (s *Session) Misses() uint64 {
	return s.misses.Load()
}

// Track registers a presence identity for this session in its room. Calling
// it again with the same identity refreshes the metadata; a different
// identity implicitly untracks the previous one.
func (s *Session) Track(identity string, meta map[string]any) error {
	room, err := s.activeRoom()
	if err != nil {
		return err
	}
	room.track(s, identity, meta)
	return nil
}

// Untrack withdraws this session's presence contribution.
func (s *Session) Untrack() error {
	room, err := s.activeRoom()
	if err != nil {
		return err
	}
	return room.untrack(s)
}

// Publish fans an ephemeral event out to every other member of the room.
// The publisher never receives its own event. Zero recipients is a success.
func (s *Session) Publish(name string, payload any) error {
	room, err := s.activeRoom()
	if err != nil {
		return err
	}
	room.publish(s, name, payload)
	return nil
}

// Leave unsubscribes the session from its room, applying untrack side
// effects first. Calling it again after a leave has begun is a no-op.
func (s *Session) Leave() error {
	s.mu.Lock()
	switch s.state {
	case StateConnecting:
		s.mu.Unlock()
		return ErrNotReady
	case StateLeaving, StateClosed:
		s.mu.Unlock()
		return nil
	}
	room, hub := s.room, s.hub
	s.state = StateLeaving
	s.mu.Unlock()

	s.teardown(room, hub)
	return nil
}

// Close handles a transport-level disconnect. Unlike Leave it is valid in
// every state and never fails; a second close is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateLeaving || s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	room, hub := s.room, s.hub
	s.state = StateLeaving
	s.mu.Unlock()

	s.teardown(room, hub)
}

// teardown applies unsubscribe side effects and moves the session to closed.
// room and hub are nil when the session never reached active.
func (s *Session) teardown(room *Room, hub *Hub) {
	if room != nil {
		room.removeSession(s)
		hub.removeRoomIfEmpty(room.Name)
	}

	s.mu.Lock()
	s.state = StateClosed
	close(s.events)
	s.mu.Unlock()
}

// activeRoom returns the subscribed room iff the session is active.
func (s *Session) activeRoom() (*Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateConnecting:
		return nil, ErrNotReady
	case StateLeaving, StateClosed:
		return nil, ErrInvalidState
	}
	return s.room, nil
}

// offer attempts a non-blocking delivery into the session's event buffer.
// Called with the room lock held, which orders events from a single
// publisher. Only sessions still in the room's subscriber set are offered
// events, so the channel cannot be closed underneath the send.
func (s *Session) offer(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}
