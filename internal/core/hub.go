package core

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Hub is the room registry. It owns every live room for the lifetime of the
// process; rooms are created on first subscribe and torn down when the last
// member leaves. The hub lock guards only the registry map — room state has
// its own per-room lock, so traffic in one room never serializes another.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*Room
	log   *zerolog.Logger
}

// NewHub constructs an empty registry.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[string]*Room),
		log:   logger,
	}
}

// Subscribe registers a connecting session with the named room, creating the
// room if needed. It returns only once the session is active; a non-nil
// error means the session never joined.
func (h *Hub) Subscribe(s *Session, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateActive:
		return ErrAlreadySubscribed
	case StateLeaving, StateClosed:
		return ErrInvalidState
	}

	// A subscribe can race with the teardown of an emptied room: addSession
	// refuses defunct rooms, and the retry lands on a fresh registry entry.
	for {
		room := h.getOrCreateRoom(name)
		if room.addSession(s) {
			s.hub = h
			s.room = room
			s.state = StateActive
			h.log.Debug().Str("session_id", s.ID).Str("room", name).Msg("session subscribed")
			return nil
		}
	}
}

// getOrCreateRoom is idempotent: concurrent calls for one name observe the
// same instance.
func (h *Hub) getOrCreateRoom(name string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()
	if room, ok := h.rooms[name]; ok {
		return room
	}
	room := newRoom(name, h.log)
	h.rooms[name] = room
	h.log.Debug().Str("room", name).Msg("room created")
	return room
}

// removeRoomIfEmpty drops the registry entry iff the room has no members and
// no presence. The room is marked defunct under its own lock so that a
// concurrent subscribe either lands before the check or retries against a
// fresh room — a subscriber is never silently lost.
func (h *Hub) removeRoomIfEmpty(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[name]
	if !ok {
		return
	}

	room.mu.Lock()
	empty := room.emptyLocked()
	if empty {
		room.defunct = true
	}
	room.mu.Unlock()

	if empty {
		delete(h.rooms, name)
		h.log.Debug().Str("room", name).Msg("room removed")
	}
}

// GetRoom looks up a live room. The not-found error is advisory: the room
// may legitimately come back into existence on the next subscribe.
func (h *Hub) GetRoom(name string) (*Room, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[name]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// RoomNames returns the names of all live rooms, sorted.
func (h *Hub) RoomNames() []string {
	h.mu.Lock()
	names := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		names = append(names, name)
	}
	h.mu.Unlock()
	sort.Strings(names)
	return names
}
