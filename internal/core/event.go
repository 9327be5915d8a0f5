package core

import "time"

// EventKind is a notification the core emits to sessions. The set is closed:
// transports dispatch on it exhaustively instead of matching on event names.
type EventKind int

const (
	// EventJoin notifies room members that an identity became present.
	EventJoin EventKind = iota
	// EventLeave notifies room members that an identity is no longer present.
	EventLeave
	// EventSync delivers the full presence snapshot to a session after its
	// first successful track.
	EventSync
	// EventBroadcast carries an ephemeral event published by another session.
	EventBroadcast
	// EventError notifies a session about a domain error.
	EventError
)

// PresenceInfo is the per-identity payload carried by join and sync events.
type PresenceInfo struct {
	Meta  map[string]any
	Since time.Time
}

// Event is sent to sessions to describe what happened in a room.
type Event struct {
	Kind     EventKind
	Room     string
	Identity string                  // join/leave: the transitioning identity
	Info     PresenceInfo            // join: metadata of the joining identity
	Presence map[string]PresenceInfo // sync: snapshot of all present identities
	Name     string                  // broadcast: caller-supplied event name
	Payload  any                     // broadcast: opaque payload
	From     string                  // broadcast: publishing session ID
	Seq      uint64                  // broadcast: per-room publish sequence
	Error    *CoreError
}
