package core

import (
	"errors"
	"fmt"
)

// Error codes for domain errors.
const (
	ErrCodeNotReady     = "not_ready"
	ErrCodeInvalidState = "invalid_state"
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeDelivery     = "delivery_failed"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
)

var (
	// ErrNotReady rejects operations attempted before the session is active.
	ErrNotReady = errors.New("session not ready")
	// ErrInvalidState rejects operations on a closed session.
	ErrInvalidState = errors.New("session closed")
	// ErrRoomNotFound is returned by lookups referencing a room with no registry entry.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNoIdentity is returned by untrack when the session never tracked an identity.
	ErrNoIdentity = errors.New("no identity tracked")
	// ErrAlreadySubscribed rejects subscribing a session that is already active.
	ErrAlreadySubscribed = errors.New("already subscribed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

// invariant panics when an internal consistency check fails. Membership or
// presence corruption is a programming error, not an operational one.
func invariant(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("core: invariant violation: "+format, args...))
	}
}
