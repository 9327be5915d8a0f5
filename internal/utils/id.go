package utils

import "github.com/google/uuid"

// NewID returns a unique identifier for a connection/session.
func NewID() string {
	return uuid.NewString()
}

// NewGuestIdentity returns a throwaway presence identity for unauthenticated
// connections.
func NewGuestIdentity() string {
	return "guest-" + uuid.NewString()[:8]
}
