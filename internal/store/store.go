package store

import (
	"context"
	"time"
)

// Message is a persisted broadcast. Persistence is fire-and-forget relative
// to real-time delivery: the router never waits on the store.
type Message struct {
	ID        int64
	Room      string
	From      string // publishing identity
	Event     string // broadcast event name
	Payload   string // serialized payload
	CreatedAt time.Time
}

// Filters narrows a history query.
type Filters struct {
	Room     string
	BeforeID *int64 // return messages older than this ID
	Limit    int    // max rows, capped by the implementation
}

// MessageStore handles durable message persistence.
type MessageStore interface {
	// Insert persists a message and returns it with ID and timestamp set.
	Insert(ctx context.Context, msg *Message) (*Message, error)

	// Query retrieves messages matching the filters, newest first.
	Query(ctx context.Context, f Filters) ([]*Message, error)
}

// Store aggregates the storage interfaces.
type Store interface {
	MessageStore

	// Close closes the underlying database connection.
	Close() error
}
