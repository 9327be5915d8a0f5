package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeTrack   = "track"
	InboundTypeUntrack = "untrack"
	InboundTypePublish = "publish"
	InboundTypeLeave   = "leave"

	OutboundTypeReady     = "ready"
	OutboundTypeJoin      = "join"
	OutboundTypeLeave     = "leave"
	OutboundTypeSync      = "sync"
	OutboundTypeBroadcast = "broadcast"
	OutboundTypeError     = "error"
)

// TrackData registers presence metadata for the connection's identity.
type TrackData struct {
	Meta map[string]any `json:"meta,omitempty"`
}

// PublishData is an ephemeral event for the other members of the room.
type PublishData struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Room  string `json:"room,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// ReadyData confirms the subscription reached the active state.
type ReadyData struct {
	SessionID string `json:"session_id"`
	Identity  string `json:"identity"`
	Protocol  int    `json:"protocol"`
}

// PresenceEntry is one present identity in join/sync payloads.
type PresenceEntry struct {
	Meta  map[string]any `json:"meta,omitempty"`
	Since int64          `json:"since"`
}

// JoinData notifies that an identity became present.
type JoinData struct {
	Identity string `json:"identity"`
	PresenceEntry
}

// LeaveData notifies that an identity is no longer present.
type LeaveData struct {
	Identity string `json:"identity"`
}

// SyncData carries the full presence snapshot.
type SyncData struct {
	Presence map[string]PresenceEntry `json:"presence"`
}

// BroadcastData carries an event published by another session.
type BroadcastData struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
	From    string `json:"from"`
	Seq     uint64 `json:"seq"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
