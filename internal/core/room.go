package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// subscriber is the per-session state a room keeps for each member.
type subscriber struct {
	identity string // identity this session currently tracks, "" if none
	synced   bool   // presence snapshot already delivered
}

// Room groups sessions subscribed to the same channel. It owns the presence
// set and the broadcast sequence counter. All state is guarded by mu; rooms
// are independent of each other, so unrelated rooms never contend.
type Room struct {
	Name string

	mu          sync.Mutex
	subscribers map[*Session]*subscriber
	presence    *presenceSet
	seq         uint64
	defunct     bool // set under the registry lock when the room is torn down

	log *zerolog.Logger
}

func newRoom(name string, logger *zerolog.Logger) *Room {
	return &Room{
		Name:        name,
		subscribers: make(map[*Session]*subscriber),
		presence:    newPresenceSet(),
		log:         logger,
	}
}

// addSession inserts a session into the room. It returns false if the room
// has been torn down, in which case the caller must retry against a fresh
// registry entry.
func (r *Room) addSession(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defunct {
		return false
	}
	r.subscribers[s] = &subscriber{}
	return true
}

// removeSession drops a session from the room, untracking any identity it
// contributed to. Safe to call for sessions that already vanished.
func (r *Room) removeSession(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subscribers[s]
	if !ok {
		return
	}
	delete(r.subscribers, s)
	if sub.identity != "" {
		r.untrackLocked(s, sub.identity)
	}
}

// track registers s as a contributor to identity. A transition to present
// emits a join event to every member including s. The first successful track
// after subscribe additionally delivers a sync snapshot to s alone.
func (r *Room) track(s *Session, identity string, meta map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subscribers[s]
	if !ok {
		// Session vanished mid-flight; recorded as a miss, not an error.
		r.log.Debug().Str("session_id", s.ID).Str("room", r.Name).Msg("track from vanished session")
		return
	}

	// A session contributes to at most one identity per room. Switching
	// identities untracks the previous one first.
	if sub.identity != "" && sub.identity != identity {
		r.untrackLocked(s, sub.identity)
	}
	sub.identity = identity

	if r.presence.track(s, identity, meta) {
		r.deliverLocked(Event{
			Kind:     EventJoin,
			Room:     r.Name,
			Identity: identity,
			Info:     r.presence.info(identity),
		}, nil)
	}

	if !sub.synced {
		sub.synced = true
		r.sendLocked(s, Event{
			Kind:     EventSync,
			Room:     r.Name,
			Presence: r.presence.snapshot(),
		})
	}
}

// untrack removes s's contribution to its bound identity. Returns
// ErrNoIdentity when the session is not tracking anything.
func (r *Room) untrack(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subscribers[s]
	if !ok {
		r.log.Debug().Str("session_id", s.ID).Str("room", r.Name).Msg("untrack from vanished session")
		return nil
	}
	if sub.identity == "" {
		return ErrNoIdentity
	}
	identity := sub.identity
	sub.identity = ""
	r.untrackLocked(s, identity)
	return nil
}

// untrackLocked removes the contribution and emits a leave event on the last
// contributor. The caller holds r.mu and has already cleared or is about to
// clear the subscriber's identity binding.
func (r *Room) untrackLocked(s *Session, identity string) {
	if !r.presence.untrack(s, identity) {
		return
	}
	r.deliverLocked(Event{
		Kind:     EventLeave,
		Room:     r.Name,
		Identity: identity,
	}, nil)
}

// publish fans an ephemeral event out to every member except the publisher.
// An empty room is not an error; a publish from a vanished session is a no-op.
func (r *Room) publish(s *Session, name string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subscribers[s]; !ok {
		r.log.Debug().Str("session_id", s.ID).Str("room", r.Name).Msg("publish from vanished session")
		return
	}

	r.seq++
	r.deliverLocked(Event{
		Kind:    EventBroadcast,
		Room:    r.Name,
		Name:    name,
		Payload: payload,
		From:    s.ID,
		Seq:     r.seq,
	}, s)
}

// Snapshot returns the current presence state of the room.
func (r *Room) Snapshot() map[string]PresenceInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presence.snapshot()
}

// Members returns the number of subscribed sessions.
func (r *Room) Members() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subscribers)
}

// deliverLocked sends ev to every subscriber except the excluded one. A full
// outbound buffer is a per-recipient failure: the event is dropped for that
// session, logged, and delivery to the rest continues.
func (r *Room) deliverLocked(ev Event, except *Session) {
	for s := range r.subscribers {
		if s == except {
			continue
		}
		r.sendLocked(s, ev)
	}
}

func (r *Room) sendLocked(s *Session, ev Event) {
	if s.offer(ev) {
		return
	}
	s.misses.Add(1)
	r.log.Warn().
		Str("session_id", s.ID).
		Str("room", r.Name).
		Int("kind", int(ev.Kind)).
		Msg("delivery failed, slow consumer")
}

// emptyLocked reports whether the room holds no members and no presence.
// Presence without members would be corruption.
func (r *Room) emptyLocked() bool {
	if len(r.subscribers) == 0 {
		invariant(r.presence.empty(), "presence entries in room %q with no subscribers", r.Name)
		return true
	}
	return false
}
