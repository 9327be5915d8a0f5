package core

import "time"

// presenceEntry records one present identity: the sessions contributing to it
// (multi-device) and the metadata supplied by the most recent track call.
type presenceEntry struct {
	meta     map[string]any
	since    time.Time
	sessions map[*Session]struct{}
}

// presenceSet tracks which identities are present in a room. All methods are
// called with the owning room's lock held.
type presenceSet struct {
	entries map[string]*presenceEntry
}

func newPresenceSet() *presenceSet {
	return &presenceSet{entries: make(map[string]*presenceEntry)}
}

// track adds s as a contributor to identity. It returns true when the
// identity transitioned from absent to present. Re-tracking an identity the
// session already contributes to only refreshes the metadata.
func (p *presenceSet) track(s *Session, identity string, meta map[string]any) bool {
	entry, ok := p.entries[identity]
	if !ok {
		p.entries[identity] = &presenceEntry{
			meta:     meta,
			since:    time.Now(),
			sessions: map[*Session]struct{}{s: {}},
		}
		return true
	}
	entry.sessions[s] = struct{}{}
	entry.meta = meta
	return false
}

// untrack removes s from identity's contributor set. It returns true when the
// identity transitioned from present to absent, and false if s was not a
// contributor (a vanished-session race, treated as a no-op).
func (p *presenceSet) untrack(s *Session, identity string) bool {
	entry, ok := p.entries[identity]
	if !ok {
		return false
	}
	if _, ok := entry.sessions[s]; !ok {
		return false
	}
	delete(entry.sessions, s)
	if len(entry.sessions) > 0 {
		return false
	}
	delete(p.entries, identity)
	return true
}

// info returns the presence payload for one identity.
func (p *presenceSet) info(identity string) PresenceInfo {
	entry, ok := p.entries[identity]
	invariant(ok, "presence info for absent identity %q", identity)
	return PresenceInfo{Meta: entry.meta, Since: entry.since}
}

// snapshot copies the current identity set for a sync event.
func (p *presenceSet) snapshot() map[string]PresenceInfo {
	out := make(map[string]PresenceInfo, len(p.entries))
	for identity, entry := range p.entries {
		invariant(len(entry.sessions) > 0, "identity %q present with no contributors", identity)
		out[identity] = PresenceInfo{Meta: entry.meta, Since: entry.since}
	}
	return out
}

func (p *presenceSet) empty() bool {
	return len(p.entries) == 0
}
