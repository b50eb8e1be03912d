package registry

import "sync"

// Registry is the single source of truth for symbol subscriptions. A
// symbol maps to its subscribers in insertion order with no
// duplicates; a reverse index tracks every symbol a session holds so
// disconnect cleanup does not scan the whole table. One mutex guards
// all operations, so a snapshot never observes a half-applied
// mutation.
//
// Identifiers are opaque. Empty symbols and session IDs are accepted
// as valid-but-meaningless keys; validation happens at the gateway.
type Registry struct {
	mu        sync.Mutex
	bySymbol  map[string][]string
	bySession map[string]map[string]struct{}
}

func New() *Registry {
	return &Registry{
		bySymbol:  make(map[string][]string),
		bySession: make(map[string]map[string]struct{}),
	}
}

// Subscribe adds the session to the symbol's subscriber list, creating
// the entry if absent. Subscribing an already-subscribed session is a
// no-op. Returns a copy of the current list.
func (r *Registry) Subscribe(symbol, sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	held := r.bySession[sessionID]
	if held == nil {
		held = make(map[string]struct{})
		r.bySession[sessionID] = held
	}
	if _, ok := held[symbol]; !ok {
		held[symbol] = struct{}{}
		r.bySymbol[symbol] = append(r.bySymbol[symbol], sessionID)
	}
	return copyList(r.bySymbol[symbol])
}

// Unsubscribe removes the session from the symbol's list. Removing a
// session that is not subscribed is a no-op, not an error. Returns a
// copy of the remaining (possibly empty) list.
func (r *Registry) Unsubscribe(symbol, sessionID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(symbol, sessionID)
	return copyList(r.bySymbol[symbol])
}

// RemoveSession drops the session from every symbol it is subscribed
// to. Safe to call for a session that never subscribed to anything.
func (r *Registry) RemoveSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for symbol := range r.bySession[sessionID] {
		r.dropSubscriberLocked(symbol, sessionID)
	}
	delete(r.bySession, sessionID)
}

// SnapshotActive returns a point-in-time deep copy of the table.
// Symbols with zero subscribers never appear, so a tick iterating the
// snapshot cannot produce a spurious broadcast.
func (r *Registry) SnapshotActive() map[string][]string {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := make(map[string][]string, len(r.bySymbol))
	for symbol, subs := range r.bySymbol {
		if len(subs) == 0 {
			continue
		}
		snap[symbol] = copyList(subs)
	}
	return snap
}

func (r *Registry) removeLocked(symbol, sessionID string) {
	held := r.bySession[sessionID]
	if held == nil {
		return
	}
	if _, ok := held[symbol]; !ok {
		return
	}
	delete(held, symbol)
	if len(held) == 0 {
		delete(r.bySession, sessionID)
	}
	r.dropSubscriberLocked(symbol, sessionID)
}

// dropSubscriberLocked removes the session from the symbol list and
// deletes the symbol key once the list drains.
func (r *Registry) dropSubscriberLocked(symbol, sessionID string) {
	subs := r.bySymbol[symbol]
	for i, id := range subs {
		if id == sessionID {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(r.bySymbol, symbol)
	} else {
		r.bySymbol[symbol] = subs
	}
}

func copyList(subs []string) []string {
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}
