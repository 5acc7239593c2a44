package state

import (
	"sync"

	"charla/internal/bus"
)

// Store owns the Session aggregate. All writes come from the engine's single
// event loop through Apply, which holds the write lock for the duration of one
// handler's mutation set — readers observe the cache before or after a
// handler, never mid-handler. Snapshots are shallow copies; they stay valid
// because mutators replace substructures instead of editing them in place.
type Store struct {
	mu   sync.RWMutex
	sess Session
	bus  *bus.Bus
}

// NewStore creates an empty store publishing change notifications on b.
func NewStore(b *bus.Bus) *Store {
	return &Store{sess: newSession(), bus: b}
}

// Apply runs one atomic mutation against the session and announces it.
func (st *Store) Apply(fn func(*Session)) {
	st.mu.Lock()
	fn(&st.sess)
	st.mu.Unlock()

	if st.bus != nil {
		st.bus.Publish(bus.Now(bus.KindStateUpdated, nil))
	}
}

// Reset wipes the session back to its initial empty form.
func (st *Store) Reset() {
	st.mu.Lock()
	st.sess.Reset()
	st.mu.Unlock()

	if st.bus != nil {
		st.bus.Publish(bus.Now(bus.KindStateReset, nil))
	}
}

// Snapshot returns a consistent shallow copy of the session.
func (st *Store) Snapshot() Session {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.sess
}
