package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"tunelink/internal/domain"
)

// Registry is the room membership index. Both directions (room ->
// conns, conn -> rooms) live behind one mutex so they cannot drift
// apart; every mutation goes through Join, Leave or Drop.
type Registry struct {
	mu      sync.RWMutex
	byRoom  map[domain.RoomID]map[ConnID]struct{}
	byConn  map[ConnID]map[domain.RoomID]struct{}
	senders map[ConnID]Sender
}

func NewRegistry() *Registry {
	return &Registry{
		byRoom:  make(map[domain.RoomID]map[ConnID]struct{}),
		byConn:  make(map[ConnID]map[domain.RoomID]struct{}),
		senders: make(map[ConnID]Sender),
	}
}

// Bind registers the sender for a connection id. A second bind for
// the same id supersedes the first: the old sender is closed and
// its memberships dropped, so the identity never has two live
// connections receiving events.
func (r *Registry) Bind(s Sender) {
	id := s.ID()

	r.mu.Lock()
	prev, had := r.senders[id]
	if had {
		r.dropLocked(id)
	}
	r.senders[id] = s
	r.mu.Unlock()

	if had && prev != nil {
		prev.Close()
	}
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Bool("superseded", had).Msg("bound sender")
}

// DropSender removes the connection from every room it had joined
// and unbinds its sender, in one step under the lock: once it
// returns no fanout can resolve this connection anymore. The drop
// only happens if s is still the bound sender for its id — a
// superseded connection's teardown runs after the replacement bind
// and must not disturb it, so a stale drop is a no-op. Reports
// whether the drop happened and the rooms that were left.
func (r *Registry) DropSender(s Sender) ([]domain.RoomID, bool) {
	id := s.ID()
	r.mu.Lock()
	if r.senders[id] != s {
		r.mu.Unlock()
		log.Debug().Str("module", "core.registry").Str("conn", string(id)).Msg("stale drop ignored")
		return nil, false
	}
	left := r.dropLocked(id)
	r.mu.Unlock()
	log.Info().Str("module", "core.registry").Str("conn", string(id)).Int("rooms", len(left)).Msg("dropped connection")
	return left, true
}

// Sender resolves a connection id to its live sender, if any.
func (r *Registry) Sender(id ConnID) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.senders[id]
	return s, ok
}

// Join is idempotent: joining a room twice is a no-op.
func (r *Registry) Join(id ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byRoom[room] == nil {
		r.byRoom[room] = make(map[ConnID]struct{})
	}
	if r.byConn[id] == nil {
		r.byConn[id] = make(map[domain.RoomID]struct{})
	}
	r.byRoom[room][id] = struct{}{}
	r.byConn[id][room] = struct{}{}
}

// Leave is idempotent: leaving a room that was never joined is a
// no-op. Empty room entries are removed.
func (r *Registry) Leave(id ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(id, room)
}

func (r *Registry) leaveLocked(id ConnID, room domain.RoomID) {
	if m := r.byRoom[room]; m != nil {
		delete(m, id)
		if len(m) == 0 {
			delete(r.byRoom, room)
		}
	}
	if m := r.byConn[id]; m != nil {
		delete(m, room)
		if len(m) == 0 {
			delete(r.byConn, id)
		}
	}
}

// MembersOf returns a snapshot of the room's membership. The caller
// uses it immediately for fanout; it is never cached.
func (r *Registry) MembersOf(room domain.RoomID) []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byRoom[room]
	if len(m) == 0 {
		return nil
	}
	out := make([]ConnID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	return out
}

// RoomsOf returns a snapshot of the rooms a connection has joined.
func (r *Registry) RoomsOf(id ConnID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byConn[id]
	if len(m) == 0 {
		return nil
	}
	out := make([]domain.RoomID, 0, len(m))
	for room := range m {
		out = append(out, room)
	}
	return out
}

func (r *Registry) dropLocked(id ConnID) []domain.RoomID {
	var left []domain.RoomID
	for room := range r.byConn[id] {
		left = append(left, room)
		r.leaveLocked(id, room)
	}
	delete(r.senders, id)
	return left
}
