// Package app wires the coordination core together: it owns event
// fanout and the connection lifecycle across registry, presence and
// the storage gateway.
package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"tunelink/internal/core"
	"tunelink/internal/domain"
	"tunelink/internal/storage"
)

// envelope is the outbound wire shape for every event.
type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type Hub struct {
	Registry *core.Registry
	Presence *core.Presence
	Store    storage.ChatStore
	Online   *storage.OnlineStore
}

func NewHub(store storage.ChatStore, online *storage.OnlineStore) *Hub {
	return &Hub{
		Registry: core.NewRegistry(),
		Presence: core.NewPresence(),
		Store:    store,
		Online:   online,
	}
}

// Bind admits a connection. A prior connection for the same identity
// is superseded and closed by the registry.
func (h *Hub) Bind(ctx context.Context, s core.Sender) {
	h.Registry.Bind(s)
	if err := h.Online.Online(ctx, domain.UserID(s.ID())); err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(s.ID())).Msg("online flag not set")
	}
}

// DropSender tears a connection down: membership is removed
// atomically, so no fanout started after this point can reach the
// connection, and the identity is swept out of every voice room it
// occupied with the same notification an explicit leave would have
// produced. When the sender was already superseded by a newer bind
// for the same identity, nothing happens: the identity is still
// connected and its rooms, presence and online flag belong to the
// newer connection.
func (h *Hub) DropSender(ctx context.Context, s core.Sender) {
	if _, ok := h.Registry.DropSender(s); !ok {
		return
	}
	user := domain.UserID(s.ID())
	for _, room := range h.Presence.DropUser(user) {
		h.Emit(room, "user-disconnected", map[string]any{"userId": user})
	}
	if err := h.Online.Offline(ctx, user); err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(s.ID())).Msg("online flag not cleared")
	}
}

// IsOnline reports whether the identity currently holds a live
// connection. The local registry answers for this process; the Redis
// mirror answers for identities connected to another instance.
func (h *Hub) IsOnline(ctx context.Context, user domain.UserID) bool {
	if _, ok := h.Registry.Sender(core.ConnID(user)); ok {
		return true
	}
	on, err := h.Online.IsOnline(ctx, user)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Str("user", string(user)).Msg("online lookup failed")
		return false
	}
	return on
}

// Emit fans the event out to every current member of the room except
// the excluded connections. The payload is marshaled once; sends are
// non-blocking, a slow member just misses the frame.
func (h *Hub) Emit(room domain.RoomID, event string, payload any, exclude ...core.ConnID) {
	frame, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("event", event).Msg("marshal broadcast")
		return
	}
	sent, dropped := 0, 0
	for _, id := range h.Registry.MembersOf(room) {
		if excluded(exclude, id) {
			continue
		}
		s, ok := h.Registry.Sender(id)
		if !ok {
			continue
		}
		if err := s.TrySend(frame); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.hub").Str("room", string(room)).Str("event", event).Int("sent", sent).Int("dropped", dropped).Msg("fanout")
}

// Unicast sends the event to a single connection.
func (h *Hub) Unicast(id core.ConnID, event string, payload any) {
	s, ok := h.Registry.Sender(id)
	if !ok {
		return
	}
	frame, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "app.hub").Str("event", event).Msg("marshal unicast")
		return
	}
	if err := s.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "app.hub").Str("conn", string(id)).Str("event", event).Msg("unicast dropped")
	}
}

// Error reports a failure back to the connection that caused it.
// Failures are terminal to the single event only, never to the
// connection and never to other room members.
func (h *Hub) Error(id core.ConnID, msg string) {
	h.Unicast(id, "error", map[string]string{"message": msg})
}

func excluded(list []core.ConnID, id core.ConnID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}
