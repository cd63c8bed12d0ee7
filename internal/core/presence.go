package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"tunelink/internal/domain"
)

// Presence tracks who is inside each voice room. Identities are
// unique per room: a rejoin replaces the previous entry in place
// instead of appending a duplicate.
type Presence struct {
	mu     sync.RWMutex
	byRoom map[domain.RoomID][]domain.Participant
}

func NewPresence() *Presence {
	return &Presence{byRoom: make(map[domain.RoomID][]domain.Participant)}
}

// Join adds or replaces the participant's entry in the room.
func (p *Presence) Join(room domain.RoomID, part domain.Participant) {
	p.mu.Lock()
	defer p.mu.Unlock()
	list := p.byRoom[room]
	for i, existing := range list {
		if existing.User.ID == part.User.ID {
			list[i] = part
			return
		}
	}
	p.byRoom[room] = append(list, part)
	log.Debug().Str("module", "core.presence").Str("room", string(room)).Str("user", string(part.User.ID)).Msg("participant joined")
}

// Leave removes the identity's entry; the room entry itself is
// deleted once the last participant is gone. Reports whether the
// identity was present.
func (p *Presence) Leave(room domain.RoomID, user domain.UserID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.leaveLocked(room, user)
}

func (p *Presence) leaveLocked(room domain.RoomID, user domain.UserID) bool {
	list := p.byRoom[room]
	for i, existing := range list {
		if existing.User.ID == user {
			p.byRoom[room] = append(list[:i], list[i+1:]...)
			if len(p.byRoom[room]) == 0 {
				delete(p.byRoom, room)
			}
			return true
		}
	}
	return false
}

// DropUser sweeps the identity out of every room it occupied and
// returns those rooms, so the caller can notify the remaining
// members the same way an explicit leave would.
func (p *Presence) DropUser(user domain.UserID) []domain.RoomID {
	p.mu.Lock()
	defer p.mu.Unlock()
	var rooms []domain.RoomID
	for room := range p.byRoom {
		if p.leaveLocked(room, user) {
			rooms = append(rooms, room)
		}
	}
	if len(rooms) > 0 {
		log.Info().Str("module", "core.presence").Str("user", string(user)).Int("rooms", len(rooms)).Msg("swept presence")
	}
	return rooms
}

// Participants returns a snapshot of the room's presence list.
func (p *Presence) Participants(room domain.RoomID) []domain.Participant {
	p.mu.RLock()
	defer p.mu.RUnlock()
	list := p.byRoom[room]
	out := make([]domain.Participant, len(list))
	copy(out, list)
	return out
}
