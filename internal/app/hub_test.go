package app

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"tunelink/internal/core"
	"tunelink/internal/domain"
	"tunelink/internal/storage"
)

type fakeSender struct {
	id     core.ConnID
	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func (f *fakeSender) ID() core.ConnID { return f.id }

func (f *fakeSender) TrySend(fr core.Frame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return core.ErrConnClosed
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, fr := range f.frames {
		var env struct {
			Event string `json:"event"`
		}
		if err := json.Unmarshal(fr, &env); err == nil {
			out = append(out, env.Event)
		}
	}
	return out
}

func newTestHub(t *testing.T, ids ...core.ConnID) (*Hub, map[core.ConnID]*fakeSender) {
	t.Helper()
	hub := NewHub(storage.NewMemory(), nil)
	senders := make(map[core.ConnID]*fakeSender, len(ids))
	for _, id := range ids {
		s := &fakeSender{id: id}
		hub.Bind(context.Background(), s)
		senders[id] = s
	}
	return hub, senders
}

func TestHub_EmitReachesAllMembers(t *testing.T) {
	req := require.New(t)
	hub, senders := newTestHub(t, "a", "b", "c")
	for id := range senders {
		hub.Registry.Join(id, "r")
	}

	hub.Emit("r", "ping", nil)
	for id, s := range senders {
		req.Equal([]string{"ping"}, s.events(), "member %s", id)
	}
}

func TestHub_EmitExcludesSender(t *testing.T) {
	req := require.New(t)
	hub, senders := newTestHub(t, "a", "b", "c")
	for id := range senders {
		hub.Registry.Join(id, "r")
	}

	hub.Emit("r", "ping", nil, "a")
	req.Empty(senders["a"].events())
	req.Equal([]string{"ping"}, senders["b"].events())
	req.Equal([]string{"ping"}, senders["c"].events())
}

func TestHub_EmitSkipsNonMembers(t *testing.T) {
	req := require.New(t)
	hub, senders := newTestHub(t, "a", "b")
	hub.Registry.Join("a", "r")

	hub.Emit("r", "ping", nil)
	req.Equal([]string{"ping"}, senders["a"].events())
	req.Empty(senders["b"].events())
}

func TestHub_NoDeliveryAfterDrop(t *testing.T) {
	req := require.New(t)
	hub, senders := newTestHub(t, "a", "b")
	hub.Registry.Join("a", "r")
	hub.Registry.Join("b", "r")

	hub.DropSender(context.Background(), senders["b"])
	hub.Emit("r", "ping", nil)
	req.Equal([]string{"ping"}, senders["a"].events())
	req.Empty(senders["b"].events())
}

func TestHub_DropSweepsVoicePresenceAndNotifies(t *testing.T) {
	req := require.New(t)
	hub, senders := newTestHub(t, "u1", "u2")
	hub.Registry.Join("u1", "room1")
	hub.Registry.Join("u2", "room1")
	hub.Presence.Join("room1", domain.Participant{User: domain.User{ID: "u1"}, PeerID: "p1"})
	hub.Presence.Join("room1", domain.Participant{User: domain.User{ID: "u2"}, PeerID: "p2"})

	hub.DropSender(context.Background(), senders["u2"])

	// The remaining member hears the same notification an explicit
	// leave would have produced; presence no longer lists u2.
	req.Equal([]string{"user-disconnected"}, senders["u1"].events())
	list := hub.Presence.Participants("room1")
	req.Len(list, 1)
	req.Equal(domain.UserID("u1"), list[0].User.ID)
}

func TestHub_UnicastOnlyTarget(t *testing.T) {
	req := require.New(t)
	hub, senders := newTestHub(t, "a", "b")

	hub.Unicast("a", "hello", map[string]string{"k": "v"})
	req.Equal([]string{"hello"}, senders["a"].events())
	req.Empty(senders["b"].events())
}

func TestHub_ErrorEventShape(t *testing.T) {
	req := require.New(t)
	hub, senders := newTestHub(t, "a")

	hub.Error("a", "boom")
	frames := senders["a"].frames
	req.Len(frames, 1)

	var env struct {
		Event string `json:"event"`
		Data  struct {
			Message string `json:"message"`
		} `json:"data"`
	}
	req.NoError(json.Unmarshal(frames[0], &env))
	req.Equal("error", env.Event)
	req.Equal("boom", env.Data.Message)
}
