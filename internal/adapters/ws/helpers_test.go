package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tunelink/internal/app"
	"tunelink/internal/core"
	"tunelink/internal/domain"
	"tunelink/internal/storage"
)

// Handler tests drive handleEvent directly with wsConns that never
// touch a real socket: outbound frames pile up in the send queue and
// are drained by the assertions.

type recvEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestController(t *testing.T) (*Controller, *storage.Memory) {
	t.Helper()
	mem := storage.NewMemory()
	return NewController(app.NewHub(mem, nil)), mem
}

func connect(t *testing.T, ctl *Controller, id string) *wsConn {
	t.Helper()
	c := newWSConn(core.ConnID(id), nil, sendQueueSize)
	ctl.Hub.Bind(context.Background(), c)
	return c
}

func drain(c *wsConn) []recvEvent {
	var out []recvEvent
	for {
		select {
		case frame := <-c.send:
			var ev recvEvent
			if err := json.Unmarshal(frame, &ev); err == nil {
				out = append(out, ev)
			}
		default:
			return out
		}
	}
}

func eventNames(events []recvEvent) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Event)
	}
	return out
}

func inbound(t *testing.T, event string, payload any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"event": event, "data": payload})
	require.NoError(t, err)
	return raw
}

func seedChat(t *testing.T, mem *storage.Memory, participants ...domain.UserID) domain.Chat {
	t.Helper()
	chat, err := mem.CreateChat(context.Background(), domain.Chat{
		Type:         domain.ChatPrivate,
		Participants: participants,
		CreatedAt:    time.Now(),
	})
	require.NoError(t, err)
	return chat
}
