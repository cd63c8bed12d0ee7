package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const writeDeadline = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Error().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		}
	}
}

// readPump processes this connection's events one at a time, which
// preserves the sender's own ordering; other connections' pumps run
// concurrently. Transport close ends the pump and drops the
// connection from every room and voice presence entry.
func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	defer func() {
		cancel()
		// If this connection was superseded by a newer bind for the
		// same identity, DropSender leaves the new binding untouched.
		ctl.Hub.DropSender(context.Background(), c)
		c.Close()
		log.Info().Str("module", "ws").Str("conn", string(c.id)).Msg("disconnected")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				return
			}
			ctl.handleEvent(ctx, c, data)
		}
	}
}

func (ctl *Controller) handleEvent(ctx context.Context, c *wsConn, data []byte) {
	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("conn", string(c.id)).Msg("bad json")
		ctl.Hub.Error(c.id, "malformed event")
		return
	}

	switch env.Event {
	case "joinChat":
		ctl.handleJoinChat(ctx, c, env.Data)
	case "getChats":
		ctl.handleGetChats(ctx, c, env.Data)
	case "getChatMessages":
		ctl.handleGetChatMessages(ctx, c, env.Data)
	case "createChat":
		ctl.handleCreateChat(ctx, c, env.Data)
	case "sendMessage":
		ctl.handleSendMessage(ctx, c, env.Data)
	case "addReaction":
		ctl.handleAddReaction(ctx, c, env.Data)
	case "readMessage":
		ctl.handleReadMessage(ctx, c, env.Data)
	case "deleteMessage":
		ctl.handleDeleteMessage(ctx, c, env.Data)
	case "userTyping":
		ctl.handleUserTyping(c, env.Data)
	case "leaveChat":
		ctl.handleLeaveChat(c, env.Data)
	case "getUnreadMessages":
		ctl.handleGetUnreadMessages(ctx, c, env.Data)
	case "joinRoom":
		ctl.handleJoinRoom(c, env.Data)
	case "getRoomParticipants":
		ctl.handleGetRoomParticipants(c, env.Data)
	case "leaveRoom":
		ctl.handleLeaveRoom(c, env.Data)
	case "userSpeaking":
		ctl.handleUserSpeaking(c, env.Data)
	case "emojiReaction":
		ctl.handleEmojiReaction(c, env.Data)
	case "passSpeaking":
		ctl.handlePassSpeaking(c, env.Data)
	default:
		log.Warn().Str("module", "ws").Str("event", env.Event).Msg("unknown event")
		ctl.Hub.Error(c.id, "unknown event: "+env.Event)
	}
}

// decode unmarshals and validates an inbound payload. A failure here
// is a ValidationFailure: reported to the sender, fatal to nothing.
func (ctl *Controller) decode(c *wsConn, event string, data []byte, v any) bool {
	if err := json.Unmarshal(data, v); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("event", event).Msg("bad payload")
		ctl.Hub.Error(c.id, "malformed "+event+" payload")
		return false
	}
	if err := ctl.validate.Struct(v); err != nil {
		log.Error().Err(err).Str("module", "ws").Str("event", event).Msg("invalid payload")
		ctl.Hub.Error(c.id, "invalid "+event+" payload")
		return false
	}
	return true
}
