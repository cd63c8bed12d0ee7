package ws

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"tunelink/internal/domain"
)

func (ctl *Controller) handleJoinChat(ctx context.Context, c *wsConn, data []byte) {
	var p joinChatPayload
	if !ctl.decode(c, "joinChat", data, &p) {
		return
	}
	chatID := domain.ChatID(p.ChatID)

	chat, err := ctl.Hub.Store.GetChatByID(ctx, chatID)
	if err != nil {
		ctl.Hub.Error(c.id, "failed to join chat: "+err.Error())
		return
	}
	ctl.Hub.Registry.Join(c.id, domain.RoomID(chatID))

	messages, err := ctl.Hub.Store.GetMessagesByChat(ctx, chatID)
	if err != nil {
		ctl.Hub.Error(c.id, "failed to load chat messages: "+err.Error())
		return
	}
	ctl.Hub.Unicast(c.id, "chatJoined", map[string]any{
		"chat":     chat,
		"messages": messages,
	})
}

func (ctl *Controller) handleGetChats(ctx context.Context, c *wsConn, data []byte) {
	var p getChatsPayload
	if !ctl.decode(c, "getChats", data, &p) {
		return
	}
	chats, err := ctl.Hub.Store.GetChatsForUser(ctx, domain.UserID(p.UserID))
	if err != nil {
		ctl.Hub.Error(c.id, "failed to get chats: "+err.Error())
		return
	}
	for i := range chats {
		for _, participant := range chats[i].Chat.Participants {
			if participant == domain.UserID(p.UserID) {
				continue
			}
			if ctl.Hub.IsOnline(ctx, participant) {
				chats[i].Online = append(chats[i].Online, participant)
			}
		}
	}
	ctl.Hub.Unicast(c.id, "chats", chats)
}

func (ctl *Controller) handleGetChatMessages(ctx context.Context, c *wsConn, data []byte) {
	var p joinChatPayload
	if !ctl.decode(c, "getChatMessages", data, &p) {
		return
	}
	messages, err := ctl.Hub.Store.GetMessagesByChat(ctx, domain.ChatID(p.ChatID))
	if err != nil {
		ctl.Hub.Error(c.id, "failed to get chat messages: "+err.Error())
		return
	}
	ctl.Hub.Unicast(c.id, "chatMessages", messages)
}

func (ctl *Controller) handleCreateChat(ctx context.Context, c *wsConn, data []byte) {
	var p createChatPayload
	if !ctl.decode(c, "createChat", data, &p) {
		return
	}
	chat, err := ctl.Hub.Store.CreateChat(ctx, domain.Chat{
		Type:         p.Type,
		Name:         p.Name,
		Participants: p.Participants,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		ctl.Hub.Error(c.id, "failed to create chat: "+err.Error())
		return
	}
	ctl.Hub.Registry.Join(c.id, domain.RoomID(chat.ID))

	// Each participant's connection id equals their identity, so the
	// creation notice goes straight to their live connection if any.
	for _, participant := range chat.Participants {
		ctl.Hub.Unicast(coreID(participant), "chatCreated", chat)
	}
}

// handleSendMessage is the persist-then-broadcast path: nothing is
// fanned out unless both the insert and the last-message summary
// update succeeded. The sender receives the message through the
// room broadcast alone, no separate echo.
func (ctl *Controller) handleSendMessage(ctx context.Context, c *wsConn, data []byte) {
	var p sendMessagePayload
	if !ctl.decode(c, "sendMessage", data, &p) {
		return
	}
	createdAt := p.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	msg, err := ctl.Hub.Store.CreateMessage(ctx, domain.Message{
		ChatID:    domain.ChatID(p.ChatID),
		From:      domain.UserID(p.From),
		Body:      p.Body,
		CreatedAt: createdAt,
	})
	if err != nil {
		ctl.Hub.Error(c.id, "failed to send message: "+err.Error())
		return
	}
	if err := ctl.Hub.Store.UpdateChatLastMessage(ctx, msg.ChatID, domain.LastMessage{
		From:      msg.From,
		Body:      msg.Body,
		CreatedAt: msg.CreatedAt,
	}); err != nil {
		ctl.Hub.Error(c.id, "failed to update chat: "+err.Error())
		return
	}
	ctl.Hub.Emit(domain.RoomID(msg.ChatID), "newMessage", msg)
}

func (ctl *Controller) handleAddReaction(ctx context.Context, c *wsConn, data []byte) {
	var p reactionPayload
	if !ctl.decode(c, "addReaction", data, &p) {
		return
	}
	msgID := domain.MessageID(p.MessageID)

	// Resolve the message's chat first: the broadcast is addressed to
	// the chat room, which is the room members actually joined.
	msg, err := ctl.Hub.Store.GetMessageByID(ctx, msgID)
	if err != nil {
		ctl.Hub.Error(c.id, "failed to add reaction: "+err.Error())
		return
	}
	reaction := domain.Reaction{From: p.Reaction.From, Emoji: p.Reaction.Emoji}
	if err := ctl.Hub.Store.AppendReaction(ctx, msgID, reaction); err != nil {
		ctl.Hub.Error(c.id, "failed to add reaction: "+err.Error())
		return
	}
	ctl.Hub.Emit(domain.RoomID(msg.ChatID), "reactionAdded", map[string]any{
		"messageId": msgID,
		"reaction":  reaction,
	})
}

func (ctl *Controller) handleReadMessage(ctx context.Context, c *wsConn, data []byte) {
	var p readMessagePayload
	if !ctl.decode(c, "readMessage", data, &p) {
		return
	}
	if err := ctl.Hub.Store.MarkMessageAsRead(ctx, domain.MessageID(p.MessageID), domain.UserID(p.UserID)); err != nil {
		ctl.Hub.Error(c.id, "failed to mark message as read: "+err.Error())
		return
	}
	ctl.Hub.Emit(domain.RoomID(p.ChatID), "messageRead", map[string]any{
		"messageId": p.MessageID,
		"userId":    p.UserID,
	})
}

func (ctl *Controller) handleDeleteMessage(ctx context.Context, c *wsConn, data []byte) {
	var p deleteMessagePayload
	if !ctl.decode(c, "deleteMessage", data, &p) {
		return
	}
	msgID := domain.MessageID(p.MessageID)

	msg, err := ctl.Hub.Store.GetMessageByID(ctx, msgID)
	if err != nil {
		ctl.Hub.Error(c.id, "failed to delete message: "+err.Error())
		return
	}
	if err := ctl.Hub.Store.DeleteMessage(ctx, msgID); err != nil {
		ctl.Hub.Error(c.id, "failed to delete message: "+err.Error())
		return
	}
	ctl.Hub.Emit(domain.RoomID(msg.ChatID), "messageDeleted", map[string]any{
		"messageId": msgID,
	})
}

func (ctl *Controller) handleUserTyping(c *wsConn, data []byte) {
	var p typingPayload
	if !ctl.decode(c, "userTyping", data, &p) {
		return
	}
	// Transient: nothing persisted, the sender is excluded.
	ctl.Hub.Emit(domain.RoomID(p.ChatID), "userTyping", map[string]any{
		"chatId": p.ChatID,
		"userId": p.UserID,
	}, c.id)
}

func (ctl *Controller) handleLeaveChat(c *wsConn, data []byte) {
	var p joinChatPayload
	if !ctl.decode(c, "leaveChat", data, &p) {
		return
	}
	ctl.Hub.Registry.Leave(c.id, domain.RoomID(p.ChatID))
	ctl.Hub.Unicast(c.id, "leftChat", map[string]any{"chatId": p.ChatID})
}

func (ctl *Controller) handleGetUnreadMessages(ctx context.Context, c *wsConn, data []byte) {
	var p getChatsPayload
	if !ctl.decode(c, "getUnreadMessages", data, &p) {
		return
	}
	messages, err := ctl.Hub.Store.GetUnreadMessages(ctx, domain.UserID(p.UserID))
	if err != nil {
		ctl.Hub.Error(c.id, "failed to get unread messages: "+err.Error())
		return
	}
	ctl.Hub.Unicast(c.id, "unreadMessages", messages)
	log.Debug().Str("module", "ws").Str("conn", string(c.id)).Int("count", len(messages)).Msg("unread messages served")
}
