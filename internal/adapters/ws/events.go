package ws

import (
	"time"

	"tunelink/internal/domain"
)

// Inbound payload shapes. Tags reject malformed events before any
// handler side effect runs.

type joinChatPayload struct {
	ChatID string `json:"chatId" validate:"required"`
}

type getChatsPayload struct {
	UserID string `json:"userId" validate:"required"`
}

type createChatPayload struct {
	Type         domain.ChatType `json:"chatType" validate:"required,oneof=private group"`
	Name         string          `json:"name"`
	Participants []domain.UserID `json:"participants" validate:"required,min=1"`
}

type sendMessagePayload struct {
	ChatID    string    `json:"chatId" validate:"required"`
	From      string    `json:"from" validate:"required"`
	Body      string    `json:"message" validate:"required"`
	CreatedAt time.Time `json:"createdAt"`
}

type reactionPayload struct {
	MessageID string `json:"messageId" validate:"required"`
	Reaction  struct {
		From  domain.UserID `json:"from" validate:"required"`
		Emoji string        `json:"emoji" validate:"required"`
	} `json:"reaction"`
}

type readMessagePayload struct {
	MessageID string `json:"messageId" validate:"required"`
	UserID    string `json:"userId" validate:"required"`
	ChatID    string `json:"chatId" validate:"required"`
}

type deleteMessagePayload struct {
	MessageID string `json:"messageId" validate:"required"`
}

type typingPayload struct {
	ChatID string `json:"chatId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type joinRoomPayload struct {
	RoomID string      `json:"roomId" validate:"required"`
	PeerID string      `json:"peerId" validate:"required"`
	User   domain.User `json:"user"`
}

type roomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
}

type leaveRoomPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

type speakingPayload struct {
	RoomID   string `json:"roomId" validate:"required"`
	UserID   string `json:"userId" validate:"required"`
	Speaking bool   `json:"speaking"`
}

type emojiPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
	Emoji  string `json:"emoji" validate:"required"`
}

type passSpeakingPayload struct {
	RoomID string `json:"roomId" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}
