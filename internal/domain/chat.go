package domain

import "time"

type (
	ChatID    string
	MessageID string
	ChatType  string
)

const (
	ChatPrivate ChatType = "private"
	ChatGroup   ChatType = "group"
)

type Chat struct {
	ID           ChatID       `json:"id" bson:"_id"`
	Type         ChatType     `json:"chatType" bson:"chatType"`
	Name         string       `json:"name,omitempty" bson:"name,omitempty"`
	Participants []UserID     `json:"participants" bson:"participants"`
	LastMessage  *LastMessage `json:"lastMessage,omitempty" bson:"lastMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt" bson:"createdAt"`
}

// LastMessage is the summary kept on the chat itself. It must only
// reflect a message that was actually persisted.
type LastMessage struct {
	From      UserID    `json:"from" bson:"from"`
	Body      string    `json:"message" bson:"message"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

type Message struct {
	ID        MessageID  `json:"id" bson:"_id"`
	ChatID    ChatID     `json:"chatId" bson:"chatId"`
	From      UserID     `json:"from" bson:"from"`
	Body      string     `json:"message" bson:"message"`
	CreatedAt time.Time  `json:"createdAt" bson:"createdAt"`
	ReadBy    []UserID   `json:"readBy,omitempty" bson:"readBy,omitempty"`
	Reactions []Reaction `json:"reactions,omitempty" bson:"reactions,omitempty"`
}

type Reaction struct {
	From  UserID `json:"from" bson:"from"`
	Emoji string `json:"emoji" bson:"emoji"`
}

// ChatSummary is what a chat list query returns per chat: the chat,
// the caller's unread count and which of the other participants are
// online right now. Online is filled at serve time, never stored.
type ChatSummary struct {
	Chat        Chat     `json:"chat"`
	UnreadCount int      `json:"unreadCount"`
	Online      []UserID `json:"online,omitempty" bson:"-"`
}
