// Package storage is the gateway to the durable chat store. The
// coordination core only ever sees this interface; failures come
// back as errors, never as panics across the boundary.
package storage

import (
	"context"
	"errors"

	"tunelink/internal/domain"
)

var ErrNotFound = errors.New("not found")

type ChatStore interface {
	CreateChat(ctx context.Context, chat domain.Chat) (domain.Chat, error)
	GetChatByID(ctx context.Context, id domain.ChatID) (domain.Chat, error)
	// GetChatsForUser lists the user's chats with that user's unread
	// count attached to each.
	GetChatsForUser(ctx context.Context, user domain.UserID) ([]domain.ChatSummary, error)
	// UpdateChatLastMessage overwrites the chat's last-message
	// summary. Callers invoke it only after the message insert
	// succeeded, so the summary never reflects a failed write.
	UpdateChatLastMessage(ctx context.Context, chat domain.ChatID, last domain.LastMessage) error

	CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error)
	GetMessagesByChat(ctx context.Context, chat domain.ChatID) ([]domain.Message, error)
	GetMessageByID(ctx context.Context, id domain.MessageID) (domain.Message, error)
	MarkMessageAsRead(ctx context.Context, id domain.MessageID, user domain.UserID) error
	DeleteMessage(ctx context.Context, id domain.MessageID) error
	// AppendReaction collapses duplicates: reacting twice with the
	// same emoji leaves a single entry.
	AppendReaction(ctx context.Context, id domain.MessageID, r domain.Reaction) error
	RemoveReaction(ctx context.Context, id domain.MessageID, r domain.Reaction) error
	// GetUnreadMessages returns messages in the user's chats that
	// the user has neither sent nor read.
	GetUnreadMessages(ctx context.Context, user domain.UserID) ([]domain.Message, error)
}
