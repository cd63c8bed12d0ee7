package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"tunelink/internal/domain"
)

// Memory is a map-backed ChatStore. It backs the `memory` storage
// mode and the test suites; behavior mirrors the Mongo store.
type Memory struct {
	mu       sync.RWMutex
	chats    map[domain.ChatID]domain.Chat
	messages map[domain.MessageID]domain.Message
	order    []domain.MessageID // insertion order for per-chat listing
}

func NewMemory() *Memory {
	return &Memory{
		chats:    make(map[domain.ChatID]domain.Chat),
		messages: make(map[domain.MessageID]domain.Message),
	}
}

func (m *Memory) CreateChat(_ context.Context, chat domain.Chat) (domain.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if chat.ID == "" {
		chat.ID = domain.ChatID(uuid.NewString())
	}
	m.chats[chat.ID] = chat
	return chat, nil
}

func (m *Memory) GetChatByID(_ context.Context, id domain.ChatID) (domain.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chat, ok := m.chats[id]
	if !ok {
		return domain.Chat{}, ErrNotFound
	}
	return chat, nil
}

func (m *Memory) GetChatsForUser(_ context.Context, user domain.UserID) ([]domain.ChatSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.ChatSummary
	for _, chat := range m.chats {
		if !containsUser(chat.Participants, user) {
			continue
		}
		unread := 0
		for _, id := range m.order {
			msg := m.messages[id]
			if msg.ChatID == chat.ID && msg.From != user && !containsUser(msg.ReadBy, user) {
				unread++
			}
		}
		out = append(out, domain.ChatSummary{Chat: chat, UnreadCount: unread})
	}
	return out, nil
}

func (m *Memory) UpdateChatLastMessage(_ context.Context, chat domain.ChatID, last domain.LastMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[chat]
	if !ok {
		return ErrNotFound
	}
	c.LastMessage = &last
	m.chats[chat] = c
	return nil
}

func (m *Memory) CreateMessage(_ context.Context, msg domain.Message) (domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.chats[msg.ChatID]; !ok {
		return domain.Message{}, ErrNotFound
	}
	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}
	m.messages[msg.ID] = msg
	m.order = append(m.order, msg.ID)
	return msg, nil
}

func (m *Memory) GetMessagesByChat(_ context.Context, chat domain.ChatID) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Message
	for _, id := range m.order {
		if msg, ok := m.messages[id]; ok && msg.ChatID == chat {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *Memory) GetMessageByID(_ context.Context, id domain.MessageID) (domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	if !ok {
		return domain.Message{}, ErrNotFound
	}
	return msg, nil
}

func (m *Memory) MarkMessageAsRead(_ context.Context, id domain.MessageID, user domain.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return ErrNotFound
	}
	if !containsUser(msg.ReadBy, user) {
		msg.ReadBy = append(msg.ReadBy, user)
		m.messages[id] = msg
	}
	return nil
}

func (m *Memory) DeleteMessage(_ context.Context, id domain.MessageID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.messages[id]; !ok {
		return ErrNotFound
	}
	delete(m.messages, id)
	for i, ord := range m.order {
		if ord == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *Memory) AppendReaction(_ context.Context, id domain.MessageID, r domain.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return ErrNotFound
	}
	for _, existing := range msg.Reactions {
		if existing == r {
			return nil
		}
	}
	msg.Reactions = append(msg.Reactions, r)
	m.messages[id] = msg
	return nil
}

func (m *Memory) RemoveReaction(_ context.Context, id domain.MessageID, r domain.Reaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return ErrNotFound
	}
	for i, existing := range msg.Reactions {
		if existing == r {
			msg.Reactions = append(msg.Reactions[:i], msg.Reactions[i+1:]...)
			m.messages[id] = msg
			return nil
		}
	}
	return nil
}

func (m *Memory) GetUnreadMessages(_ context.Context, user domain.UserID) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Message
	for _, id := range m.order {
		msg := m.messages[id]
		chat, ok := m.chats[msg.ChatID]
		if !ok || !containsUser(chat.Participants, user) {
			continue
		}
		if msg.From != user && !containsUser(msg.ReadBy, user) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func containsUser(list []domain.UserID, user domain.UserID) bool {
	for _, u := range list {
		if u == user {
			return true
		}
	}
	return false
}
