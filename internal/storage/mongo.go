package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"tunelink/internal/domain"
)

const (
	collChats    = "chats"
	collMessages = "chat_messages"
)

// MongoConfig carries the connection settings for the document store.
type MongoConfig struct {
	URI         string        `mapstructure:"uri"`
	Database    string        `mapstructure:"database"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	MaxPoolSize uint64        `mapstructure:"max_pool_size"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// Mongo implements ChatStore on top of mongo-driver.
type Mongo struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("mongo uri is required")
	}
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.Username != "" {
		opts.SetAuth(options.Credential{Username: cfg.Username, Password: cfg.Password})
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cli, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := cli.Ping(connectCtx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := cli.Database(cfg.Database)
	log.Info().Str("module", "storage.mongo").Str("database", cfg.Database).Msg("connected")
	return &Mongo{
		chats:    db.Collection(collChats),
		messages: db.Collection(collMessages),
	}, nil
}

func (s *Mongo) CreateChat(ctx context.Context, chat domain.Chat) (domain.Chat, error) {
	if chat.ID == "" {
		chat.ID = domain.ChatID(uuid.NewString())
	}
	if _, err := s.chats.InsertOne(ctx, chat); err != nil {
		return domain.Chat{}, fmt.Errorf("insert chat: %w", err)
	}
	return chat, nil
}

func (s *Mongo) GetChatByID(ctx context.Context, id domain.ChatID) (domain.Chat, error) {
	var chat domain.Chat
	err := s.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat)
	if err == mongo.ErrNoDocuments {
		return domain.Chat{}, ErrNotFound
	}
	if err != nil {
		return domain.Chat{}, fmt.Errorf("find chat: %w", err)
	}
	return chat, nil
}

func (s *Mongo) GetChatsForUser(ctx context.Context, user domain.UserID) ([]domain.ChatSummary, error) {
	cur, err := s.chats.Find(ctx, bson.M{"participants": user})
	if err != nil {
		return nil, fmt.Errorf("find chats: %w", err)
	}
	var chats []domain.Chat
	if err := cur.All(ctx, &chats); err != nil {
		return nil, fmt.Errorf("decode chats: %w", err)
	}

	out := make([]domain.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		unread, err := s.messages.CountDocuments(ctx, bson.M{
			"chatId": chat.ID,
			"from":   bson.M{"$ne": user},
			"readBy": bson.M{"$nin": bson.A{user}},
		})
		if err != nil {
			return nil, fmt.Errorf("count unread: %w", err)
		}
		out = append(out, domain.ChatSummary{Chat: chat, UnreadCount: int(unread)})
	}
	return out, nil
}

func (s *Mongo) UpdateChatLastMessage(ctx context.Context, chat domain.ChatID, last domain.LastMessage) error {
	res, err := s.chats.UpdateOne(ctx, bson.M{"_id": chat}, bson.M{"$set": bson.M{"lastMessage": last}})
	if err != nil {
		return fmt.Errorf("update last message: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) CreateMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	// The chat must exist before a message can reference it.
	if _, err := s.GetChatByID(ctx, msg.ChatID); err != nil {
		return domain.Message{}, err
	}
	if msg.ID == "" {
		msg.ID = domain.MessageID(uuid.NewString())
	}
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		return domain.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (s *Mongo) GetMessagesByChat(ctx context.Context, chat domain.ChatID) ([]domain.Message, error) {
	cur, err := s.messages.Find(ctx, bson.M{"chatId": chat},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	var out []domain.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return out, nil
}

func (s *Mongo) GetMessageByID(ctx context.Context, id domain.MessageID) (domain.Message, error) {
	var msg domain.Message
	err := s.messages.FindOne(ctx, bson.M{"_id": id}).Decode(&msg)
	if err == mongo.ErrNoDocuments {
		return domain.Message{}, ErrNotFound
	}
	if err != nil {
		return domain.Message{}, fmt.Errorf("find message: %w", err)
	}
	return msg, nil
}

func (s *Mongo) MarkMessageAsRead(ctx context.Context, id domain.MessageID, user domain.UserID) error {
	res, err := s.messages.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"readBy": user}})
	if err != nil {
		return fmt.Errorf("mark read: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	res, err := s.messages.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) AppendReaction(ctx context.Context, id domain.MessageID, r domain.Reaction) error {
	// $addToSet keeps one entry per (reactor, emoji) pair.
	res, err := s.messages.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$addToSet": bson.M{"reactions": r}})
	if err != nil {
		return fmt.Errorf("append reaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) RemoveReaction(ctx context.Context, id domain.MessageID, r domain.Reaction) error {
	res, err := s.messages.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$pull": bson.M{"reactions": r}})
	if err != nil {
		return fmt.Errorf("remove reaction: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Mongo) GetUnreadMessages(ctx context.Context, user domain.UserID) ([]domain.Message, error) {
	chats, err := s.GetChatsForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	ids := make(bson.A, 0, len(chats))
	for _, c := range chats {
		ids = append(ids, c.Chat.ID)
	}
	cur, err := s.messages.Find(ctx, bson.M{
		"chatId": bson.M{"$in": ids},
		"from":   bson.M{"$ne": user},
		"readBy": bson.M{"$nin": bson.A{user}},
	})
	if err != nil {
		return nil, fmt.Errorf("find unread: %w", err)
	}
	var out []domain.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode unread: %w", err)
	}
	return out, nil
}
