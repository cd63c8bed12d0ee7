package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"tunelink/internal/domain"
)

// OnlineStore mirrors which identities currently hold a live
// connection into Redis, where out-of-process consumers can read it.
// A nil *OnlineStore is a valid no-op store, used when no Redis
// address is configured.
type OnlineStore struct {
	rdb *redis.Client
	ttl time.Duration
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

func NewOnlineStore(ctx context.Context, cfg RedisConfig) (*OnlineStore, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &OnlineStore{rdb: rdb, ttl: ttl}, nil
}

func onlineKey(user domain.UserID) string { return "tunelink:online:" + string(user) }

func (s *OnlineStore) Online(ctx context.Context, user domain.UserID) error {
	if s == nil {
		return nil
	}
	return s.rdb.Set(ctx, onlineKey(user), time.Now().Unix(), s.ttl).Err()
}

func (s *OnlineStore) Offline(ctx context.Context, user domain.UserID) error {
	if s == nil {
		return nil
	}
	return s.rdb.Del(ctx, onlineKey(user)).Err()
}

func (s *OnlineStore) IsOnline(ctx context.Context, user domain.UserID) (bool, error) {
	if s == nil {
		return false, nil
	}
	err := s.rdb.Get(ctx, onlineKey(user)).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
