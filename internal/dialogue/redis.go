package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/logger"
)

// DefaultRedisPrefix namespaces dialogue keys.
const DefaultRedisPrefix = "quizbot:dialogue:"

// RedisStore keeps encoded states in Redis, one key per user.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithPrefix overrides DefaultRedisPrefix.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithTTL expires idle conversations; zero keeps them forever.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(userID int64) string {
	return s.prefix + strconv.FormatInt(userID, 10)
}

// Get loads the state of userID. A payload that no longer decodes is
// reported and treated as Start so the user is never stuck.
func (s *RedisStore) Get(ctx context.Context, userID int64) (State, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Start{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get state: %w", err)
	}
	st, err := Unmarshal(raw)
	if err != nil {
		logger.Warn(ctx, logger.CompSession, "session.decode_failed",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return Start{}, nil
	}
	return st, nil
}

// Set stores s; Start clears the key.
func (s *RedisStore) Set(ctx context.Context, userID int64, st State) error {
	if _, idle := st.(Start); idle || st == nil {
		return s.Delete(ctx, userID)
	}
	raw, err := Marshal(st)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set state: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID int64) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis delete state: %w", err)
	}
	return nil
}
