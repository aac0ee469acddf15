package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/quizbot/core/logger"
)

// Locker serializes work per user id. Work for distinct users never waits
// on each other.
type Locker interface {
	WithLock(ctx context.Context, userID int64, fn func(context.Context) error) error
}

// UnlockFunc releases a lock taken by a DistributedLocker.
type UnlockFunc func(context.Context) error

// DistributedLocker extends per-user exclusion across processes.
type DistributedLocker interface {
	Lock(ctx context.Context, userID int64) (UnlockFunc, error)
}

type lockEntry struct {
	sem  chan struct{}
	refs int
}

// KeyedLocker is the in-process Locker. Entries are reference counted and
// dropped once nobody holds or waits for them.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[int64]*lockEntry
	dist  DistributedLocker
}

// LockerOption configures a KeyedLocker.
type LockerOption func(*KeyedLocker)

// WithDistributed takes dl after the local lock on every call.
func WithDistributed(dl DistributedLocker) LockerOption {
	return func(l *KeyedLocker) {
		l.dist = dl
	}
}

// NewKeyedLocker constructs an empty KeyedLocker.
func NewKeyedLocker(opts ...LockerOption) *KeyedLocker {
	l := &KeyedLocker{locks: make(map[int64]*lockEntry)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *KeyedLocker) acquire(userID int64) *lockEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[userID]
	if !ok {
		e = &lockEntry{sem: make(chan struct{}, 1)}
		l.locks[userID] = e
	}
	e.refs++
	return e
}

func (l *KeyedLocker) release(userID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[userID]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(l.locks, userID)
	}
}

// WithLock runs fn while holding the lock of userID. Waiting honours ctx.
func (l *KeyedLocker) WithLock(ctx context.Context, userID int64, fn func(context.Context) error) error {
	e := l.acquire(userID)
	defer l.release(userID)

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-e.sem }()

	if l.dist != nil {
		unlock, err := l.dist.Lock(ctx, userID)
		if err != nil {
			return fmt.Errorf("acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				logger.Warn(ctx, logger.CompSession, "session.unlock_failed",
					slog.Int64("user_id", userID),
					slog.String("error", err.Error()),
				)
			}
		}()
	}

	return fn(ctx)
}

// held reports the number of live entries; used by tests.
func (l *KeyedLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// DefaultLockTTL bounds how long a RedisLocker key survives its holder.
const DefaultLockTTL = 30 * time.Second

// ErrLockBusy is returned when a RedisLocker gives up waiting.
var ErrLockBusy = errors.New("dialogue: lock busy")

var unlockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements DistributedLocker with SET NX PX and a token
// checked on release.
type RedisLocker struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	poll   time.Duration
}

// NewRedisLocker builds a locker whose keys live under prefix+"lock:".
func NewRedisLocker(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, poll: 25 * time.Millisecond}
}

func (r *RedisLocker) key(userID int64) string {
	return r.prefix + "lock:" + strconv.FormatInt(userID, 10)
}

// Lock polls until the key is free or ctx ends.
func (r *RedisLocker) Lock(ctx context.Context, userID int64) (UnlockFunc, error) {
	key := r.key(userID)
	token := uuid.NewString()

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			return func(ctx context.Context) error {
				return unlockScript.Run(ctx, r.client, []string{key}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrLockBusy, ctx.Err())
		case <-ticker.C:
		}
	}
}
