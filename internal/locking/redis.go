package locking

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// defaultTTL must exceed any realistic job duration so a crashed holder's
// lock expires instead of wedging the schedule forever.
const defaultTTL = 30 * time.Minute

// releaseScript deletes the key only when this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RedisManager implements Manager over a shared Redis, which is what makes
// mutual exclusion hold across replicated scheduler processes.
type RedisManager struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOption configures the manager.
type RedisOption func(*RedisManager)

// WithTTL overrides the lock expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(m *RedisManager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// NewRedisManager constructs a Redis-backed lock manager.
func NewRedisManager(client *redis.Client, opts ...RedisOption) (*RedisManager, error) {
	if client == nil {
		return nil, errors.New("locking: nil redis client")
	}
	m := &RedisManager{client: client, ttl: defaultTTL}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TryAcquire attempts a non-blocking SET NX. A held lock yields (nil, nil).
func (m *RedisManager) TryAcquire(ctx context.Context, key string) (*Lock, error) {
	holder := newHolderID()
	ok, err := m.client.SetNX(ctx, key, holder, m.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &Lock{Key: key, HolderID: holder, AcquiredAt: time.Now().UTC()}, nil
}

// Release frees the lock if this holder still owns it. Releasing an expired
// or already released lock is a no-op.
func (m *RedisManager) Release(ctx context.Context, lock *Lock) error {
	if lock == nil {
		return ErrNilLock
	}
	return releaseScript.Run(ctx, m.client, []string{lock.Key}, lock.HolderID).Err()
}
