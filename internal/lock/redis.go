package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock key only when it still holds our
// token, so an expired lock reacquired by another instance is never
// released from here.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Redis is a TryLocker backed by SET NX with a TTL. The TTL is a crash
// backstop: a scheduler that dies mid-bookkeeping leaves the lock to
// expire instead of wedging the event. It should comfortably exceed
// the time spent under the lock, not the fetch that follows it.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates a Redis TryLocker. A zero ttl defaults to 30s.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{client: client, ttl: ttl}
}

// TryAcquire implements TryLocker.
func (r *Redis) TryAcquire(ctx context.Context, name string) (func(), bool, error) {
	key := "scorewire:lock:" + name
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("setnx %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = r.client.Eval(ctx, releaseScript, []string{key}, token).Err()
	}
	return release, true, nil
}
