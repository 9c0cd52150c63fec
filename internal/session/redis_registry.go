package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix  = "zumbor:session:"
	redisReleaseTTL = 5 * time.Second
)

// Only the holder of the token may touch the lease.
var (
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

// RedisRegistry shares session leases between processes through Redis.
// A lease is a key with a TTL; the holder renews it every ttl/3 until release,
// so a crashed process frees its users after at most one ttl.
type RedisRegistry struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisRegistry creates a registry with the given lease TTL.
func NewRedisRegistry(client *redis.Client, ttl time.Duration) *RedisRegistry {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisRegistry{client: client, ttl: ttl}
}

func redisKey(user string) string {
	return redisKeyPrefix + user
}

// Acquire takes the lease for user with SET NX and starts renewing it.
func (r *RedisRegistry) Acquire(ctx context.Context, user string) (*Guard, error) {
	token := uuid.NewString()
	key := redisKey(user)

	ok, err := r.client.SetNX(ctx, key, token, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring session lease for %s: %w", user, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionAlreadyActive, user)
	}

	renewCtx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go r.renew(renewCtx, done, key, token)

	return newGuard(user, token, func() error {
		stop()
		<-done
		relCtx, cancel := context.WithTimeout(context.Background(), redisReleaseTTL)
		defer cancel()
		if err := releaseScript.Run(relCtx, r.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("releasing %s: %w", key, err)
		}
		return nil
	}), nil
}

func (r *RedisRegistry) renew(ctx context.Context, done chan<- struct{}, key, token string) {
	defer close(done)

	ticker := time.NewTicker(r.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := renewScript.Run(ctx, r.client, []string{key}, token, r.ttl.Milliseconds()).Int()
			if err != nil {
				if ctx.Err() == nil {
					slog.Warn("renewing session lease", "key", key, "error", err)
				}
				continue
			}
			if n == 0 {
				slog.Warn("session lease lost", "key", key, "sessionID", token)
				return
			}
		}
	}
}

// Active reports whether any process holds a lease for user.
func (r *RedisRegistry) Active(ctx context.Context, user string) (bool, error) {
	n, err := r.client.Exists(ctx, redisKey(user)).Result()
	if err != nil {
		return false, fmt.Errorf("checking session lease for %s: %w", user, err)
	}
	return n > 0, nil
}
