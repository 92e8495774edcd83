package runguard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/timmy/ticketpulse/internal/logger"
)

const (
	DefaultLockTTL   = 30 * time.Minute
	DefaultKeyPrefix = "ticketpulse:lock:"

	releaseTimeout = 5 * time.Second
)

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lock only if it still carries our token.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisGuard serializes runs across replicas with SET NX PX locks.
// A held lock is extended every RenewInterval, so a run may take longer than
// the TTL; a crashed holder stops renewing and its lock lapses after one TTL.
type RedisGuard struct {
	redis  redis.Cmdable
	ttl    time.Duration
	renew  time.Duration
	prefix string
	logger *logger.Logger
}

// RedisGuardConfig holds configuration for the Redis guard.
type RedisGuardConfig struct {
	// Redis is required.
	Redis redis.Cmdable

	// TTL bounds how long a lock survives its holder. Default: 30m.
	TTL time.Duration

	// RenewInterval is how often a held lock is extended to a full TTL.
	// Default: TTL/3. Negative disables renewal.
	RenewInterval time.Duration

	// KeyPrefix namespaces lock keys. Default: "ticketpulse:lock:".
	KeyPrefix string

	Logger *logger.Logger
}

// NewRedisGuard creates a Redis-backed guard.
func NewRedisGuard(cfg *RedisGuardConfig) (*RedisGuard, error) {
	if cfg == nil || cfg.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	renew := cfg.RenewInterval
	if renew == 0 {
		renew = ttl / 3
	}
	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	log := cfg.Logger
	if log == nil {
		log = logger.GetDefault()
	}
	return &RedisGuard{redis: cfg.Redis, ttl: ttl, renew: renew, prefix: prefix, logger: log}, nil
}

func (g *RedisGuard) TryAcquire(ctx context.Context, key string) (func(), error) {
	token := uuid.New().String()
	lockKey := g.prefix + key

	ok, err := g.redis.SetNX(ctx, lockKey, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return nil, ErrHeld
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	if g.renew > 0 {
		go g.keepAlive(lockKey, token, stop, done)
	} else {
		close(done)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done

			// The run's ctx may already be cancelled; release on a fresh one.
			relCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := releaseScript.Run(relCtx, g.redis, []string{lockKey}, token).Err(); err != nil {
				g.logger.WithField("lock", lockKey).WithError(err).Warn("Failed to release run lock")
			}
		})
	}, nil
}

// keepAlive extends lockKey until stop is closed or the lock is no longer ours.
func (g *RedisGuard) keepAlive(lockKey, token string, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(g.renew)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		n, err := renewScript.Run(ctx, g.redis, []string{lockKey}, token, g.ttl.Milliseconds()).Int64()
		cancel()
		switch {
		case err != nil:
			// Transient; the lock still has the rest of its TTL.
			g.logger.WithField("lock", lockKey).WithError(err).Warn("Failed to renew run lock")
		case n == 0:
			g.logger.WithField("lock", lockKey).Warn("Run lock lost before release")
			return
		}
	}
}

func (g *RedisGuard) Held(ctx context.Context, key string) (bool, error) {
	n, err := g.redis.Exists(ctx, g.prefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check lock %s: %w", key, err)
	}
	return n > 0, nil
}
