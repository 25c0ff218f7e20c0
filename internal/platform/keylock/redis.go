package keylock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-adaptive/internal/config"
	goredis "github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix    = "scry:lock:"
	redisRetryDelay   = 25 * time.Millisecond
	redisDialTimeout  = 5 * time.Second
	defaultRedisLease = 10 * time.Second
)

// releaseScript deletes the key only if it still holds our token, so an
// expired lease never frees a lock taken over by someone else.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// renewScript extends the lease only while the key still holds our token.
var renewScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisLocker is a Locker backed by Redis SET NX with a lease. The lease
// bounds how long a crashed holder can block others. While a lock is held
// the lease is extended every third of its length, so holders may outlive
// a single lease.
type RedisLocker struct {
	rdb    goredis.UniversalClient
	lease  time.Duration
	logger *slog.Logger
}

var _ Locker = (*RedisLocker)(nil)

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: redisDialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewRedisLocker creates a RedisLocker. A non-positive lease uses 10s.
func NewRedisLocker(rdb goredis.UniversalClient, lease time.Duration, logger *slog.Logger) *RedisLocker {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if lease <= 0 {
		lease = defaultRedisLease
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		rdb:    rdb,
		lease:  lease,
		logger: logger.With(slog.String("component", "redis_locker")),
	}
}

// Acquire implements Locker. It polls until the key is free or ctx is done.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (Release, error) {
	redisKey := redisKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(redisRetryDelay)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.lease).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			return l.hold(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrLockTimeout, key, ctx.Err())
		case <-ticker.C:
		}
	}
}

// hold keeps the lease alive until the returned Release is called.
func (l *RedisLocker) hold(redisKey, token string) Release {
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.renew(stop, redisKey, token)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.release(redisKey, token)
		})
	}
}

func (l *RedisLocker) renew(stop <-chan struct{}, redisKey, token string) {
	every := max(l.lease/3, time.Millisecond)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), every)
		extended, err := renewScript.Run(ctx, l.rdb, []string{redisKey}, token, l.lease.Milliseconds()).Int()
		cancel()
		switch {
		case err != nil:
			l.logger.Warn("failed to renew lock lease",
				slog.String("key", redisKey),
				slog.String("error", err.Error()))
		case extended == 0:
			l.logger.Error("lock lease lost before release",
				slog.String("key", redisKey))
			return
		}
	}
}

func (l *RedisLocker) release(redisKey, token string) {
	// The caller's context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), redisDialTimeout)
	defer cancel()
	if err := releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Err(); err != nil {
		l.logger.Warn("failed to release lock",
			slog.String("key", redisKey),
			slog.String("error", err.Error()))
	}
}
