package locker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Redis is a Locker shared by every instance talking to the same Redis.
type Redis struct {
	client *redislock.Client
	ttl    time.Duration
	retry  time.Duration
	log    *logrus.Logger
}

// NewRedis wraps an already connected client. ttl bounds how long a crashed
// holder can block a key.
func NewRedis(rdb *redis.Client, ttl time.Duration, log *logrus.Logger) *Redis {
	return &Redis{
		client: redislock.New(rdb),
		ttl:    ttl,
		retry:  50 * time.Millisecond,
		log:    log,
	}
}

// ConnectRedis pings addr with backoff and returns the client.
func ConnectRedis(ctx context.Context, addr string, attempts int, log *logrus.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		PoolSize: 100,
	})

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			log.WithFields(logrus.Fields{"addr": addr, "attempt": attempt}).Info("connected to redis")
			return rdb, nil
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		log.WithFields(logrus.Fields{"addr": addr, "attempt": attempt}).Warnf("failed to connect redis: %v; retrying in %s", err, sleep)
		select {
		case <-time.After(sleep):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	_ = rdb.Close()
	return nil, fmt.Errorf("connect redis %s: %w", addr, err)
}

func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := r.client.Obtain(ctx, "lock:"+key, r.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(r.retry),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, err
	}

	return func() {
		// Release with a fresh context so a cancelled request still frees the key.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.log.WithField("key", key).Warn("failed to release redis lock: " + err.Error())
		}
	}, nil
}
