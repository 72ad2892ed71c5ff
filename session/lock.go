package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var ErrCodeBusy = errors.New("item code is being processed elsewhere")

// RedisLocker 跨实例按编号串行化扫描
type RedisLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	wait   time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{locker: redislock.New(rdb), ttl: ttl, wait: wait}
}

func lockKey(code string) string { return fmt.Sprintf("lock:robe:%s", code) }

func (l *RedisLocker) Lock(ctx context.Context, code string) (func(), error) {
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), int(l.wait/(50*time.Millisecond))),
	}
	lock, err := l.locker.Obtain(ctx, lockKey(code), l.ttl, opts)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrCodeBusy
	}
	if err != nil {
		return nil, err
	}
	// 存储调用没有超时，持锁期间按 ttl/2 续期
	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(context.WithoutCancel(ctx), lock, stop, done)

	return func() {
		close(stop)
		<-done
		_ = lock.Release(context.WithoutCancel(ctx))
	}, nil
}

func (l *RedisLocker) keepAlive(ctx context.Context, lock *redislock.Lock, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	t := time.NewTicker(l.ttl / 2)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := lock.Refresh(ctx, l.ttl, nil); err != nil {
				return
			}
		}
	}
}
