package db

import (
	"context"
	"sync"
	"time"

	"Gin_postgres_redis_robe_tracker/store"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultReadyTimeout = 10 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// Repo 远程记录存储。首次使用前后台轮询数据库直到可用（握手只完成一次并缓存），
// 每次调用最多等待 readyTimeout。
type Repo struct {
	DB *gorm.DB

	readyTimeout time.Duration
	pollInterval time.Duration
	log          *zap.Logger

	startOnce sync.Once
	ready     chan struct{}
	stop      chan struct{}
	stopOnce  sync.Once
}

type Option func(*Repo)

func WithReadyTimeout(d time.Duration) Option {
	return func(r *Repo) {
		if d > 0 {
			r.readyTimeout = d
		}
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Repo) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Repo) { r.log = l }
}

func NewRepo(db *gorm.DB, opts ...Option) *Repo {
	r := &Repo{
		DB:           db,
		readyTimeout: DefaultReadyTimeout,
		pollInterval: defaultPollInterval,
		log:          zap.NewNop(),
		ready:        make(chan struct{}),
		stop:         make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Ready 等待就绪握手完成；超时或 ctx 结束返回 ErrStoreUnavailable
func (r *Repo) Ready(ctx context.Context) error {
	r.startOnce.Do(func() { go r.handshake() })

	select {
	case <-r.ready:
		return nil
	default:
	}

	t := time.NewTimer(r.readyTimeout)
	defer t.Stop()
	select {
	case <-r.ready:
		return nil
	case <-t.C:
		return errors.Wrapf(store.ErrStoreUnavailable, "not ready after %s", r.readyTimeout)
	case <-ctx.Done():
		return errors.Wrap(store.ErrStoreUnavailable, ctx.Err().Error())
	}
}

func (r *Repo) handshake() {
	attempt := 0
	for {
		attempt++
		err := r.probe()
		if err == nil {
			r.log.Info("record store ready", zap.Int("attempts", attempt))
			close(r.ready)
			return
		}
		if attempt == 1 || attempt%20 == 0 {
			r.log.Warn("record store not ready", zap.Int("attempt", attempt), zap.Error(err))
		}
		select {
		case <-r.stop:
			return
		case <-time.After(r.pollInterval):
		}
	}
}

func (r *Repo) probe() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return err
	}
	return Migrate(r.DB.WithContext(ctx))
}

// Close 停止握手轮询并关闭连接池
func (r *Repo) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
