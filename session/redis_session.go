package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Store = (*RedisStore)(nil)

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func key(id string) string        { return fmt.Sprintf("scan:sess:%s", id) }
func modeSetKey(mode Mode) string { return fmt.Sprintf("scan:active:%s", mode) }

func (s *RedisStore) Start(ctx context.Context, id string, mode Mode) (*ScanSession, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	ss := newSession(id, mode, s.ttl)
	b, _ := json.Marshal(ss)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, modeSetKey(mode), id)
	pipe.Expire(ctx, modeSetKey(mode), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &ss, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*ScanSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var ss ScanSession
	if err := json.Unmarshal(b, &ss); err != nil {
		return nil, err
	}
	return &ss, nil
}

func (s *RedisStore) Close(ctx context.Context, id string) error {
	ss, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(id))
	pipe.SRem(ctx, modeSetKey(ss.Mode), id)
	_, err = pipe.Exec(ctx)
	return err
}

// Active 顺带清理集合里已过期的会话 id
func (s *RedisStore) Active(ctx context.Context, mode Mode) (int64, error) {
	ids, err := s.rdb.SMembers(ctx, modeSetKey(mode)).Result()
	if err != nil && err != redis.Nil {
		return 0, err
	}
	var n int64
	for _, id := range ids {
		exists, err := s.rdb.Exists(ctx, key(id)).Result()
		if err != nil {
			return 0, err
		}
		if exists == 0 {
			_ = s.rdb.SRem(ctx, modeSetKey(mode), id).Err()
			continue
		}
		n++
	}
	return n, nil
}
