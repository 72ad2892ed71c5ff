package session

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore 未启用 redis 时使用，单实例部署足够
type MemoryStore struct {
	c   *cache.Cache
	ttl time.Duration
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: cache.New(ttl, 2*ttl), ttl: ttl}
}

func (s *MemoryStore) Start(ctx context.Context, id string, mode Mode) (*ScanSession, error) {
	if !mode.Valid() {
		return nil, ErrInvalidMode
	}
	ss := newSession(id, mode, s.ttl)
	s.c.Set(id, ss, s.ttl)
	return &ss, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*ScanSession, error) {
	v, ok := s.c.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	ss := v.(ScanSession)
	return &ss, nil
}

func (s *MemoryStore) Close(ctx context.Context, id string) error {
	if _, ok := s.c.Get(id); !ok {
		return ErrSessionNotFound
	}
	s.c.Delete(id)
	return nil
}

func (s *MemoryStore) Active(ctx context.Context, mode Mode) (int64, error) {
	var n int64
	for _, it := range s.c.Items() {
		if ss, ok := it.Object.(ScanSession); ok && ss.Mode == mode {
			n++
		}
	}
	return n, nil
}
