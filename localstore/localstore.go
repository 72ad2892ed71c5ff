// Package localstore is the in-process record store: a plain list kept in memory,
// optionally mirrored to a JSON file after every mutation.
package localstore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Gin_postgres_redis_robe_tracker/models"
	"Gin_postgres_redis_robe_tracker/store"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type Store struct {
	mu      sync.Mutex
	records []models.Record
	path    string
}

var _ store.RecordStore = (*Store)(nil)

// New 空路径表示只在内存中保存
func New(path string) (*Store, error) {
	s := &Store{path: path}
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read snapshot")
	}
	if len(b) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(b, &s.records); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", path)
	}
	// 旧快照里没有 key 的记录补一个，保证后续可以按 key 更新
	for i := range s.records {
		if s.records[i].Key == "" {
			s.records[i].Key = uuid.NewString()
		}
	}
	return s, nil
}

func (s *Store) LoadAll(ctx context.Context) ([]models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *Store) Append(ctx context.Context, rec models.Record) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// 与数据库的部分唯一索引一致：每个编号最多一条 borrowed
	if rec.IsBorrowed() {
		for i := range s.records {
			if s.records[i].ExternalID == rec.ExternalID && s.records[i].IsBorrowed() {
				return models.Record{}, errors.Wrapf(store.ErrOpenLoanExists, "code %q", rec.ExternalID)
			}
		}
	}
	now := time.Now().UTC()
	rec.Key = uuid.NewString()
	rec.CreatedAt = now
	rec.UpdatedAt = now
	s.records = append(s.records, rec)
	if err := s.persist(); err != nil {
		s.records = s.records[:len(s.records)-1]
		return models.Record{}, err
	}
	return rec, nil
}

func (s *Store) UpdateStatus(ctx context.Context, key string, status models.Status, returnedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].Key != key {
			continue
		}
		prev := s.records[i]
		s.records[i].Status = status
		s.records[i].ReturnedAt = returnedAt
		s.records[i].UpdatedAt = time.Now().UTC()
		if err := s.persist(); err != nil {
			s.records[i] = prev
			return err
		}
		return nil
	}
	return errors.Wrapf(store.ErrRecordNotFound, "key %s", key)
}

// persist 先写临时文件再 rename，避免半截快照
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}
	b, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".robes-*.json")
	if err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write snapshot")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return errors.Wrap(err, "write snapshot")
	}
	return errors.Wrap(os.Rename(tmp.Name(), s.path), "replace snapshot")
}
