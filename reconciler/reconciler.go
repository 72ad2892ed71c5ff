// Package reconciler turns decoded scans into borrow and return decisions and keeps
// the in-memory record set in step with the record store.
package reconciler

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"Gin_postgres_redis_robe_tracker/models"
	"Gin_postgres_redis_robe_tracker/store"

	"go.uber.org/zap"
)

const (
	actionBorrow = "borrow"
	actionReturn = "return"
)

type Reconciler struct {
	store   store.RecordStore
	log     *zap.Logger
	now     func() time.Time
	locker  Locker
	metrics *Metrics
	codes   *keyedMutex

	mu      sync.RWMutex
	records []models.Record
}

type Option func(*Reconciler)

func WithLogger(l *zap.Logger) Option { return func(r *Reconciler) { r.log = l } }

func WithClock(now func() time.Time) Option { return func(r *Reconciler) { r.now = now } }

func WithLocker(l Locker) Option { return func(r *Reconciler) { r.locker = l } }

func WithMetrics(m *Metrics) Option { return func(r *Reconciler) { r.metrics = m } }

func New(s store.RecordStore, opts ...Option) *Reconciler {
	r := &Reconciler{
		store: s,
		log:   zap.NewNop(),
		now:   time.Now,
		codes: newKeyedMutex(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Load replaces the in-memory set with the store's records.
func (r *Reconciler) Load(ctx context.Context) error {
	if err := r.reload(ctx); err != nil {
		return err
	}
	r.log.Info("records loaded", zap.Int("count", len(r.Snapshot())))
	return nil
}

// Sync reloads the set when other instances may write to the same store.
// Single-instance deployments keep the set loaded at startup.
func (r *Reconciler) Sync(ctx context.Context) error {
	if r.locker == nil {
		return nil
	}
	return r.reload(ctx)
}

func (r *Reconciler) reload(ctx context.Context) error {
	rs, err := r.store.LoadAll(ctx)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.records = rs
	r.mu.Unlock()
	return nil
}

func (r *Reconciler) HandleBorrowScan(ctx context.Context, raw string) Outcome {
	start := time.Now()
	o := r.borrow(ctx, strings.TrimSpace(raw))
	r.finish(actionBorrow, o, start)
	return o
}

func (r *Reconciler) HandleReturnScan(ctx context.Context, raw string) Outcome {
	start := time.Now()
	o := r.giveBack(ctx, strings.TrimSpace(raw))
	r.finish(actionReturn, o, start)
	return o
}

func (r *Reconciler) borrow(ctx context.Context, code string) Outcome {
	if code == "" {
		return failed(code, ErrEmptyCode)
	}
	unlock, err := r.lock(ctx, code)
	if err != nil {
		return failed(code, err)
	}
	defer unlock()
	if err := r.Sync(ctx); err != nil {
		return failed(code, err)
	}

	r.mu.RLock()
	kind := decideBorrow(r.records, code)
	r.mu.RUnlock()
	if kind != KindBorrowed {
		return Outcome{Kind: kind, Code: code}
	}

	rec, err := r.store.Append(ctx, models.NewBorrow(code, r.now().UTC()))
	if errors.Is(err, store.ErrOpenLoanExists) {
		// 别的实例已经借出，本地集合过期：重新加载后再判断一次
		if rerr := r.reload(ctx); rerr != nil {
			return failed(code, err)
		}
		r.mu.RLock()
		kind = decideBorrow(r.records, code)
		r.mu.RUnlock()
		if kind != KindBorrowed {
			return Outcome{Kind: kind, Code: code}
		}
	}
	if err != nil {
		return failed(code, err)
	}

	r.mu.Lock()
	if indexOfKey(r.records, rec.Key) < 0 {
		r.records = append(r.records, rec)
	}
	r.mu.Unlock()
	return Outcome{Kind: KindBorrowed, Code: code, Record: &rec}
}

func (r *Reconciler) giveBack(ctx context.Context, code string) Outcome {
	if code == "" {
		return failed(code, ErrEmptyCode)
	}
	unlock, err := r.lock(ctx, code)
	if err != nil {
		return failed(code, err)
	}
	defer unlock()
	if err := r.Sync(ctx); err != nil {
		return failed(code, err)
	}

	r.mu.RLock()
	kind, i := decideReturn(r.records, code)
	var target models.Record
	if i >= 0 {
		target = r.records[i]
	}
	r.mu.RUnlock()
	if kind != KindReturned {
		return Outcome{Kind: kind, Code: code}
	}

	at := r.now().UTC()
	if err := r.store.UpdateStatus(ctx, target.Key, models.StatusReturned, &at); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			// 下次扫码按存储里的记录重新判断
			if rerr := r.reload(ctx); rerr != nil {
				r.log.Warn("reload after missing record", zap.String("code", code), zap.Error(rerr))
			}
		}
		return failed(code, err)
	}

	r.mu.Lock()
	if j := indexOfKey(r.records, target.Key); j >= 0 {
		r.records[j].Status = models.StatusReturned
		r.records[j].ReturnedAt = &at
		target = r.records[j]
	}
	r.mu.Unlock()
	return Outcome{Kind: KindReturned, Code: code, Record: &target}
}

func (r *Reconciler) lock(ctx context.Context, code string) (func(), error) {
	unlock := r.codes.Lock(code)
	if r.locker == nil {
		return unlock, nil
	}
	release, err := r.locker.Lock(ctx, code)
	if err != nil {
		unlock()
		return nil, err
	}
	return func() {
		release()
		unlock()
	}, nil
}

func (r *Reconciler) finish(action string, o Outcome, start time.Time) {
	r.metrics.observe(action, o, time.Since(start).Seconds())
	switch {
	case o.Kind == KindFailed:
		r.log.Error("scan failed", zap.String("action", action), zap.String("code", o.Code), zap.Error(o.Err))
	case o.Rejected():
		r.log.Info("scan rejected", zap.String("action", action), zap.String("code", o.Code), zap.String("outcome", string(o.Kind)))
	default:
		r.log.Info("scan applied", zap.String("action", action), zap.String("code", o.Code), zap.String("key", o.Record.Key))
	}
}

// Snapshot returns a copy of the in-memory set in insertion order.
func (r *Reconciler) Snapshot() []models.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Record, len(r.records))
	copy(out, r.records)
	return out
}

func (r *Reconciler) Stats() models.Counts {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return models.CountRecords(r.records)
}

// History returns the records for code, or every record when code is empty.
func (r *Reconciler) History(code string) []models.Record {
	code = strings.TrimSpace(code)
	all := r.Snapshot()
	if code == "" {
		return all
	}
	out := make([]models.Record, 0, 2)
	for _, rec := range all {
		if rec.ExternalID == code {
			out = append(out, rec)
		}
	}
	return out
}

func indexOfKey(rs []models.Record, key string) int {
	for i := range rs {
		if rs[i].Key == key {
			return i
		}
	}
	return -1
}
