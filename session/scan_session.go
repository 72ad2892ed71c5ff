package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("scan session not found")
	ErrInvalidMode     = errors.New("invalid scan mode")
)

type Mode string

const (
	ModeBorrow Mode = "borrow"
	ModeReturn Mode = "return"
)

func (m Mode) Valid() bool { return m == ModeBorrow || m == ModeReturn }

// ScanSession 一次打开的扫码器会话；成功或被拒绝的扫描后关闭
type ScanSession struct {
	ID        string `json:"id"`
	Mode      Mode   `json:"mode"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

type Store interface {
	Start(ctx context.Context, id string, mode Mode) (*ScanSession, error)
	Get(ctx context.Context, id string) (*ScanSession, error)
	Close(ctx context.Context, id string) error
	// Active 当前某模式下打开的会话数
	Active(ctx context.Context, mode Mode) (int64, error)
}

func newSession(id string, mode Mode, ttl time.Duration) ScanSession {
	now := time.Now()
	return ScanSession{ID: id, Mode: mode, IssuedAt: now.Unix(), ExpiresAt: now.Add(ttl).Unix()}
}
