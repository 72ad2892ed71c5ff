// store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"Gin_postgres_redis_robe_tracker/models"
)

var (
	// 后端在限定时间内未就绪
	ErrStoreUnavailable = errors.New("record store unavailable")
	// 更新时 key 不存在
	ErrRecordNotFound = errors.New("record not found")
	// 存储层唯一索引拒绝：同一编号已有未归还记录
	ErrOpenLoanExists = errors.New("open loan already exists for code")
)

// RecordStore 本地 / 远程两种实现共用的契约，调用方不区分具体实现
type RecordStore interface {
	LoadAll(ctx context.Context) ([]models.Record, error)
	// Append 持久化新记录，返回带存储层 Key 的记录
	Append(ctx context.Context, rec models.Record) (models.Record, error)
	UpdateStatus(ctx context.Context, key string, status models.Status, returnedAt *time.Time) error
}
