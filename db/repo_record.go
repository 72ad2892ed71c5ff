package db

import (
	"context"
	"strings"
	"time"

	"Gin_postgres_redis_robe_tracker/models"
	"Gin_postgres_redis_robe_tracker/store"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

var _ store.RecordStore = (*Repo)(nil)

func (r *Repo) LoadAll(ctx context.Context) ([]models.Record, error) {
	if err := r.Ready(ctx); err != nil {
		return nil, err
	}
	var rs []models.Record
	if err := r.DB.WithContext(ctx).
		Order("borrowed_at ASC, created_at ASC").
		Find(&rs).Error; err != nil {
		return nil, errors.Wrap(err, "load records")
	}
	return rs, nil
}

// Append 新建借出记录，Key 由这里分配；部分唯一索引兜底并发借出
func (r *Repo) Append(ctx context.Context, rec models.Record) (models.Record, error) {
	if err := r.Ready(ctx); err != nil {
		return models.Record{}, err
	}
	rec.Key = uuid.NewString()
	if err := r.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		if isUniqueViolation(err) {
			return models.Record{}, errors.Wrapf(store.ErrOpenLoanExists, "code %q", rec.ExternalID)
		}
		return models.Record{}, errors.Wrap(err, "insert record")
	}
	return rec, nil
}

func (r *Repo) UpdateStatus(ctx context.Context, key string, status models.Status, returnedAt *time.Time) error {
	if err := r.Ready(ctx); err != nil {
		return err
	}
	res := r.DB.WithContext(ctx).Model(&models.Record{}).
		Where("store_key = ?", key).
		Updates(map[string]any{
			"status":      status,
			"returned_at": returnedAt,
			"updated_at":  time.Now().UTC(),
		})
	if res.Error != nil {
		return errors.Wrap(res.Error, "update record status")
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(store.ErrRecordNotFound, "key %s", key)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// 未开启错误翻译的驱动
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
