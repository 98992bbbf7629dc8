package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

type SystemLogRepo interface {
	// Record appends one entry. Append-only: there is no update or delete.
	Record(ctx context.Context, tx *gorm.DB, level types.LogLevel, message string, details map[string]any) error
	List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SystemLog, error)
}

type systemLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSystemLogRepo(db *gorm.DB, baseLog *logger.Logger) SystemLogRepo {
	return &systemLogRepo{db: db, log: baseLog.With("repo", "SystemLogRepo")}
}

func (r *systemLogRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *systemLogRepo) Record(ctx context.Context, tx *gorm.DB, level types.LogLevel, message string, details map[string]any) error {
	row := types.SystemLog{
		ID:        uuid.New(),
		Level:     level,
		Message:   message,
		Details:   datatypes.JSONMap(details),
		CreatedAt: time.Now().UTC(),
	}
	if err := r.conn(tx).WithContext(ctx).Create(&row).Error; err != nil {
		return storeerr.FromGorm("record system log", err)
	}
	return nil
}

func (r *systemLogRepo) List(ctx context.Context, tx *gorm.DB, limit int) ([]*types.SystemLog, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []*types.SystemLog
	err := r.conn(tx).WithContext(ctx).
		Order("created_at desc").
		Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, storeerr.FromGorm("list system logs", err)
	}
	return rows, nil
}
