package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

type NotificationRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Notification) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Notification, error)
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Notification, error)
	MarkRead(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error

	ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.Notification, error)
	MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.Notification) error
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *notificationRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Notification) error {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Create(row).Error; err != nil {
		return storeerr.FromGorm("create notification", err)
	}
	return nil
}

func (r *notificationRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Notification, error) {
	var row types.Notification
	if err := r.conn(tx).WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, storeerr.FromGorm("get notification", err)
	}
	return &row, nil
}

func (r *notificationRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Notification, error) {
	var rows []*types.Notification
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").Find(&rows).Error
	if err != nil {
		return nil, storeerr.FromGorm("list notifications for user", err)
	}
	return rows, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	res := r.conn(tx).WithContext(ctx).Model(&types.Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{"read": true, "dirty": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return storeerr.FromGorm("mark notification read", res.Error)
	}
	if res.RowsAffected == 0 {
		return storeerr.Newf(storeerr.KindNotFound, "", "notification %s not found", id)
	}
	return nil
}

func (r *notificationRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.Notification{}).Error
	if err != nil {
		return storeerr.FromGorm("delete notifications for user", err)
	}
	return nil
}

func (r *notificationRepo) ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.Notification, error) {
	var rows []*types.Notification
	if err := r.conn(tx).WithContext(ctx).Where("dirty = ?", true).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list dirty notifications", err)
	}
	return rows, nil
}

func (r *notificationRepo) MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.conn(tx).WithContext(ctx).Model(&types.Notification{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{"dirty": false, "updated_at": at}).Error
	if err != nil {
		return storeerr.FromGorm("mark notifications clean", err)
	}
	return nil
}

func (r *notificationRepo) ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.Notification) error {
	row.Dirty = false
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "excluded.updated_at >= notifications.updated_at"},
			}},
		}).
		Create(row).Error
	if err != nil {
		return storeerr.FromGorm("apply remote notification", err)
	}
	return nil
}
