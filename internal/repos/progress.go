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

type ProgressRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.UserProgress) error
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.UserProgress, error)
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserProgress, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.UserProgress) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error

	ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.UserProgress, error)
	MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.UserProgress) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	return &progressRepo{db: db, log: baseLog.With("repo", "ProgressRepo")}
}

func (r *progressRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *progressRepo) Create(ctx context.Context, tx *gorm.DB, row *types.UserProgress) error {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Create(row).Error; err != nil {
		return storeerr.FromGorm("create progress", err)
	}
	return nil
}

func (r *progressRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*types.UserProgress, error) {
	var row types.UserProgress
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&row).Error
	if err != nil {
		return nil, storeerr.FromGorm("get progress", err)
	}
	return &row, nil
}

func (r *progressRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserProgress, error) {
	var rows []*types.UserProgress
	if err := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list progress for user", err)
	}
	return rows, nil
}

func (r *progressRepo) Save(ctx context.Context, tx *gorm.DB, row *types.UserProgress) error {
	row.UpdatedAt = time.Now().UTC()
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Save(row).Error; err != nil {
		return storeerr.FromGorm("save progress", err)
	}
	return nil
}

func (r *progressRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserProgress{}).Error
	if err != nil {
		return storeerr.FromGorm("delete progress for user", err)
	}
	return nil
}

func (r *progressRepo) ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.UserProgress, error) {
	var rows []*types.UserProgress
	if err := r.conn(tx).WithContext(ctx).Where("dirty = ?", true).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list dirty progress", err)
	}
	return rows, nil
}

func (r *progressRepo) MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.conn(tx).WithContext(ctx).Model(&types.UserProgress{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{"dirty": false, "updated_at": at}).Error
	if err != nil {
		return storeerr.FromGorm("mark progress clean", err)
	}
	return nil
}

func (r *progressRepo) ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.UserProgress) error {
	row.Dirty = false
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "excluded.updated_at >= user_progress.updated_at"},
			}},
		}).
		Create(row).Error
	if err != nil {
		return storeerr.FromGorm("apply remote progress", err)
	}
	return nil
}
