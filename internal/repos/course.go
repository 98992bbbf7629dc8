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

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Course) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
	ListPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.Course) error

	ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.Course, error)
	MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.Course) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Course) error {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Create(row).Error; err != nil {
		return storeerr.FromGorm("create course", err)
	}
	return nil
}

func (r *courseRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Course, error) {
	var row types.Course
	err := r.conn(tx).WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, storeerr.FromGorm("get course", err)
	}
	return &row, nil
}

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	var rows []*types.Course
	err := r.conn(tx).WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Order("created_at").Find(&rows).Error
	if err != nil {
		return nil, storeerr.FromGorm("list courses", err)
	}
	return rows, nil
}

func (r *courseRepo) ListPublished(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	var rows []*types.Course
	err := r.conn(tx).WithContext(ctx).
		Preload("Modules", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("status = ?", types.CourseStatusPublished).
		Order("created_at").Find(&rows).Error
	if err != nil {
		return nil, storeerr.FromGorm("list published courses", err)
	}
	return rows, nil
}

func (r *courseRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Course) error {
	row.UpdatedAt = time.Now().UTC()
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Save(row).Error; err != nil {
		return storeerr.FromGorm("save course", err)
	}
	return nil
}

func (r *courseRepo) ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.Course, error) {
	var rows []*types.Course
	err := r.conn(tx).WithContext(ctx).
		Preload("Modules").
		Where("dirty = ?", true).Find(&rows).Error
	if err != nil {
		return nil, storeerr.FromGorm("list dirty courses", err)
	}
	return rows, nil
}

func (r *courseRepo) MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.conn(tx).WithContext(ctx).Model(&types.Course{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{"dirty": false, "updated_at": at}).Error
	if err != nil {
		return storeerr.FromGorm("mark courses clean", err)
	}
	return nil
}

func (r *courseRepo) ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.Course) error {
	row.Dirty = false
	err := r.conn(tx).WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "excluded.updated_at >= courses.updated_at"},
			}},
		}).
		Create(row).Error
	if err != nil {
		return storeerr.FromGorm("apply remote course", err)
	}
	return nil
}
