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

type LearningPathRepo interface {
	CreatePath(ctx context.Context, tx *gorm.DB, row *types.LearningPath) error
	ListPaths(ctx context.Context, tx *gorm.DB) ([]*types.LearningPath, error)
	ListPathsForRole(ctx context.Context, tx *gorm.DB, role types.Role) ([]*types.LearningPath, error)

	// GetOrCreateProgress is the idempotent lookup-or-create for a user's
	// per-path progress row.
	GetOrCreateProgress(ctx context.Context, tx *gorm.DB, userID, pathID uuid.UUID) (*types.UserLearningPathProgress, error)
	SaveProgress(ctx context.Context, tx *gorm.DB, row *types.UserLearningPathProgress) error
	ListProgressForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserLearningPathProgress, error)
	DeleteProgressByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error

	ListDirtyProgress(ctx context.Context, tx *gorm.DB) ([]*types.UserLearningPathProgress, error)
	MarkProgressClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	ApplyRemoteProgress(ctx context.Context, tx *gorm.DB, row *types.UserLearningPathProgress) error
}

type learningPathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	return &learningPathRepo{db: db, log: baseLog.With("repo", "LearningPathRepo")}
}

func (r *learningPathRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *learningPathRepo) CreatePath(ctx context.Context, tx *gorm.DB, row *types.LearningPath) error {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	if err := r.conn(tx).WithContext(ctx).Create(row).Error; err != nil {
		return storeerr.FromGorm("create learning path", err)
	}
	return nil
}

func (r *learningPathRepo) ListPaths(ctx context.Context, tx *gorm.DB) ([]*types.LearningPath, error) {
	var rows []*types.LearningPath
	if err := r.conn(tx).WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list learning paths", err)
	}
	return rows, nil
}

func (r *learningPathRepo) ListPathsForRole(ctx context.Context, tx *gorm.DB, role types.Role) ([]*types.LearningPath, error) {
	var rows []*types.LearningPath
	if err := r.conn(tx).WithContext(ctx).Where("target_role = ?", role).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list learning paths for role", err)
	}
	return rows, nil
}

func (r *learningPathRepo) GetOrCreateProgress(ctx context.Context, tx *gorm.DB, userID, pathID uuid.UUID) (*types.UserLearningPathProgress, error) {
	db := r.conn(tx).WithContext(ctx)

	var row types.UserLearningPathProgress
	err := db.Where("user_id = ? AND path_id = ?", userID, pathID).First(&row).Error
	if err == nil {
		return &row, nil
	}
	if !isNotFound(err) {
		return nil, storeerr.FromGorm("get path progress", err)
	}

	now := time.Now().UTC()
	row = types.UserLearningPathProgress{
		ID:        uuid.New(),
		UserID:    userID,
		PathID:    pathID,
		Dirty:     true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, storeerr.FromGorm("create path progress", err)
	}
	return &row, nil
}

func (r *learningPathRepo) SaveProgress(ctx context.Context, tx *gorm.DB, row *types.UserLearningPathProgress) error {
	row.UpdatedAt = time.Now().UTC()
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Save(row).Error; err != nil {
		return storeerr.FromGorm("save path progress", err)
	}
	return nil
}

func (r *learningPathRepo) ListProgressForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserLearningPathProgress, error) {
	var rows []*types.UserLearningPathProgress
	if err := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list path progress for user", err)
	}
	return rows, nil
}

func (r *learningPathRepo) DeleteProgressByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserLearningPathProgress{}).Error
	if err != nil {
		return storeerr.FromGorm("delete path progress for user", err)
	}
	return nil
}

func (r *learningPathRepo) ListDirtyProgress(ctx context.Context, tx *gorm.DB) ([]*types.UserLearningPathProgress, error) {
	var rows []*types.UserLearningPathProgress
	if err := r.conn(tx).WithContext(ctx).Where("dirty = ?", true).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list dirty path progress", err)
	}
	return rows, nil
}

func (r *learningPathRepo) MarkProgressClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.conn(tx).WithContext(ctx).Model(&types.UserLearningPathProgress{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{"dirty": false, "updated_at": at}).Error
	if err != nil {
		return storeerr.FromGorm("mark path progress clean", err)
	}
	return nil
}

func (r *learningPathRepo) ApplyRemoteProgress(ctx context.Context, tx *gorm.DB, row *types.UserLearningPathProgress) error {
	row.Dirty = false
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "excluded.updated_at >= user_learning_path_progress.updated_at"},
			}},
		}).
		Create(row).Error
	if err != nil {
		return storeerr.FromGorm("apply remote path progress", err)
	}
	return nil
}
