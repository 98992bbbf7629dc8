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

type BadgeRepo interface {
	// SeedCatalog inserts missing catalog entries; existing codes are left
	// untouched so reseeding is safe.
	SeedCatalog(ctx context.Context, tx *gorm.DB, badges []types.Badge) error
	GetByCode(ctx context.Context, tx *gorm.DB, code types.BadgeCode) (*types.Badge, error)
	ListCatalog(ctx context.Context, tx *gorm.DB) ([]*types.Badge, error)

	// AwardIfAbsent inserts the (user, badge) fact if it does not exist.
	// Returns true only when this call created the row.
	AwardIfAbsent(ctx context.Context, tx *gorm.DB, userID, badgeID uuid.UUID, at time.Time) (bool, error)
	ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error)
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error

	ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.UserBadge, error)
	MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.UserBadge) error
}

type badgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return &badgeRepo{db: db, log: baseLog.With("repo", "BadgeRepo")}
}

func (r *badgeRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *badgeRepo) SeedCatalog(ctx context.Context, tx *gorm.DB, badges []types.Badge) error {
	db := r.conn(tx).WithContext(ctx)
	for i := range badges {
		b := badges[i]
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		if b.CreatedAt.IsZero() {
			b.CreatedAt = time.Now().UTC()
		}
		var existing types.Badge
		err := db.Where("code = ?", b.Code).Attrs(b).FirstOrCreate(&existing).Error
		if err != nil {
			return storeerr.FromGorm("seed badge catalog", err)
		}
	}
	return nil
}

func (r *badgeRepo) GetByCode(ctx context.Context, tx *gorm.DB, code types.BadgeCode) (*types.Badge, error) {
	var row types.Badge
	if err := r.conn(tx).WithContext(ctx).First(&row, "code = ?", code).Error; err != nil {
		return nil, storeerr.FromGorm("get badge", err)
	}
	return &row, nil
}

func (r *badgeRepo) ListCatalog(ctx context.Context, tx *gorm.DB) ([]*types.Badge, error) {
	var rows []*types.Badge
	if err := r.conn(tx).WithContext(ctx).Order("code").Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list badge catalog", err)
	}
	return rows, nil
}

func (r *badgeRepo) AwardIfAbsent(ctx context.Context, tx *gorm.DB, userID, badgeID uuid.UUID, at time.Time) (bool, error) {
	row := types.UserBadge{
		ID:        uuid.New(),
		UserID:    userID,
		BadgeID:   badgeID,
		AwardedAt: at,
		Dirty:     true,
		UpdatedAt: at,
	}
	res := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if res.Error != nil {
		return false, storeerr.FromGorm("award badge", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *badgeRepo) ListForUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.UserBadge, error) {
	var rows []*types.UserBadge
	if err := r.conn(tx).WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list user badges", err)
	}
	return rows, nil
}

func (r *badgeRepo) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	err := r.conn(tx).WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&types.UserBadge{}).Error
	if err != nil {
		return storeerr.FromGorm("delete user badges", err)
	}
	return nil
}

func (r *badgeRepo) ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.UserBadge, error) {
	var rows []*types.UserBadge
	if err := r.conn(tx).WithContext(ctx).Where("dirty = ?", true).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list dirty user badges", err)
	}
	return rows, nil
}

func (r *badgeRepo) MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.conn(tx).WithContext(ctx).Model(&types.UserBadge{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{"dirty": false, "updated_at": at}).Error
	if err != nil {
		return storeerr.FromGorm("mark user badges clean", err)
	}
	return nil
}

func (r *badgeRepo) ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.UserBadge) error {
	row.Dirty = false
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "excluded.updated_at >= user_badges.updated_at"},
			}},
		}).
		Create(row).Error
	if err != nil {
		return storeerr.FromGorm("apply remote user badge", err)
	}
	return nil
}
