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

type UserRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.User) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error)
	List(ctx context.Context, tx *gorm.DB) ([]*types.User, error)
	ListByRole(ctx context.Context, tx *gorm.DB, role types.Role) ([]*types.User, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.User) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error

	ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.User, error)
	MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.User) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *userRepo) Create(ctx context.Context, tx *gorm.DB, row *types.User) error {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Create(row).Error; err != nil {
		return storeerr.FromGorm("create user", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.User, error) {
	var row types.User
	if err := r.conn(tx).WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, storeerr.FromGorm("get user", err)
	}
	return &row, nil
}

func (r *userRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.User, error) {
	var row types.User
	if err := r.conn(tx).WithContext(ctx).First(&row, "email = ?", email).Error; err != nil {
		return nil, storeerr.FromGorm("get user by email", err)
	}
	return &row, nil
}

func (r *userRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.User, error) {
	var rows []*types.User
	if err := r.conn(tx).WithContext(ctx).Order("created_at").Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list users", err)
	}
	return rows, nil
}

func (r *userRepo) ListByRole(ctx context.Context, tx *gorm.DB, role types.Role) ([]*types.User, error) {
	var rows []*types.User
	if err := r.conn(tx).WithContext(ctx).Where("role = ?", role).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list users by role", err)
	}
	return rows, nil
}

func (r *userRepo) Save(ctx context.Context, tx *gorm.DB, row *types.User) error {
	row.UpdatedAt = time.Now().UTC()
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Save(row).Error; err != nil {
		return storeerr.FromGorm("save user", err)
	}
	return nil
}

func (r *userRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.conn(tx).WithContext(ctx).Where("id IN ?", ids).Delete(&types.User{}).Error; err != nil {
		return storeerr.FromGorm("delete users", err)
	}
	return nil
}

func (r *userRepo) ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.User, error) {
	var rows []*types.User
	if err := r.conn(tx).WithContext(ctx).Where("dirty = ?", true).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list dirty users", err)
	}
	return rows, nil
}

func (r *userRepo) MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.conn(tx).WithContext(ctx).Model(&types.User{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{"dirty": false, "updated_at": at}).Error
	if err != nil {
		return storeerr.FromGorm("mark users clean", err)
	}
	return nil
}

// ApplyRemote upserts a record pushed from another replica. It keys on the
// client-minted id and does not set the dirty flag: sync-originated writes
// must not re-enter the dirty set. password_hash never travels over sync,
// so the upsert leaves the stored hash untouched.
func (r *userRepo) ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.User) error {
	row.Dirty = false
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "email", "role", "department", "status",
				"points", "forum_posts", "notify_email", "notify_chat",
				"dirty", "updated_at",
			}),
			// last write wins, decided by record timestamp
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "excluded.updated_at >= users.updated_at"},
			}},
		}).
		Create(row).Error
	if err != nil {
		return storeerr.FromGorm("apply remote user", err)
	}
	return nil
}
