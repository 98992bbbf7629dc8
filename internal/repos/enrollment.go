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

type EnrollmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, row *types.Enrollment) error
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error)
	ListForStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Enrollment, error)
	ListForCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error)
	Save(ctx context.Context, tx *gorm.DB, row *types.Enrollment) error
	DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) error

	// HasActiveEpisode reports whether a non-terminal enrollment already
	// exists for the (student, course) pair.
	HasActiveEpisode(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (bool, error)
	// CountSeats counts enrollments holding a seat (approved, active,
	// completed) for capacity checks.
	CountSeats(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error)
	// GetActiveForUserAndCourse fetches the enrollment of the current
	// episode, whatever its non-terminal status.
	GetActiveForUserAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (*types.Enrollment, error)

	ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.Enrollment, error)
	MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error
	ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.Enrollment) error
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, row *types.Enrollment) error {
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Create(row).Error; err != nil {
		return storeerr.FromGorm("create enrollment", err)
	}
	return nil
}

func (r *enrollmentRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Enrollment, error) {
	var row types.Enrollment
	if err := r.conn(tx).WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, storeerr.FromGorm("get enrollment", err)
	}
	return &row, nil
}

func (r *enrollmentRepo) ListForStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) ([]*types.Enrollment, error) {
	var rows []*types.Enrollment
	err := r.conn(tx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("request_date desc").Find(&rows).Error
	if err != nil {
		return nil, storeerr.FromGorm("list enrollments for student", err)
	}
	return rows, nil
}

func (r *enrollmentRepo) ListForCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.Enrollment, error) {
	var rows []*types.Enrollment
	err := r.conn(tx).WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("request_date").Find(&rows).Error
	if err != nil {
		return nil, storeerr.FromGorm("list enrollments for course", err)
	}
	return rows, nil
}

func (r *enrollmentRepo) Save(ctx context.Context, tx *gorm.DB, row *types.Enrollment) error {
	row.UpdatedAt = time.Now().UTC()
	row.Dirty = true
	if err := r.conn(tx).WithContext(ctx).Save(row).Error; err != nil {
		return storeerr.FromGorm("save enrollment", err)
	}
	return nil
}

func (r *enrollmentRepo) DeleteByStudent(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) error {
	err := r.conn(tx).WithContext(ctx).
		Where("student_id = ?", studentID).
		Delete(&types.Enrollment{}).Error
	if err != nil {
		return storeerr.FromGorm("delete enrollments for student", err)
	}
	return nil
}

func (r *enrollmentRepo) HasActiveEpisode(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&types.Enrollment{}).
		Where("student_id = ? AND course_id = ? AND status IN ?",
			studentID, courseID, types.ActiveEpisodeStatuses()).
		Count(&count).Error
	if err != nil {
		return false, storeerr.FromGorm("check active episode", err)
	}
	return count > 0, nil
}

func (r *enrollmentRepo) CountSeats(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn(tx).WithContext(ctx).Model(&types.Enrollment{}).
		Where("course_id = ? AND status IN ?", courseID, types.SeatStatuses()).
		Count(&count).Error
	if err != nil {
		return 0, storeerr.FromGorm("count seats", err)
	}
	return count, nil
}

func (r *enrollmentRepo) GetActiveForUserAndCourse(ctx context.Context, tx *gorm.DB, studentID, courseID uuid.UUID) (*types.Enrollment, error) {
	var row types.Enrollment
	err := r.conn(tx).WithContext(ctx).
		Where("student_id = ? AND course_id = ? AND status IN ?",
			studentID, courseID, types.ActiveEpisodeStatuses()).
		First(&row).Error
	if err != nil {
		return nil, storeerr.FromGorm("get active enrollment", err)
	}
	return &row, nil
}

func (r *enrollmentRepo) ListDirty(ctx context.Context, tx *gorm.DB) ([]*types.Enrollment, error) {
	var rows []*types.Enrollment
	if err := r.conn(tx).WithContext(ctx).Where("dirty = ?", true).Find(&rows).Error; err != nil {
		return nil, storeerr.FromGorm("list dirty enrollments", err)
	}
	return rows, nil
}

func (r *enrollmentRepo) MarkClean(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	err := r.conn(tx).WithContext(ctx).Model(&types.Enrollment{}).
		Where("id IN ?", ids).
		UpdateColumns(map[string]any{"dirty": false, "updated_at": at}).Error
	if err != nil {
		return storeerr.FromGorm("mark enrollments clean", err)
	}
	return nil
}

func (r *enrollmentRepo) ApplyRemote(ctx context.Context, tx *gorm.DB, row *types.Enrollment) error {
	row.Dirty = false
	err := r.conn(tx).WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "excluded.updated_at >= enrollments.updated_at"},
			}},
		}).
		Create(row).Error
	if err != nil {
		return storeerr.FromGorm("apply remote enrollment", err)
	}
	return nil
}
