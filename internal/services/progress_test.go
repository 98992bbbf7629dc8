package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

func (e *testEnv) hasBadge(t *testing.T, userID uuid.UUID, code types.BadgeCode) bool {
	t.Helper()
	ctx := context.Background()
	badge, err := e.badgeRepo.GetByCode(ctx, nil, code)
	if err != nil {
		t.Fatalf("badge catalog missing %s: %v", code, err)
	}
	rows, err := e.badgeRepo.ListForUser(ctx, nil, userID)
	if err != nil {
		t.Fatalf("list badges: %v", err)
	}
	for _, row := range rows {
		if row.BadgeID == badge.ID {
			return true
		}
	}
	return false
}

func TestCompleteModule_AwardsPointsAndFirstModuleBadge(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "first@corp.test")
	course := e.newCourse(t, courseSpec{modules: 3})
	e.activeEnrollment(t, student, course)

	if _, err := e.progress.CompleteModule(ctx, student.ID, course.ID, course.Modules[0].ID); err != nil {
		t.Fatalf("complete module: %v", err)
	}

	user, err := e.users.Get(ctx, student.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Points != PointsPerModule {
		t.Fatalf("expected %d points, got %d", PointsPerModule, user.Points)
	}
	if !e.hasBadge(t, student.ID, types.BadgeFirstModule) {
		t.Fatalf("first_module badge not awarded")
	}
}

func TestCompleteModule_Idempotent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "idem@corp.test")
	course := e.newCourse(t, courseSpec{modules: 3})
	e.activeEnrollment(t, student, course)

	moduleID := course.Modules[0].ID
	for i := 0; i < 3; i++ {
		if _, err := e.progress.CompleteModule(ctx, student.ID, course.ID, moduleID); err != nil {
			t.Fatalf("complete module run %d: %v", i, err)
		}
	}

	user, err := e.users.Get(ctx, student.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Points != PointsPerModule {
		t.Fatalf("re-completion must not re-award points, got %d", user.Points)
	}
	progress, err := e.progressRepo.GetByUserAndCourse(ctx, nil, student.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if len(progress.CompletedModuleIDs) != 1 {
		t.Fatalf("expected 1 completed module, got %d", len(progress.CompletedModuleIDs))
	}
}

func TestCompleteLastModule_CompletesCourseAtomically(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "finish@corp.test")
	course := e.newCourse(t, courseSpec{
		modules: 3,
		endDate: timePtr(time.Now().UTC().Add(72 * time.Hour)),
	})
	enrollment := e.activeEnrollment(t, student, course)

	for _, m := range course.Modules {
		if _, err := e.progress.CompleteModule(ctx, student.ID, course.ID, m.ID); err != nil {
			t.Fatalf("complete module %s: %v", m.Title, err)
		}
	}

	row, err := e.enrollments.Get(ctx, enrollment.ID)
	if err != nil {
		t.Fatalf("get enrollment: %v", err)
	}
	if row.Status != types.EnrollmentCompleted {
		t.Fatalf("expected completed enrollment, got %s", row.Status)
	}

	user, err := e.users.Get(ctx, student.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	// 3 modules plus course completion with the early-finish bonus.
	want := 3*PointsPerModule + PointsPerCourse + PointsEarlyFinish
	if user.Points != want {
		t.Fatalf("expected %d points, got %d", want, user.Points)
	}
	if !e.hasBadge(t, student.ID, types.BadgeFirstCourse) {
		t.Fatalf("first_course badge not awarded")
	}
	if !e.hasBadge(t, student.ID, types.BadgeOnTime) {
		t.Fatalf("on_time badge not awarded")
	}
}

func TestCompleteCourse_NoBonusAfterEndDate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "late@corp.test")
	course := e.newCourse(t, courseSpec{
		modules:   1,
		startDate: timePtr(time.Now().UTC().Add(-96 * time.Hour)),
		endDate:   timePtr(time.Now().UTC().Add(-48 * time.Hour)),
	})
	e.activeEnrollment(t, student, course)

	if _, err := e.progress.CompleteModule(ctx, student.ID, course.ID, course.Modules[0].ID); err != nil {
		t.Fatalf("complete module: %v", err)
	}

	user, err := e.users.Get(ctx, student.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	want := PointsPerModule + PointsPerCourse
	if user.Points != want {
		t.Fatalf("expected %d points without bonus, got %d", want, user.Points)
	}
	if e.hasBadge(t, student.ID, types.BadgeOnTime) {
		t.Fatalf("on_time badge must not be awarded after the end date")
	}
}

func TestZeroModuleCourse_CompletesOnActivation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "zero@corp.test")
	course := e.newCourse(t, courseSpec{
		modules:      0,
		startDate:    timePtr(time.Now().UTC().Add(-time.Hour)),
		mandatoryFor: []types.Role{types.RoleStudent},
	})

	row, err := e.enrollments.Request(ctx, student.ID, course.ID, "")
	if err != nil {
		t.Fatalf("request enrollment: %v", err)
	}
	row, err = e.enrollments.Review(ctx, row.ID, types.EnrollmentApproved)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if row.Status != types.EnrollmentCompleted {
		t.Fatalf("zero-module course must complete on activation, got %s", row.Status)
	}

	user, err := e.users.Get(ctx, student.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user.Points != PointsPerCourse {
		t.Fatalf("expected %d course points, got %d", PointsPerCourse, user.Points)
	}
	if !e.hasBadge(t, student.ID, types.BadgeFirstCourse) {
		t.Fatalf("first_course badge not awarded")
	}

	report, err := e.compliance.Report(ctx, ComplianceFilter{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if uc := complianceFor(t, report, student.ID); uc.Rate != 100 || uc.Completed != 1 {
		t.Fatalf("mandatory zero-module course must count as compliant, got %+v", uc)
	}
}

func TestCompleteModule_UnknownModule(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "unknown@corp.test")
	course := e.newCourse(t, courseSpec{modules: 1})
	e.activeEnrollment(t, student, course)

	_, err := e.progress.CompleteModule(ctx, student.ID, course.ID, uuid.New())
	if !storeerr.IsNotFound(err) {
		t.Fatalf("expected not found for foreign module, got %v", err)
	}
}

func TestCompleteModule_RequiresActiveEnrollment(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "noenroll@corp.test")
	course := e.newCourse(t, courseSpec{modules: 1})

	_, err := e.progress.CompleteModule(ctx, student.ID, course.ID, course.Modules[0].ID)
	if !storeerr.IsNotFound(err) {
		t.Fatalf("expected not found without enrollment, got %v", err)
	}
}

func TestGetProgress_EmptyAndPartial(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "summary@corp.test")
	course := e.newCourse(t, courseSpec{modules: 4})
	e.activeEnrollment(t, student, course)

	summary, err := e.progress.GetProgress(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if summary.ModulesCompleted != 0 || summary.Percent != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}

	if _, err := e.progress.CompleteModule(ctx, student.ID, course.ID, course.Modules[0].ID); err != nil {
		t.Fatalf("complete module: %v", err)
	}
	summary, err = e.progress.GetProgress(ctx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if summary.ModulesCompleted != 1 || summary.ModulesTotal != 4 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Percent != 25 {
		t.Fatalf("expected 25 percent, got %v", summary.Percent)
	}
}
