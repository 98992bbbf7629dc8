package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

func complianceFor(t *testing.T, report *ComplianceReport, userID uuid.UUID) UserCompliance {
	t.Helper()
	for _, uc := range report.Users {
		if uc.UserID == userID {
			return uc
		}
	}
	t.Fatalf("user %s missing from report", userID)
	return UserCompliance{}
}

func TestComplianceReport_NoMandatoryMeansFullyCompliant(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	student := e.newStudent(t, "free@corp.test")
	e.newCourse(t, courseSpec{modules: 1}) // published, mandatory for nobody

	report, err := e.compliance.Report(ctx, ComplianceFilter{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	uc := complianceFor(t, report, student.ID)
	if uc.Mandatory != 0 || uc.Rate != 100 {
		t.Fatalf("expected 100%% with no mandatory courses, got %+v", uc)
	}
	if report.OverallRate != 100 {
		t.Fatalf("expected 100%% overall, got %v", report.OverallRate)
	}
}

func TestComplianceReport_CompletionRaisesRate(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	done := e.newStudent(t, "done@corp.test")
	behind := e.newStudent(t, "behind@corp.test")
	course := e.newCourse(t, courseSpec{
		modules:      1,
		mandatoryFor: []types.Role{types.RoleStudent},
	})

	e.activeEnrollment(t, done, course)
	if _, err := e.progress.CompleteModule(ctx, done.ID, course.ID, course.Modules[0].ID); err != nil {
		t.Fatalf("complete module: %v", err)
	}

	report, err := e.compliance.Report(ctx, ComplianceFilter{})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if uc := complianceFor(t, report, done.ID); uc.Rate != 100 || uc.Completed != 1 {
		t.Fatalf("expected compliant user, got %+v", uc)
	}
	if uc := complianceFor(t, report, behind.ID); uc.Rate != 0 || uc.Completed != 0 {
		t.Fatalf("expected non-compliant user, got %+v", uc)
	}
	if report.OverallRate != 50 {
		t.Fatalf("expected 50%% overall, got %v", report.OverallRate)
	}
}

func TestComplianceReport_DepartmentFilter(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	eng := e.newStudent(t, "eng@corp.test")

	sales, err := e.users.Register(ctx, RegisterUser{
		Name:       "Sales Student",
		Email:      "sales@corp.test",
		Password:   "s3cret-pass",
		Role:       types.RoleStudent,
		Department: types.DepartmentSales,
	})
	if err != nil {
		t.Fatalf("register sales student: %v", err)
	}

	dept := types.DepartmentSales
	report, err := e.compliance.Report(ctx, ComplianceFilter{Department: &dept})
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(report.Users) != 1 {
		t.Fatalf("expected 1 user in filtered report, got %d", len(report.Users))
	}
	if report.Users[0].UserID != sales.ID {
		t.Fatalf("wrong user in filtered report")
	}
	for _, uc := range report.Users {
		if uc.UserID == eng.ID {
			t.Fatalf("engineering user leaked through sales filter")
		}
	}
}
