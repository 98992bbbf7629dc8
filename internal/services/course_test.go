package services

import (
	"context"
	"testing"
	"time"

	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

func TestCreateCourse_ModulesAreOrdered(t *testing.T) {
	e := newTestEnv(t)
	course := e.newCourse(t, courseSpec{modules: 3, draft: true})

	if course.Status != types.CourseStatusDraft {
		t.Fatalf("new course must start in draft, got %s", course.Status)
	}
	if len(course.Modules) != 3 {
		t.Fatalf("expected 3 modules, got %d", len(course.Modules))
	}
	for i, m := range course.Modules {
		if m.Position != i+1 {
			t.Fatalf("module %d has position %d", i, m.Position)
		}
		if m.CourseID != course.ID {
			t.Fatalf("module not owned by course")
		}
	}
}

func TestCreateCourse_EndBeforeStartRejected(t *testing.T) {
	e := newTestEnv(t)
	start := time.Now().UTC().Add(48 * time.Hour)
	end := start.Add(-24 * time.Hour)

	_, err := e.courses.Create(context.Background(), NewCourse{
		Title:     "Backwards Window",
		Modality:  types.ModalityOnline,
		StartDate: &start,
		EndDate:   &end,
	})
	if !storeerr.IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestPublish_OnlyFromDraft(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	course := e.newCourse(t, courseSpec{modules: 1, draft: true})

	course, err := e.courses.Publish(ctx, course.ID)
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if course.Status != types.CourseStatusPublished {
		t.Fatalf("expected published, got %s", course.Status)
	}
	if _, err := e.courses.Publish(ctx, course.ID); !storeerr.IsInvalidTransition(err) {
		t.Fatalf("double publish should be an invalid transition, got %v", err)
	}
}

func TestListPublished_ExcludesDrafts(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	published := e.newCourse(t, courseSpec{modules: 1})
	draft := e.newCourse(t, courseSpec{modules: 1, draft: true})

	rows, err := e.courses.ListPublished(ctx)
	if err != nil {
		t.Fatalf("list published: %v", err)
	}
	for _, c := range rows {
		if c.ID == draft.ID {
			t.Fatalf("draft course leaked into the published listing")
		}
	}
	found := false
	for _, c := range rows {
		if c.ID == published.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("published course missing from listing")
	}
}
