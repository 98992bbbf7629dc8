package remoteapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(logger.NewNop(), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestClient_NormalizesStatusCodes(t *testing.T) {
	cases := []struct {
		status int
		want   storeerr.Kind
	}{
		{http.StatusNotFound, storeerr.KindNotFound},
		{http.StatusConflict, storeerr.KindConstraintViolation},
		{http.StatusUnprocessableEntity, storeerr.KindInvalidTransition},
		{http.StatusInternalServerError, storeerr.KindBackendUnavailable},
		{http.StatusBadGateway, storeerr.KindBackendUnavailable},
	}
	for _, tc := range cases {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		err := c.Get(context.Background(), "/api/v1/users", nil)
		if storeerr.KindOf(err) != tc.want {
			t.Fatalf("status %d: expected %s, got %v", tc.status, tc.want, err)
		}
	}
}

func TestClient_PrefersServerClassification(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"kind":"constraint_violation","code":"course_full","message":"no seats left"}}`))
	})

	err := c.Post(context.Background(), "/api/v1/enrollments", map[string]string{}, nil)
	if !storeerr.IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
	if storeerr.CodeOf(err) != storeerr.CodeCourseFull {
		t.Fatalf("error code lost in transit: %q", storeerr.CodeOf(err))
	}
}

func TestClient_UnreachableHostIsBackendUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()
	c, err := New(logger.NewNop(), Config{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	err = c.Get(context.Background(), "/api/v1/healthz", nil)
	if !storeerr.IsBackendUnavailable(err) {
		t.Fatalf("expected backend unavailable, got %v", err)
	}
}
