package provider

import (
	"errors"
	"testing"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/remoteapi"
)

func TestResolve_DefaultsToLocal(t *testing.T) {
	p, err := Resolve(logger.NewNop(), ResolveConfig{Mode: ""})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := p.(*localProvider); !ok {
		t.Fatalf("empty mode should select the local provider, got %T", p)
	}
}

func TestResolve_ModeIsCaseInsensitive(t *testing.T) {
	p, err := Resolve(logger.NewNop(), ResolveConfig{Mode: "  LOCAL "})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := p.(*localProvider); !ok {
		t.Fatalf("expected local provider, got %T", p)
	}
}

func TestResolve_InvalidMode(t *testing.T) {
	_, err := Resolve(logger.NewNop(), ResolveConfig{Mode: "hybrid"})
	var be *BootstrapError
	if !errors.As(err, &be) {
		t.Fatalf("expected BootstrapError, got %v", err)
	}
	if be.Code != BootstrapErrorInvalidMode {
		t.Fatalf("expected invalid_mode, got %s", be.Code)
	}
	if be.Mode != "hybrid" {
		t.Fatalf("error must name the offending mode, got %q", be.Mode)
	}
}

func TestResolve_RemoteRequiresBaseURL(t *testing.T) {
	_, err := Resolve(logger.NewNop(), ResolveConfig{Mode: "remote"})
	var be *BootstrapError
	if !errors.As(err, &be) {
		t.Fatalf("expected BootstrapError, got %v", err)
	}
	if be.Code != BootstrapErrorMissingBaseURL {
		t.Fatalf("expected missing_base_url, got %s", be.Code)
	}
}

func TestResolve_RemoteWithBaseURL(t *testing.T) {
	p, err := Resolve(logger.NewNop(), ResolveConfig{
		Mode:   "remote",
		Remote: remoteapi.Config{BaseURL: "http://backend.internal:8080"},
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, ok := p.(*remoteProvider); !ok {
		t.Fatalf("expected remote provider, got %T", p)
	}
}
