package provider

import (
	"fmt"
	"strings"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/remoteapi"
)

type Mode string

const (
	ModeLocal  Mode = "local"
	ModeRemote Mode = "remote"
)

func IsSupportedMode(m Mode) bool {
	return m == ModeLocal || m == ModeRemote
}

type BootstrapErrorCode string

const (
	BootstrapErrorInvalidMode    BootstrapErrorCode = "invalid_mode"
	BootstrapErrorMissingBaseURL BootstrapErrorCode = "missing_base_url"
	BootstrapErrorClientFailed   BootstrapErrorCode = "client_failed"
)

// BootstrapError reports why provider selection failed at startup.
type BootstrapError struct {
	Code  BootstrapErrorCode
	Mode  string
	Cause error
}

func (e *BootstrapError) Error() string {
	if e == nil {
		return "provider bootstrap failed"
	}
	return fmt.Sprintf("provider bootstrap failed (code=%s mode=%q): %v", e.Code, e.Mode, e.Cause)
}

func (e *BootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// ResolveConfig carries everything mode resolution needs.
type ResolveConfig struct {
	Mode   string
	Remote remoteapi.Config
	Local  LocalDeps
}

// Resolve selects the active provider from configuration. Local wires the
// embedded store; remote builds the HTTP client against the configured
// backend.
func Resolve(log *logger.Logger, cfg ResolveConfig) (Provider, error) {
	mode := Mode(strings.TrimSpace(strings.ToLower(cfg.Mode)))
	if mode == "" {
		mode = ModeLocal
	}
	if !IsSupportedMode(mode) {
		err := &BootstrapError{
			Code:  BootstrapErrorInvalidMode,
			Mode:  string(mode),
			Cause: fmt.Errorf("unsupported provider mode %q", mode),
		}
		log.Error("Provider selection failed", "mode", mode, "error_code", err.Code, "error", err)
		return nil, err
	}

	log.Info("Selecting data provider", "mode", mode)

	if mode == ModeLocal {
		return NewLocal(cfg.Local), nil
	}

	if strings.TrimSpace(cfg.Remote.BaseURL) == "" {
		err := &BootstrapError{
			Code:  BootstrapErrorMissingBaseURL,
			Mode:  string(mode),
			Cause: fmt.Errorf("remote mode requires a base url"),
		}
		log.Error("Provider selection failed", "mode", mode, "error_code", err.Code, "error", err)
		return nil, err
	}
	client, err := remoteapi.New(log, cfg.Remote)
	if err != nil {
		wrapped := &BootstrapError{
			Code:  BootstrapErrorClientFailed,
			Mode:  string(mode),
			Cause: err,
		}
		log.Error("Provider bootstrap failed", "mode", mode, "error_code", wrapped.Code, "error", wrapped)
		return nil, wrapped
	}
	return NewRemote(client), nil
}
