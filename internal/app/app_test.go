package app

import (
	"testing"

	"github.com/trainhubhq/trainhub-backend/internal/notify"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
)

// The signal handler and the deferred main path can both reach Close on
// shutdown; the second call must be a no-op.
func TestAppClose_Idempotent(t *testing.T) {
	log := logger.NewNop()
	a := &App{
		Log: log,
		Services: Services{
			Dispatcher: notify.NewDispatcher(log, nil, nil, 4),
		},
	}
	a.Start()

	a.Close()
	a.Close()
}
