package app

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/platform/gormdb"
	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/redisdb"
	"github.com/trainhubhq/trainhub-backend/internal/platform/remoteapi"
	"github.com/trainhubhq/trainhub-backend/internal/provider"
	"github.com/trainhubhq/trainhub-backend/internal/server"
	"github.com/trainhubhq/trainhub-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cache    *redis.Client
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	Store    provider.Provider

	cronRunner *cron.Cron
	cancel     context.CancelFunc
	closeOnce  sync.Once
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig(log)

	db, err := gormdb.Open(log, gormdb.Config{Driver: cfg.DBDriver, DSN: cfg.DBDSN})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := gormdb.Migrate(db); err != nil {
		log.Sync()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache, err = redisdb.New(log, redisdb.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			// Derived-value cache only; run without it rather than fail boot.
			log.Warn("Redis unavailable, caching disabled", "error", err)
			cache = nil
		}
	}

	reposet := wireRepos(db, log)

	serviceset, err := wireServices(db, log, cfg, reposet, cache)
	if err != nil {
		log.Sync()
		return nil, err
	}

	if err := reposet.Badges.SeedCatalog(context.Background(), nil, services.DefaultBadgeCatalog()); err != nil {
		log.Sync()
		return nil, fmt.Errorf("seed badge catalog: %w", err)
	}

	store, err := provider.Resolve(log, provider.ResolveConfig{
		Mode: cfg.ProviderMode,
		Remote: remoteapi.Config{
			BaseURL: cfg.RemoteBaseURL,
			APIKey:  cfg.RemoteAPIKey,
			Timeout: cfg.RemoteTimeout,
			Retries: cfg.RemoteRetries,
		},
		Local: provider.LocalDeps{
			Users:         serviceset.Users,
			Courses:       serviceset.Courses,
			Enrollments:   serviceset.Enrollments,
			Progress:      serviceset.Progress,
			Gamification:  serviceset.Gamification,
			Paths:         serviceset.Paths,
			Compliance:    serviceset.Compliance,
			Notifications: serviceset.Notifications,
			SystemLogs:    reposet.SystemLogs,
		},
	})
	if err != nil {
		log.Sync()
		return nil, err
	}

	srv := server.New(log, store, server.SyncRepos{
		Users:         reposet.Users,
		Courses:       reposet.Courses,
		Enrollments:   reposet.Enrollments,
		Progress:      reposet.Progress,
		Paths:         reposet.Paths,
		Badges:        reposet.Badges,
		Notifications: reposet.Notifications,
	})

	return &App{
		Log:      log,
		DB:       db,
		Cache:    cache,
		Router:   srv.Router(),
		Cfg:      cfg,
		Repos:    reposet,
		Services: serviceset,
		Store:    store,
	}, nil
}

// Start launches the background machinery: notification dispatch workers
// and, when a remote backend is configured, the sync schedule.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Services.Dispatcher.Start(ctx, a.Cfg.DispatchWorkers)

	if a.Services.Sync != nil && a.Cfg.SyncSchedule != "" {
		a.cronRunner = cron.New()
		_, err := a.cronRunner.AddFunc(a.Cfg.SyncSchedule, func() {
			a.runSync(ctx)
		})
		if err != nil {
			a.Log.Error("Invalid sync schedule", "schedule", a.Cfg.SyncSchedule, "error", err)
			return
		}
		a.cronRunner.Start()
		a.Log.Info("Sync scheduled", "schedule", a.Cfg.SyncSchedule)
	}
}

func (a *App) runSync(ctx context.Context) {
	report, err := a.Services.Sync.Run(ctx)
	if err != nil {
		a.Log.Error("Sync run aborted", "error", err)
		return
	}
	if !report.Success {
		a.Log.Warn("Sync finished with failures",
			"synced", len(report.SyncedIDs),
			"records", len(report.PerRecord))
	}
}

// SyncNow triggers an on-demand reconciliation outside the schedule.
func (a *App) SyncNow(ctx context.Context) (*services.SyncReport, error) {
	if a.Services.Sync == nil {
		return nil, fmt.Errorf("no remote backend configured")
	}
	return a.Services.Sync.Run(ctx)
}

func (a *App) Run() error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr)
	return a.Router.Run(a.Cfg.HTTPAddr)
}

// Close is safe to call more than once; the signal handler and the main
// path both reach it on shutdown.
func (a *App) Close() {
	if a == nil {
		return
	}
	a.closeOnce.Do(func() {
		if a.cronRunner != nil {
			a.cronRunner.Stop()
			a.cronRunner = nil
		}
		if a.Services.Dispatcher != nil {
			a.Services.Dispatcher.Stop()
		}
		if a.cancel != nil {
			a.cancel()
			a.cancel = nil
		}
		if a.Cache != nil {
			_ = a.Cache.Close()
		}
		if a.Log != nil {
			a.Log.Sync()
		}
	})
}
