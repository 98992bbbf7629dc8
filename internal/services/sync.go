package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/platform/remoteapi"
	"github.com/trainhubhq/trainhub-backend/internal/platform/storeerr"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

// RecordOutcome is one line of the per-record sync log.
type RecordOutcome struct {
	Entity string    `json:"entity"`
	ID     uuid.UUID `json:"id"`
	Synced bool      `json:"synced"`
	Error  string    `json:"error,omitempty"`
}

// SyncReport summarizes one reconciliation run. Success is false whenever
// any record failed; the records that did sync are still confirmed and
// cleaned.
type SyncReport struct {
	Success    bool            `json:"success"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	SyncedIDs  []uuid.UUID     `json:"synced_ids"`
	PerRecord  []RecordOutcome `json:"per_record"`
}

type SyncService interface {
	// Run reconciles every dirty record with the remote backend. The dirty
	// set is snapshotted at invocation; writes landing during the run are
	// picked up by the next one. Safe to re-run after partial failure.
	Run(ctx context.Context) (*SyncReport, error)
}

type syncItem struct {
	id      uuid.UUID
	payload any
}

// entitySyncer binds one syncable entity type to its dirty-set snapshot and
// its confirmation write.
type entitySyncer struct {
	name      string
	snapshot  func(ctx context.Context) ([]syncItem, error)
	markClean func(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type syncService struct {
	log        *logger.Logger
	client     *remoteapi.Client
	syslogRepo repos.SystemLogRepo
	syncers    []entitySyncer
}

func NewSyncService(
	baseLog *logger.Logger,
	client *remoteapi.Client,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	progressRepo repos.ProgressRepo,
	pathRepo repos.LearningPathRepo,
	badgeRepo repos.BadgeRepo,
	notificationRepo repos.NotificationRepo,
	syslogRepo repos.SystemLogRepo,
) SyncService {
	return &syncService{
		log:        baseLog.With("service", "SyncService"),
		client:     client,
		syslogRepo: syslogRepo,
		syncers: []entitySyncer{
			{
				name: "users",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					rows, err := userRepo.ListDirty(ctx, nil)
					if err != nil {
						return nil, err
					}
					items := make([]syncItem, 0, len(rows))
					for _, row := range rows {
						// json marshalling already excludes password_hash;
						// secrets never travel over sync.
						items = append(items, syncItem{id: row.ID, payload: row})
					}
					return items, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					return userRepo.MarkClean(ctx, nil, ids, at)
				},
			},
			{
				name: "courses",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					rows, err := courseRepo.ListDirty(ctx, nil)
					if err != nil {
						return nil, err
					}
					items := make([]syncItem, 0, len(rows))
					for _, row := range rows {
						items = append(items, syncItem{id: row.ID, payload: row})
					}
					return items, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					return courseRepo.MarkClean(ctx, nil, ids, at)
				},
			},
			{
				name: "enrollments",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					rows, err := enrollmentRepo.ListDirty(ctx, nil)
					if err != nil {
						return nil, err
					}
					items := make([]syncItem, 0, len(rows))
					for _, row := range rows {
						items = append(items, syncItem{id: row.ID, payload: row})
					}
					return items, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					return enrollmentRepo.MarkClean(ctx, nil, ids, at)
				},
			},
			{
				name: "progress",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					rows, err := progressRepo.ListDirty(ctx, nil)
					if err != nil {
						return nil, err
					}
					items := make([]syncItem, 0, len(rows))
					for _, row := range rows {
						items = append(items, syncItem{id: row.ID, payload: row})
					}
					return items, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					return progressRepo.MarkClean(ctx, nil, ids, at)
				},
			},
			{
				name: "path-progress",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					rows, err := pathRepo.ListDirtyProgress(ctx, nil)
					if err != nil {
						return nil, err
					}
					items := make([]syncItem, 0, len(rows))
					for _, row := range rows {
						items = append(items, syncItem{id: row.ID, payload: row})
					}
					return items, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					return pathRepo.MarkProgressClean(ctx, nil, ids, at)
				},
			},
			{
				name: "badges",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					rows, err := badgeRepo.ListDirty(ctx, nil)
					if err != nil {
						return nil, err
					}
					items := make([]syncItem, 0, len(rows))
					for _, row := range rows {
						items = append(items, syncItem{id: row.ID, payload: row})
					}
					return items, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					return badgeRepo.MarkClean(ctx, nil, ids, at)
				},
			},
			{
				name: "notifications",
				snapshot: func(ctx context.Context) ([]syncItem, error) {
					rows, err := notificationRepo.ListDirty(ctx, nil)
					if err != nil {
						return nil, err
					}
					items := make([]syncItem, 0, len(rows))
					for _, row := range rows {
						items = append(items, syncItem{id: row.ID, payload: row})
					}
					return items, nil
				},
				markClean: func(ctx context.Context, ids []uuid.UUID, at time.Time) error {
					return notificationRepo.MarkClean(ctx, nil, ids, at)
				},
			},
		},
	}
}

func (s *syncService) Run(ctx context.Context) (*SyncReport, error) {
	if s.client == nil {
		return nil, storeerr.Newf(storeerr.KindBackendUnavailable, "",
			"sync requires a remote backend")
	}

	report := &SyncReport{Success: true, StartedAt: time.Now().UTC()}

	// Snapshot every dirty set up front so concurrent local writes do not
	// shift the batch under us.
	type batch struct {
		syncer entitySyncer
		items  []syncItem
	}
	var batches []batch
	total := 0
	for _, syncer := range s.syncers {
		items, err := syncer.snapshot(ctx)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch{syncer: syncer, items: items})
		total += len(items)
	}
	s.log.Info("Sync run starting", "dirty_records", total)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, b := range batches {
		b := b
		if len(b.items) == 0 {
			continue
		}
		g.Go(func() error {
			var confirmed []uuid.UUID
			for _, item := range b.items {
				outcome := RecordOutcome{Entity: b.syncer.name, ID: item.id}
				path := fmt.Sprintf("/api/v1/sync/%s/%s", b.syncer.name, item.id)
				if err := s.client.Put(gctx, path, item.payload, nil); err != nil {
					outcome.Error = err.Error()
					s.recordFailure(gctx, b.syncer.name, item.id, err)
				} else {
					outcome.Synced = true
					confirmed = append(confirmed, item.id)
				}
				mu.Lock()
				report.PerRecord = append(report.PerRecord, outcome)
				if outcome.Synced {
					report.SyncedIDs = append(report.SyncedIDs, item.id)
				} else {
					report.Success = false
				}
				mu.Unlock()
			}
			if len(confirmed) == 0 {
				return nil
			}
			if err := b.syncer.markClean(gctx, confirmed, time.Now().UTC()); err != nil {
				// The remote accepted these records; leaving them dirty only
				// means the next run re-pushes an idempotent upsert. Report
				// the failure instead of throwing the run's outcomes away.
				s.log.Error("Dirty-flag confirm failed",
					"entity", b.syncer.name, "records", len(confirmed), "error", err)
				_ = s.syslogRepo.Record(gctx, nil, types.LogLevelError,
					"sync confirm failed",
					map[string]any{
						"entity":  b.syncer.name,
						"records": len(confirmed),
						"error":   err.Error(),
					})
				mu.Lock()
				report.Success = false
				report.PerRecord = append(report.PerRecord, RecordOutcome{
					Entity: b.syncer.name,
					Error:  fmt.Sprintf("confirm failed, %d records stay dirty: %v", len(confirmed), err),
				})
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.FinishedAt = time.Now().UTC()
	s.log.Info("Sync run finished",
		"success", report.Success,
		"synced", len(report.SyncedIDs),
		"failed", len(report.PerRecord)-len(report.SyncedIDs))
	return report, nil
}

// recordFailure writes the per-record failure to the system log; a single
// bad record must stay debuggable after the run moved on.
func (s *syncService) recordFailure(ctx context.Context, entity string, id uuid.UUID, err error) {
	s.log.Warn("Record sync failed", "entity", entity, "id", id, "error", err)
	_ = s.syslogRepo.Record(ctx, nil, types.LogLevelError,
		"sync record failed",
		map[string]any{
			"entity": entity,
			"id":     id.String(),
			"kind":   string(storeerr.KindOf(err)),
			"error":  err.Error(),
		})
}
