package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

const (
	PointsPerModule   = 10
	PointsPerCourse   = 50
	PointsEarlyFinish = 25
)

const leaderboardCacheTTL = 2 * time.Minute

// BadgeEvent carries the context of the points-affecting event that
// triggered a badge evaluation.
type BadgeEvent struct {
	OccurredAt      time.Time
	CourseCompleted bool
	OnTime          bool
}

// badgeAggregates is the snapshot the rule predicates run against. All
// values are derived from raw facts; nothing here is a source of truth.
type badgeAggregates struct {
	ModulesCompleted int
	CoursesCompleted int
	ForumPosts       int
	Weekend          bool
	CourseCompleted  bool
	OnTime           bool
}

type badgeRule struct {
	Code    types.BadgeCode
	Applies func(agg badgeAggregates) bool
}

var badgeRules = []badgeRule{
	{types.BadgeFirstModule, func(a badgeAggregates) bool { return a.ModulesCompleted >= 1 }},
	{types.BadgeTenModules, func(a badgeAggregates) bool { return a.ModulesCompleted >= 10 }},
	{types.BadgeFirstCourse, func(a badgeAggregates) bool { return a.CoursesCompleted >= 1 }},
	{types.BadgeFiveCourses, func(a badgeAggregates) bool { return a.CoursesCompleted >= 5 }},
	{types.BadgeOnTime, func(a badgeAggregates) bool { return a.CourseCompleted && a.OnTime }},
	{types.BadgeWeekendLearner, func(a badgeAggregates) bool { return a.Weekend && a.ModulesCompleted >= 1 }},
	{types.BadgeForumContributor, func(a badgeAggregates) bool { return a.ForumPosts >= 5 }},
}

// DefaultBadgeCatalog is seeded at startup; reseeding is idempotent.
func DefaultBadgeCatalog() []types.Badge {
	return []types.Badge{
		{Code: types.BadgeFirstModule, Name: "First Steps", Description: "Complete your first module"},
		{Code: types.BadgeTenModules, Name: "Deep Diver", Description: "Complete ten modules"},
		{Code: types.BadgeFirstCourse, Name: "Graduate", Description: "Complete your first course"},
		{Code: types.BadgeFiveCourses, Name: "Scholar", Description: "Complete five courses"},
		{Code: types.BadgeOnTime, Name: "Right On Time", Description: "Finish a course before its end date"},
		{Code: types.BadgeWeekendLearner, Name: "Weekend Learner", Description: "Learn on a weekend"},
		{Code: types.BadgeForumContributor, Name: "Voice of the Forum", Description: "Post five times in the forum"},
	}
}

type LeaderboardEntry struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Points int       `json:"points"`
}

type GamificationService interface {
	// AwardModulePoints credits a module completion and re-evaluates
	// badge rules. Runs inside the caller's transaction.
	AwardModulePoints(ctx context.Context, tx *gorm.DB, ob *Outbox, user *types.User, at time.Time) error
	// AwardCoursePoints credits a course completion, with the early-finish
	// bonus when completed strictly before the course end date. Returns
	// the points granted.
	AwardCoursePoints(ctx context.Context, tx *gorm.DB, ob *Outbox, user *types.User, course *types.Course, at time.Time) (int, error)
	// EvaluateBadges awards every rule that newly holds. Idempotent:
	// a badge is an earned-once fact.
	EvaluateBadges(ctx context.Context, tx *gorm.DB, ob *Outbox, user *types.User, ev BadgeEvent) error

	ListBadgesForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type gamificationService struct {
	log            *logger.Logger
	userRepo       repos.UserRepo
	badgeRepo      repos.BadgeRepo
	progressRepo   repos.ProgressRepo
	enrollmentRepo repos.EnrollmentRepo
	notifications  NotificationService
	cache          *redis.Client
}

func NewGamificationService(
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	badgeRepo repos.BadgeRepo,
	progressRepo repos.ProgressRepo,
	enrollmentRepo repos.EnrollmentRepo,
	notifications NotificationService,
	cache *redis.Client,
) GamificationService {
	return &gamificationService{
		log:            baseLog.With("service", "GamificationService"),
		userRepo:       userRepo,
		badgeRepo:      badgeRepo,
		progressRepo:   progressRepo,
		enrollmentRepo: enrollmentRepo,
		notifications:  notifications,
		cache:          cache,
	}
}

func (s *gamificationService) AwardModulePoints(ctx context.Context, tx *gorm.DB, ob *Outbox, user *types.User, at time.Time) error {
	user.Points += PointsPerModule
	if err := s.userRepo.Save(ctx, tx, user); err != nil {
		return err
	}
	return s.EvaluateBadges(ctx, tx, ob, user, BadgeEvent{OccurredAt: at})
}

func (s *gamificationService) AwardCoursePoints(ctx context.Context, tx *gorm.DB, ob *Outbox, user *types.User, course *types.Course, at time.Time) (int, error) {
	granted := PointsPerCourse
	onTime := course.EndDate != nil && at.Before(*course.EndDate)
	if onTime {
		granted += PointsEarlyFinish
	}
	user.Points += granted
	if err := s.userRepo.Save(ctx, tx, user); err != nil {
		return 0, err
	}
	err := s.EvaluateBadges(ctx, tx, ob, user, BadgeEvent{
		OccurredAt:      at,
		CourseCompleted: true,
		OnTime:          onTime,
	})
	if err != nil {
		return granted, err
	}
	return granted, nil
}

func (s *gamificationService) EvaluateBadges(ctx context.Context, tx *gorm.DB, ob *Outbox, user *types.User, ev BadgeEvent) error {
	agg, err := s.aggregates(ctx, tx, user, ev)
	if err != nil {
		return err
	}

	for _, rule := range badgeRules {
		if !rule.Applies(agg) {
			continue
		}
		badge, err := s.badgeRepo.GetByCode(ctx, tx, rule.Code)
		if err != nil {
			return err
		}
		awarded, err := s.badgeRepo.AwardIfAbsent(ctx, tx, user.ID, badge.ID, ev.OccurredAt)
		if err != nil {
			return err
		}
		if !awarded {
			continue
		}
		s.log.Info("Badge awarded", "user_id", user.ID, "badge", badge.Code)
		_, err = s.notifications.CreateForUser(ctx, tx, ob, user,
			types.NotificationBadge,
			fmt.Sprintf("Badge earned: %s", badge.Name),
			badge.Description,
			"/profile/badges")
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *gamificationService) aggregates(ctx context.Context, tx *gorm.DB, user *types.User, ev BadgeEvent) (badgeAggregates, error) {
	agg := badgeAggregates{
		ForumPosts:      user.ForumPosts,
		CourseCompleted: ev.CourseCompleted,
		OnTime:          ev.OnTime,
	}
	if wd := ev.OccurredAt.UTC().Weekday(); wd == time.Saturday || wd == time.Sunday {
		agg.Weekend = true
	}

	progress, err := s.progressRepo.ListForUser(ctx, tx, user.ID)
	if err != nil {
		return agg, err
	}
	for _, p := range progress {
		agg.ModulesCompleted += len(p.CompletedModuleIDs)
	}

	enrollments, err := s.enrollmentRepo.ListForStudent(ctx, tx, user.ID)
	if err != nil {
		return agg, err
	}
	for _, e := range enrollments {
		if e.Status == types.EnrollmentCompleted {
			agg.CoursesCompleted++
		}
	}
	return agg, nil
}

func (s *gamificationService) ListBadgesForUser(ctx context.Context, userID uuid.UUID) ([]*types.UserBadge, error) {
	return s.badgeRepo.ListForUser(ctx, nil, userID)
}

func (s *gamificationService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	cacheKey := fmt.Sprintf("leaderboard:%d", limit)

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached []LeaderboardEntry
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("Leaderboard cache read failed", "error", err)
		}
	}

	users, err := s.userRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool { return users[i].Points > users[j].Points })
	if len(users) > limit {
		users = users[:limit]
	}
	entries := make([]LeaderboardEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, LeaderboardEntry{UserID: u.ID, Name: u.Name, Points: u.Points})
	}

	if s.cache != nil {
		if raw, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, leaderboardCacheTTL).Err(); err != nil {
				s.log.Warn("Leaderboard cache write failed", "error", err)
			}
		}
	}
	return entries, nil
}
