package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/trainhubhq/trainhub-backend/internal/platform/logger"
	"github.com/trainhubhq/trainhub-backend/internal/repos"
	"github.com/trainhubhq/trainhub-backend/internal/types"
)

const complianceCacheTTL = 5 * time.Minute

// ComplianceFilter narrows the reported population. Nil fields match all.
type ComplianceFilter struct {
	Role       *types.Role       `json:"role,omitempty"`
	Department *types.Department `json:"department,omitempty"`
}

type UserCompliance struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Mandatory int       `json:"mandatory"`
	Completed int       `json:"completed"`
	Rate      float64   `json:"rate"`
}

// ComplianceReport is derived on demand and never persisted.
type ComplianceReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	Users       []UserCompliance `json:"users"`
	OverallRate float64          `json:"overall_rate"`
}

type ComplianceService interface {
	// Report computes mandatory-training compliance for the filtered
	// population. A user with no mandatory courses is 100% compliant.
	Report(ctx context.Context, filter ComplianceFilter) (*ComplianceReport, error)
}

type complianceService struct {
	log            *logger.Logger
	userRepo       repos.UserRepo
	courseRepo     repos.CourseRepo
	enrollmentRepo repos.EnrollmentRepo
	cache          *redis.Client
}

func NewComplianceService(
	baseLog *logger.Logger,
	userRepo repos.UserRepo,
	courseRepo repos.CourseRepo,
	enrollmentRepo repos.EnrollmentRepo,
	cache *redis.Client,
) ComplianceService {
	return &complianceService{
		log:            baseLog.With("service", "ComplianceService"),
		userRepo:       userRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		cache:          cache,
	}
}

func (s *complianceService) Report(ctx context.Context, filter ComplianceFilter) (*ComplianceReport, error) {
	cacheKey := complianceCacheKey(filter)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached ComplianceReport
			if json.Unmarshal([]byte(raw), &cached) == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			s.log.Warn("Compliance cache read failed", "error", err)
		}
	}

	users, err := s.userRepo.List(ctx, nil)
	if err != nil {
		return nil, err
	}
	courses, err := s.courseRepo.ListPublished(ctx, nil)
	if err != nil {
		return nil, err
	}

	report := &ComplianceReport{GeneratedAt: time.Now().UTC()}
	var mandatorySum, completedSum int
	for _, u := range users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Department != nil && u.Department != *filter.Department {
			continue
		}

		var mandatory []uuid.UUID
		for _, c := range courses {
			if c.MandatoryForRole(u.Role) {
				mandatory = append(mandatory, c.ID)
			}
		}

		uc := UserCompliance{UserID: u.ID, Name: u.Name, Mandatory: len(mandatory)}
		if len(mandatory) == 0 {
			uc.Rate = 100
			report.Users = append(report.Users, uc)
			continue
		}

		enrollments, err := s.enrollmentRepo.ListForStudent(ctx, nil, u.ID)
		if err != nil {
			return nil, err
		}
		completed := make(map[uuid.UUID]bool)
		for _, e := range enrollments {
			if e.Status == types.EnrollmentCompleted {
				completed[e.CourseID] = true
			}
		}
		for _, id := range mandatory {
			if completed[id] {
				uc.Completed++
			}
		}
		uc.Rate = float64(uc.Completed) / float64(uc.Mandatory) * 100
		mandatorySum += uc.Mandatory
		completedSum += uc.Completed
		report.Users = append(report.Users, uc)
	}

	if mandatorySum == 0 {
		report.OverallRate = 100
	} else {
		report.OverallRate = float64(completedSum) / float64(mandatorySum) * 100
	}

	if s.cache != nil {
		if raw, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, cacheKey, raw, complianceCacheTTL).Err(); err != nil {
				s.log.Warn("Compliance cache write failed", "error", err)
			}
		}
	}
	return report, nil
}

func complianceCacheKey(filter ComplianceFilter) string {
	role, dept := "*", "*"
	if filter.Role != nil {
		role = string(*filter.Role)
	}
	if filter.Department != nil {
		dept = string(*filter.Department)
	}
	return fmt.Sprintf("compliance:%s:%s", role, dept)
}
