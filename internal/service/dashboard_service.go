package service

import (
	"context"
	"time"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type DashboardEntry struct {
	Measure           MeasureResponse `json:"measure"`
	IndicatorID       *string         `json:"indicator_id,omitempty"`
	MeetsRequirements *bool           `json:"meets_requirements,omitempty"`
	ReportedAt        *string         `json:"reported_at,omitempty"`
}

type DashboardResponse struct {
	Approved          []DashboardEntry `json:"approved"`
	PendingReview     []DashboardEntry `json:"pending_review"`
	Rejected          []DashboardEntry `json:"rejected"`
	PendingCompletion []DashboardEntry `json:"pending_completion"`
}

// DashboardService classifies each active measure of the caller's agency into
// one of four buckets based on the caller's most recent indicator for it.
type DashboardService interface {
	Dashboard(ctx context.Context, userID string) (*DashboardResponse, error)
}

type dashboardService struct {
	measureRepo   repository.MeasureRepository
	indicatorRepo repository.IndicatorRepository
	userRepo      repository.UserRepository
}

func NewDashboardService(
	measureRepo repository.MeasureRepository,
	indicatorRepo repository.IndicatorRepository,
	userRepo repository.UserRepository,
) DashboardService {
	return &dashboardService{
		measureRepo:   measureRepo,
		indicatorRepo: indicatorRepo,
		userRepo:      userRepo,
	}
}

func (s *dashboardService) Dashboard(ctx context.Context, userID string) (*DashboardResponse, error) {
	uID, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperror.Validation("invalid user id")
	}

	user, err := s.userRepo.FindByID(ctx, uID)
	if err != nil {
		return nil, apperror.NotFound("user")
	}
	if user.AgencyID == nil {
		return nil, apperror.PermissionDenied("your account is not affiliated with an agency")
	}

	measures, err := s.measureRepo.ListActiveByAgency(ctx, *user.AgencyID)
	if err != nil {
		return nil, apperror.Internal("failed to load measures", err)
	}

	// Buckets are never nil so the JSON always carries four arrays.
	resp := &DashboardResponse{
		Approved:          []DashboardEntry{},
		PendingReview:     []DashboardEntry{},
		Rejected:          []DashboardEntry{},
		PendingCompletion: []DashboardEntry{},
	}

	for _, measure := range measures {
		indicator, err := s.indicatorRepo.LatestForMeasureAndUser(ctx, measure.ID, uID)
		if err != nil {
			return nil, apperror.Internal("failed to load indicators", err)
		}

		entry := DashboardEntry{Measure: toMeasureResponse(measure)}

		if indicator == nil {
			resp.PendingCompletion = append(resp.PendingCompletion, entry)
			continue
		}

		id := indicator.ID.String()
		meets := indicator.MeetsRequirements
		reported := indicator.ReportedAt.Format(time.RFC3339)
		entry.IndicatorID = &id
		entry.MeetsRequirements = &meets
		entry.ReportedAt = &reported

		// Classification follows only the most recent indicator: older
		// submissions for the same measure are ignored.
		switch {
		case indicator.MeetsRequirements:
			resp.Approved = append(resp.Approved, entry)
		case indicator.RejectedAt != nil:
			resp.Rejected = append(resp.Rejected, entry)
		default:
			resp.PendingReview = append(resp.PendingReview, entry)
		}
	}

	return resp, nil
}
