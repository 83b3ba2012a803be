package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"
	"ppda-backend/internal/notification"
	"ppda-backend/internal/repository"
	ws "ppda-backend/internal/websocket"

	"github.com/google/uuid"
)

// --- DTOs ---

type RejectIndicatorRequest struct {
	Reason string `json:"reason"`
}

type UploadedDocumentResponse struct {
	ID                 string `json:"id"`
	RequiredDocumentID string `json:"required_document_id"`
	Description        string `json:"description"`
	FilePath           string `json:"file_path"`
}

type IndicatorResponse struct {
	ID                string                     `json:"id"`
	MeasureID         string                     `json:"measure_id"`
	MeasureShortName  string                     `json:"measure_short_name"`
	SubmittedBy       string                     `json:"submitted_by"`
	CalculationValue  string                     `json:"calculation_value"`
	MeetsRequirements bool                       `json:"meets_requirements"`
	ReportedAt        string                     `json:"reported_at"`
	ApprovedAt        *string                    `json:"approved_at"`
	RejectedAt        *string                    `json:"rejected_at"`
	RejectionReason   string                     `json:"rejection_reason"`
	Documents         []UploadedDocumentResponse `json:"documents"`
}

// --- Interface ---

// ReviewService is the administrator-facing state machine over indicator
// submissions. Approve and Reject are fully reversible: an admin may flip a
// decision any number of times, and re-applying the same decision converges
// on the same terminal fields.
type ReviewService interface {
	ListIndicators(ctx context.Context, page, limit int) ([]IndicatorResponse, int64, error)
	// Approve marks the indicator as meeting requirements, clears any prior
	// rejection, and recomputes the owning measure's next due date in the
	// same transaction. The returned warning is non-empty when the state
	// change committed but notifying the submitter failed.
	Approve(ctx context.Context, indicatorID, adminID string) (warning string, err error)
	// Reject marks the indicator as not meeting requirements with a reason.
	// The measure's next due date is never touched on rejection.
	Reject(ctx context.Context, indicatorID, adminID, reason string) error
}

type reviewService struct {
	indicatorRepo repository.IndicatorRepository
	measureRepo   repository.MeasureRepository
	userRepo      repository.UserRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	notifier      notification.Sender
	hub           *ws.Hub
	now           func() time.Time
}

func NewReviewService(
	indicatorRepo repository.IndicatorRepository,
	measureRepo repository.MeasureRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier notification.Sender,
	hub *ws.Hub,
) ReviewService {
	return &reviewService{
		indicatorRepo: indicatorRepo,
		measureRepo:   measureRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		notifier:      notifier,
		hub:           hub,
		now:           time.Now,
	}
}

// --- Implementation ---

func (s *reviewService) ListIndicators(ctx context.Context, page, limit int) ([]IndicatorResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	indicators, total, err := s.indicatorRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list indicators", err)
	}

	result := make([]IndicatorResponse, 0, len(indicators))
	for _, ind := range indicators {
		result = append(result, toIndicatorResponse(ind))
	}
	return result, total, nil
}

func (s *reviewService) Approve(ctx context.Context, indicatorID, adminID string) (string, error) {
	id, err := uuid.Parse(indicatorID)
	if err != nil {
		return "", apperror.Validation("invalid indicator id")
	}
	reviewerID, err := uuid.Parse(adminID)
	if err != nil {
		return "", apperror.Validation("invalid user id")
	}

	var indicator *model.Indicator
	var measure *model.Measure

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		indicator, err = s.indicatorRepo.FindByID(txCtx, id)
		if err != nil {
			return apperror.NotFound("indicator")
		}

		now := s.now()
		indicator.MeetsRequirements = true
		indicator.ApprovedAt = &now
		indicator.RejectedAt = nil
		indicator.RejectionReason = ""

		if err := s.indicatorRepo.Update(txCtx, indicator); err != nil {
			return apperror.Internal("failed to update indicator", err)
		}

		measure, err = s.measureRepo.FindByID(txCtx, indicator.MeasureID)
		if err != nil {
			return apperror.Internal("failed to load measure", err)
		}

		switch measure.Frequency {
		case model.FrequencyAnnual:
			due := nextAnnualDueDate(now)
			measure.NextDueDate = &due
		case model.FrequencyOneTime:
			measure.NextDueDate = nil
		}

		if err := s.measureRepo.UpdateNextDueDate(txCtx, measure.ID, measure.NextDueDate); err != nil {
			return apperror.Internal("failed to reschedule measure", err)
		}

		return s.writeAudit(txCtx, reviewerID, model.ActionApproveIndicator, indicator, measure, "")
	})
	if err != nil {
		return "", err
	}

	s.hub.Notify(ws.EventIndicatorApproved, map[string]interface{}{
		"indicator_id": indicator.ID.String(),
		"measure_id":   measure.ID.String(),
	})

	// Notification runs after commit; a delivery failure must never undo
	// the approval, so it is reported back as a warning.
	var warning string
	if submitter, loadErr := s.userRepo.FindByID(ctx, indicator.UserID); loadErr == nil {
		if sendErr := s.notifier.Send(ctx, submitter.Email,
			"Indicator approved",
			"Your submission for measure \""+measure.ShortName+"\" has been approved."); sendErr != nil {
			warning = "indicator approved, but the notification could not be delivered"
		}
	} else {
		warning = "indicator approved, but the submitter could not be notified"
	}

	return warning, nil
}

func (s *reviewService) Reject(ctx context.Context, indicatorID, adminID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperror.Validation("a rejection reason is required")
	}

	id, err := uuid.Parse(indicatorID)
	if err != nil {
		return apperror.Validation("invalid indicator id")
	}
	reviewerID, err := uuid.Parse(adminID)
	if err != nil {
		return apperror.Validation("invalid user id")
	}

	var indicator *model.Indicator

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		indicator, err = s.indicatorRepo.FindByID(txCtx, id)
		if err != nil {
			return apperror.NotFound("indicator")
		}

		now := s.now()
		indicator.MeetsRequirements = false
		indicator.ApprovedAt = nil
		indicator.RejectedAt = &now
		indicator.RejectionReason = reason

		if err := s.indicatorRepo.Update(txCtx, indicator); err != nil {
			return apperror.Internal("failed to update indicator", err)
		}

		return s.writeAudit(txCtx, reviewerID, model.ActionRejectIndicator, indicator, nil, reason)
	})
	if err != nil {
		return err
	}

	s.hub.Notify(ws.EventIndicatorRejected, map[string]interface{}{
		"indicator_id": indicator.ID.String(),
		"measure_id":   indicator.MeasureID.String(),
	})

	return nil
}

func (s *reviewService) writeAudit(ctx context.Context, reviewerID uuid.UUID, action string, indicator *model.Indicator, measure *model.Measure, reason string) error {
	payload := map[string]interface{}{
		"measure_id": indicator.MeasureID.String(),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	if measure != nil && measure.NextDueDate != nil {
		payload["next_due_date"] = measure.NextDueDate.Format("2006-01-02")
	}
	details, _ := json.Marshal(payload)

	entry := model.AuditLog{
		UserID:   &reviewerID,
		Action:   action,
		EntityID: indicator.ID.String(),
		Details:  string(details),
	}
	if err := s.auditRepo.Create(ctx, &entry); err != nil {
		return apperror.Internal("failed to write audit log", err)
	}
	return nil
}

// --- Helpers ---

func toIndicatorResponse(ind model.Indicator) IndicatorResponse {
	resp := IndicatorResponse{
		ID:                ind.ID.String(),
		MeasureID:         ind.MeasureID.String(),
		CalculationValue:  ind.CalculationValue.String(),
		MeetsRequirements: ind.MeetsRequirements,
		ReportedAt:        ind.ReportedAt.Format(time.RFC3339),
		RejectionReason:   ind.RejectionReason,
		Documents:         make([]UploadedDocumentResponse, 0, len(ind.Documents)),
	}

	if ind.Measure != nil {
		resp.MeasureShortName = ind.Measure.ShortName
	}
	if ind.User != nil {
		resp.SubmittedBy = ind.User.Email
	}
	if ind.ApprovedAt != nil {
		s := ind.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	if ind.RejectedAt != nil {
		s := ind.RejectedAt.Format(time.RFC3339)
		resp.RejectedAt = &s
	}

	for _, doc := range ind.Documents {
		docResp := UploadedDocumentResponse{
			ID:                 doc.ID.String(),
			RequiredDocumentID: doc.RequiredDocumentID.String(),
			FilePath:           doc.FilePath,
		}
		if doc.RequiredDocument != nil {
			docResp.Description = doc.RequiredDocument.Description
		}
		resp.Documents = append(resp.Documents, docResp)
	}

	return resp
}
