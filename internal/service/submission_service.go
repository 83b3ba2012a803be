package service

import (
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"
	"ppda-backend/internal/repository"
	"ppda-backend/internal/storage"
	ws "ppda-backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FileUpload is one uploaded file payload keyed to a required-document slot.
type FileUpload struct {
	Filename string
	Content  io.Reader
}

// SubmissionService accepts a batch of uploaded files against a measure's
// required-document slots and persists them as a new pending indicator.
type SubmissionService interface {
	// Submit validates that the user belongs to the measure's agency and
	// that every required slot has a file, then creates one indicator and
	// one uploaded-document row per file in a single transaction. Validation
	// happens before anything is persisted.
	Submit(ctx context.Context, measureID, userID string, files map[string]FileUpload) error
}

type submissionService struct {
	measureRepo   repository.MeasureRepository
	indicatorRepo repository.IndicatorRepository
	userRepo      repository.UserRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	store         storage.Storage
	hub           *ws.Hub
}

func NewSubmissionService(
	measureRepo repository.MeasureRepository,
	indicatorRepo repository.IndicatorRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	store storage.Storage,
	hub *ws.Hub,
) SubmissionService {
	return &submissionService{
		measureRepo:   measureRepo,
		indicatorRepo: indicatorRepo,
		userRepo:      userRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		store:         store,
		hub:           hub,
	}
}

func (s *submissionService) Submit(ctx context.Context, measureID, userID string, files map[string]FileUpload) error {
	mID, err := uuid.Parse(measureID)
	if err != nil {
		return apperror.Validation("invalid measure id")
	}
	uID, err := uuid.Parse(userID)
	if err != nil {
		return apperror.Validation("invalid user id")
	}

	measure, err := s.measureRepo.FindByID(ctx, mID)
	if err != nil {
		return apperror.NotFound("measure")
	}

	user, err := s.userRepo.FindByID(ctx, uID)
	if err != nil {
		return apperror.NotFound("user")
	}
	if user.AgencyID == nil || *user.AgencyID != measure.AgencyID {
		return apperror.PermissionDenied("you cannot submit documents for this measure")
	}

	slots, err := s.measureRepo.RequiredDocuments(ctx, mID)
	if err != nil {
		return apperror.Internal("failed to load required documents", err)
	}

	// Every slot is required; collect all missing ones before touching the
	// database so a failed submission has no partial effects.
	var missing []string
	for _, slot := range slots {
		if _, ok := files[slot.ID.String()]; !ok {
			missing = append(missing, slot.Description)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperror.Validation("missing required documents: %s", strings.Join(missing, ", "))
	}

	var indicator model.Indicator
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		indicator = model.Indicator{
			MeasureID:         mID,
			UserID:            uID,
			CalculationValue:  decimal.Zero, // placeholder until the formula evaluator lands
			MeetsRequirements: false,
		}
		if err := s.indicatorRepo.Create(txCtx, &indicator); err != nil {
			return apperror.Internal("failed to create indicator", err)
		}

		for _, slot := range slots {
			file := files[slot.ID.String()]

			// Random base name + original extension: collision-resistant and
			// immune to client-supplied paths.
			ext := filepath.Ext(file.Filename)
			storedName := strings.ReplaceAll(uuid.NewString(), "-", "") + "_doc_" + slot.ID.String() + ext

			path, err := s.store.Save(txCtx, storedName, file.Content)
			if err != nil {
				return apperror.Internal("failed to store file", err)
			}

			doc := model.UploadedDocument{
				IndicatorID:        indicator.ID,
				RequiredDocumentID: slot.ID,
				FilePath:           path,
			}
			if err := s.indicatorRepo.CreateUploadedDocument(txCtx, &doc); err != nil {
				return apperror.Internal("failed to record uploaded document", err)
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"measure_id":     mID.String(),
			"document_count": len(slots),
		})
		entry := model.AuditLog{
			UserID:     &uID,
			Action:     model.ActionSubmitIndicator,
			EntityID:   indicator.ID.String(),
			EntityName: measure.ShortName,
			Details:    string(details),
		}
		if err := s.auditRepo.Create(txCtx, &entry); err != nil {
			return apperror.Internal("failed to write audit log", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.hub.Notify(ws.EventIndicatorSubmitted, map[string]interface{}{
		"indicator_id": indicator.ID.String(),
		"measure_id":   mID.String(),
		"submitted_by": user.Email,
	})

	return nil
}
