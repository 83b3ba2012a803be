package service

import (
	"context"
	"encoding/json"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"
	"ppda-backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateMeasureRequest struct {
	ShortName          string   `json:"short_name" binding:"required"`
	LongName           string   `json:"long_name" binding:"required"`
	AgencyID           string   `json:"agency_id" binding:"required"`
	MeasureTypeID      string   `json:"measure_type_id"`
	Regulatory         *bool    `json:"regulatory"`
	FormulaDescription string   `json:"formula_description"`
	FormulaKind        string   `json:"formula_kind" binding:"required"`
	Frequency          string   `json:"frequency" binding:"required"`
	RequiredDocuments  []string `json:"required_documents"`
}

type UpdateMeasureRequest struct {
	ShortName          *string   `json:"short_name"`
	LongName           *string   `json:"long_name"`
	AgencyID           *string   `json:"agency_id"`
	MeasureTypeID      *string   `json:"measure_type_id"`
	Regulatory         *bool     `json:"regulatory"`
	FormulaDescription *string   `json:"formula_description"`
	FormulaKind        *string   `json:"formula_kind"`
	Frequency          *string   `json:"frequency"`
	Active             *bool     `json:"active"`
	RequiredDocuments  *[]string `json:"required_documents"` // pointer so nil = not sent, [] = clear all
}

type RequiredDocumentResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type MeasureResponse struct {
	ID                 string                     `json:"id"`
	ShortName          string                     `json:"short_name"`
	LongName           string                     `json:"long_name"`
	AgencyID           string                     `json:"agency_id"`
	AgencyName         string                     `json:"agency_name,omitempty"`
	MeasureTypeID      *string                    `json:"measure_type_id"`
	Regulatory         bool                       `json:"regulatory"`
	FormulaDescription string                     `json:"formula_description"`
	FormulaKind        string                     `json:"formula_kind"`
	Frequency          string                     `json:"frequency"`
	NextDueDate        *string                    `json:"next_due_date"`
	Active             bool                       `json:"active"`
	RequiredDocuments  []RequiredDocumentResponse `json:"required_documents"`
}

// --- Interface ---

type MeasureService interface {
	CreateMeasure(ctx context.Context, adminID string, req CreateMeasureRequest) (MeasureResponse, error)
	ListMeasures(ctx context.Context) ([]MeasureResponse, error)
	UpdateMeasure(ctx context.Context, adminID, id string, req UpdateMeasureRequest) (MeasureResponse, error)
	// DeleteMeasure removes the measure, or deactivates it when indicators
	// reference it. The returned flag reports which happened.
	DeleteMeasure(ctx context.Context, adminID, id string) (deactivated bool, err error)
	// RequiredDocuments resolves a measure's ordered upload slots. Regular
	// users may only read slots of their own agency's measures.
	RequiredDocuments(ctx context.Context, measureID, callerAgencyID string, isAdmin bool) ([]RequiredDocumentResponse, error)
}

type measureService struct {
	measureRepo     repository.MeasureRepository
	agencyRepo      repository.AgencyRepository
	measureTypeRepo repository.MeasureTypeRepository
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
}

func NewMeasureService(
	measureRepo repository.MeasureRepository,
	agencyRepo repository.AgencyRepository,
	measureTypeRepo repository.MeasureTypeRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) MeasureService {
	return &measureService{
		measureRepo:     measureRepo,
		agencyRepo:      agencyRepo,
		measureTypeRepo: measureTypeRepo,
		auditRepo:       auditRepo,
		txManager:       txManager,
	}
}

// --- Validation helpers ---

var validFormulaKinds = map[string]bool{
	model.FormulaKindFormula:     true,
	model.FormulaKindDichotomous: true,
	model.FormulaKindNumber:      true,
}

var validFrequencies = map[string]bool{
	model.FrequencyAnnual:  true,
	model.FrequencyOneTime: true,
}

// --- Implementation ---

func (s *measureService) CreateMeasure(ctx context.Context, adminID string, req CreateMeasureRequest) (MeasureResponse, error) {
	if !validFormulaKinds[req.FormulaKind] {
		return MeasureResponse{}, apperror.Validation("formula_kind must be one of: FORMULA, DICHOTOMOUS, NUMBER")
	}
	if !validFrequencies[req.Frequency] {
		return MeasureResponse{}, apperror.Validation("frequency must be one of: ANNUAL, ONE_TIME")
	}

	agencyID, err := uuid.Parse(req.AgencyID)
	if err != nil {
		return MeasureResponse{}, apperror.Validation("invalid agency_id")
	}
	if _, err := s.agencyRepo.FindByID(ctx, agencyID); err != nil {
		return MeasureResponse{}, apperror.NotFound("agency")
	}

	var measureTypeID *uuid.UUID
	if req.MeasureTypeID != "" {
		parsed, err := uuid.Parse(req.MeasureTypeID)
		if err != nil {
			return MeasureResponse{}, apperror.Validation("invalid measure_type_id")
		}
		if _, err := s.measureTypeRepo.FindByID(ctx, parsed); err != nil {
			return MeasureResponse{}, apperror.NotFound("measure type")
		}
		measureTypeID = &parsed
	}

	regulatory := true
	if req.Regulatory != nil {
		regulatory = *req.Regulatory
	}

	measure := model.Measure{
		ShortName:          req.ShortName,
		LongName:           req.LongName,
		AgencyID:           agencyID,
		MeasureTypeID:      measureTypeID,
		Regulatory:         regulatory,
		FormulaDescription: req.FormulaDescription,
		FormulaKind:        req.FormulaKind,
		Frequency:          req.Frequency,
		Active:             true,
	}
	for _, desc := range req.RequiredDocuments {
		measure.RequiredDocuments = append(measure.RequiredDocuments, model.RequiredDocument{Description: desc})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.measureRepo.Create(txCtx, &measure); err != nil {
			return apperror.Internal("failed to create measure", err)
		}
		return s.writeAudit(txCtx, adminID, model.ActionCreateMeasure, &measure)
	})
	if err != nil {
		return MeasureResponse{}, err
	}

	return toMeasureResponse(measure), nil
}

func (s *measureService) ListMeasures(ctx context.Context) ([]MeasureResponse, error) {
	measures, err := s.measureRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list measures", err)
	}

	result := make([]MeasureResponse, 0, len(measures))
	for _, m := range measures {
		result = append(result, toMeasureResponse(m))
	}
	return result, nil
}

func (s *measureService) UpdateMeasure(ctx context.Context, adminID, id string, req UpdateMeasureRequest) (MeasureResponse, error) {
	measureID, err := uuid.Parse(id)
	if err != nil {
		return MeasureResponse{}, apperror.Validation("invalid measure id")
	}

	measure, err := s.measureRepo.FindByID(ctx, measureID)
	if err != nil {
		return MeasureResponse{}, apperror.NotFound("measure")
	}

	if req.ShortName != nil {
		measure.ShortName = *req.ShortName
	}
	if req.LongName != nil {
		measure.LongName = *req.LongName
	}
	if req.AgencyID != nil {
		agencyID, err := uuid.Parse(*req.AgencyID)
		if err != nil {
			return MeasureResponse{}, apperror.Validation("invalid agency_id")
		}
		if _, err := s.agencyRepo.FindByID(ctx, agencyID); err != nil {
			return MeasureResponse{}, apperror.NotFound("agency")
		}
		measure.AgencyID = agencyID
	}
	if req.MeasureTypeID != nil {
		if *req.MeasureTypeID == "" {
			measure.MeasureTypeID = nil
		} else {
			parsed, err := uuid.Parse(*req.MeasureTypeID)
			if err != nil {
				return MeasureResponse{}, apperror.Validation("invalid measure_type_id")
			}
			if _, err := s.measureTypeRepo.FindByID(ctx, parsed); err != nil {
				return MeasureResponse{}, apperror.NotFound("measure type")
			}
			measure.MeasureTypeID = &parsed
		}
	}
	if req.Regulatory != nil {
		measure.Regulatory = *req.Regulatory
	}
	if req.FormulaDescription != nil {
		measure.FormulaDescription = *req.FormulaDescription
	}
	if req.FormulaKind != nil {
		if !validFormulaKinds[*req.FormulaKind] {
			return MeasureResponse{}, apperror.Validation("formula_kind must be one of: FORMULA, DICHOTOMOUS, NUMBER")
		}
		measure.FormulaKind = *req.FormulaKind
	}
	if req.Frequency != nil {
		if !validFrequencies[*req.Frequency] {
			return MeasureResponse{}, apperror.Validation("frequency must be one of: ANNUAL, ONE_TIME")
		}
		measure.Frequency = *req.Frequency
	}
	if req.Active != nil {
		measure.Active = *req.Active
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.RequiredDocuments != nil {
			// Slots already referenced by uploads cannot be replaced without
			// orphaning the evidence attached to them.
			refs, err := s.measureRepo.CountSlotReferences(txCtx, measureID)
			if err != nil {
				return apperror.Internal("failed to check slot references", err)
			}
			if refs > 0 {
				return apperror.Conflict("required documents cannot be replaced: submissions already reference them")
			}
			if err := s.measureRepo.ReplaceRequiredDocuments(txCtx, measureID, *req.RequiredDocuments); err != nil {
				return apperror.Internal("failed to replace required documents", err)
			}
		}

		if err := s.measureRepo.Update(txCtx, measure); err != nil {
			return apperror.Internal("failed to update measure", err)
		}
		return s.writeAudit(txCtx, adminID, model.ActionUpdateMeasure, measure)
	})
	if err != nil {
		return MeasureResponse{}, err
	}

	updated, err := s.measureRepo.FindByIDWithDocuments(ctx, measureID)
	if err != nil {
		return MeasureResponse{}, apperror.Internal("failed to reload measure", err)
	}
	return toMeasureResponse(*updated), nil
}

func (s *measureService) DeleteMeasure(ctx context.Context, adminID, id string) (bool, error) {
	measureID, err := uuid.Parse(id)
	if err != nil {
		return false, apperror.Validation("invalid measure id")
	}

	measure, err := s.measureRepo.FindByID(ctx, measureID)
	if err != nil {
		return false, apperror.NotFound("measure")
	}

	var deactivated bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		deactivated, err = s.measureRepo.DeleteOrDeactivate(txCtx, measureID)
		if err != nil {
			return apperror.Internal("failed to delete measure", err)
		}
		return s.writeAudit(txCtx, adminID, model.ActionDeleteMeasure, measure)
	})
	return deactivated, err
}

func (s *measureService) RequiredDocuments(ctx context.Context, measureID, callerAgencyID string, isAdmin bool) ([]RequiredDocumentResponse, error) {
	mID, err := uuid.Parse(measureID)
	if err != nil {
		return nil, apperror.Validation("invalid measure id")
	}

	measure, err := s.measureRepo.FindByID(ctx, mID)
	if err != nil {
		return nil, apperror.NotFound("measure")
	}

	if !isAdmin && measure.AgencyID.String() != callerAgencyID {
		return nil, apperror.PermissionDenied("this measure belongs to another agency")
	}

	docs, err := s.measureRepo.RequiredDocuments(ctx, mID)
	if err != nil {
		return nil, apperror.Internal("failed to load required documents", err)
	}

	result := make([]RequiredDocumentResponse, 0, len(docs))
	for _, doc := range docs {
		result = append(result, RequiredDocumentResponse{ID: doc.ID.String(), Description: doc.Description})
	}
	return result, nil
}

func (s *measureService) writeAudit(ctx context.Context, adminID, action string, measure *model.Measure) error {
	var userID *uuid.UUID
	if parsed, err := uuid.Parse(adminID); err == nil {
		userID = &parsed
	}

	details, _ := json.Marshal(map[string]interface{}{
		"agency_id": measure.AgencyID.String(),
		"frequency": measure.Frequency,
	})
	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   measure.ID.String(),
		EntityName: measure.ShortName,
		Details:    string(details),
	}
	if err := s.auditRepo.Create(ctx, &entry); err != nil {
		return apperror.Internal("failed to write audit log", err)
	}
	return nil
}

// --- Helpers ---

func toMeasureResponse(m model.Measure) MeasureResponse {
	resp := MeasureResponse{
		ID:                 m.ID.String(),
		ShortName:          m.ShortName,
		LongName:           m.LongName,
		AgencyID:           m.AgencyID.String(),
		Regulatory:         m.Regulatory,
		FormulaDescription: m.FormulaDescription,
		FormulaKind:        m.FormulaKind,
		Frequency:          m.Frequency,
		Active:             m.Active,
		RequiredDocuments:  make([]RequiredDocumentResponse, 0, len(m.RequiredDocuments)),
	}

	if m.Agency != nil {
		resp.AgencyName = m.Agency.Name
	}
	if m.MeasureTypeID != nil {
		s := m.MeasureTypeID.String()
		resp.MeasureTypeID = &s
	}
	if m.NextDueDate != nil {
		s := m.NextDueDate.Format("2006-01-02")
		resp.NextDueDate = &s
	}
	for _, doc := range m.RequiredDocuments {
		resp.RequiredDocuments = append(resp.RequiredDocuments, RequiredDocumentResponse{
			ID:          doc.ID.String(),
			Description: doc.Description,
		})
	}

	return resp
}
