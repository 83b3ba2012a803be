package service

import (
	"context"
	"strings"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"
	"ppda-backend/internal/repository"

	"github.com/google/uuid"
)

type AgencyRequest struct {
	Name string `json:"name" binding:"required"`
}

type AgencyResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type AgencyService interface {
	CreateAgency(ctx context.Context, adminID string, req AgencyRequest) (AgencyResponse, error)
	ListAgencies(ctx context.Context) ([]AgencyResponse, error)
	UpdateAgency(ctx context.Context, adminID, id string, req AgencyRequest) (AgencyResponse, error)
	// DeleteAgency removes the agency, or deactivates it when measures or
	// users still reference it. Returns true when it was deactivated.
	DeleteAgency(ctx context.Context, adminID, id string) (bool, error)
}

type agencyService struct {
	agencyRepo repository.AgencyRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
}

func NewAgencyService(agencyRepo repository.AgencyRepository, auditRepo repository.AuditRepository, txManager repository.TransactionManager) AgencyService {
	return &agencyService{agencyRepo: agencyRepo, auditRepo: auditRepo, txManager: txManager}
}

func (s *agencyService) CreateAgency(ctx context.Context, adminID string, req AgencyRequest) (AgencyResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return AgencyResponse{}, apperror.Validation("agency name is required")
	}

	agency := model.Agency{Name: name, Active: true}
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.agencyRepo.Create(txCtx, &agency); err != nil {
			return apperror.Internal("failed to create agency", err)
		}
		return s.writeAudit(txCtx, adminID, model.ActionCreateAgency, &agency)
	})
	if err != nil {
		return AgencyResponse{}, err
	}
	return toAgencyResponse(agency), nil
}

func (s *agencyService) ListAgencies(ctx context.Context) ([]AgencyResponse, error) {
	agencies, err := s.agencyRepo.ListActive(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list agencies", err)
	}

	result := make([]AgencyResponse, 0, len(agencies))
	for _, a := range agencies {
		result = append(result, toAgencyResponse(a))
	}
	return result, nil
}

func (s *agencyService) UpdateAgency(ctx context.Context, adminID, id string, req AgencyRequest) (AgencyResponse, error) {
	agencyID, err := uuid.Parse(id)
	if err != nil {
		return AgencyResponse{}, apperror.Validation("invalid agency id")
	}

	agency, err := s.agencyRepo.FindByID(ctx, agencyID)
	if err != nil {
		return AgencyResponse{}, apperror.NotFound("agency")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return AgencyResponse{}, apperror.Validation("agency name is required")
	}
	agency.Name = name

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.agencyRepo.Update(txCtx, agency); err != nil {
			return apperror.Internal("failed to update agency", err)
		}
		return s.writeAudit(txCtx, adminID, model.ActionUpdateAgency, agency)
	})
	if err != nil {
		return AgencyResponse{}, err
	}
	return toAgencyResponse(*agency), nil
}

func (s *agencyService) DeleteAgency(ctx context.Context, adminID, id string) (bool, error) {
	agencyID, err := uuid.Parse(id)
	if err != nil {
		return false, apperror.Validation("invalid agency id")
	}

	agency, err := s.agencyRepo.FindByID(ctx, agencyID)
	if err != nil {
		return false, apperror.NotFound("agency")
	}

	var deactivated bool
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		deactivated, err = s.agencyRepo.DeleteOrDeactivate(txCtx, agencyID)
		if err != nil {
			return apperror.Internal("failed to delete agency", err)
		}
		return s.writeAudit(txCtx, adminID, model.ActionDeleteAgency, agency)
	})
	return deactivated, err
}

func (s *agencyService) writeAudit(ctx context.Context, adminID, action string, agency *model.Agency) error {
	var userID *uuid.UUID
	if parsed, err := uuid.Parse(adminID); err == nil {
		userID = &parsed
	}

	entry := model.AuditLog{
		UserID:     userID,
		Action:     action,
		EntityID:   agency.ID.String(),
		EntityName: agency.Name,
	}
	if err := s.auditRepo.Create(ctx, &entry); err != nil {
		return apperror.Internal("failed to write audit log", err)
	}
	return nil
}

func toAgencyResponse(a model.Agency) AgencyResponse {
	return AgencyResponse{ID: a.ID.String(), Name: a.Name, Active: a.Active}
}
