package service

import (
	"context"
	"time"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"
	"ppda-backend/internal/repository"
)

type AuditLogResponse struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id,omitempty"`
	UserEmail  string `json:"user_email,omitempty"`
	Action     string `json:"action"`
	EntityID   string `json:"entity_id"`
	EntityName string `json:"entity_name,omitempty"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// AuditService exposes the read side of the audit trail. Writes happen inside
// the owning services' transactions, never through this interface.
type AuditService interface {
	ListAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) ListAuditLogs(ctx context.Context, page, limit int) ([]AuditLogResponse, int64, error) {
	entries, total, err := s.auditRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list audit logs", err)
	}

	result := make([]AuditLogResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, toAuditLogResponse(e))
	}
	return result, total, nil
}

func toAuditLogResponse(e model.AuditLog) AuditLogResponse {
	resp := AuditLogResponse{
		ID:         e.ID.String(),
		Action:     e.Action,
		EntityID:   e.EntityID,
		EntityName: e.EntityName,
		Details:    e.Details,
		CreatedAt:  e.CreatedAt.Format(time.RFC3339),
	}
	if e.UserID != nil {
		resp.UserID = e.UserID.String()
	}
	if e.User != nil {
		resp.UserEmail = e.User.Email
	}
	return resp
}
