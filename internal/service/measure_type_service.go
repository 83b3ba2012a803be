package service

import (
	"context"
	"strings"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"
	"ppda-backend/internal/repository"

	"github.com/google/uuid"
)

type MeasureTypeRequest struct {
	Name string `json:"name" binding:"required"`
}

type MeasureTypeResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type MeasureTypeService interface {
	CreateMeasureType(ctx context.Context, req MeasureTypeRequest) (MeasureTypeResponse, error)
	ListMeasureTypes(ctx context.Context) ([]MeasureTypeResponse, error)
	UpdateMeasureType(ctx context.Context, id string, req MeasureTypeRequest) (MeasureTypeResponse, error)
	// DeleteMeasureType removes the type, or deactivates it when measures
	// still reference it. Returns true when it was deactivated.
	DeleteMeasureType(ctx context.Context, id string) (bool, error)
}

type measureTypeService struct {
	repo repository.MeasureTypeRepository
}

func NewMeasureTypeService(repo repository.MeasureTypeRepository) MeasureTypeService {
	return &measureTypeService{repo: repo}
}

func (s *measureTypeService) CreateMeasureType(ctx context.Context, req MeasureTypeRequest) (MeasureTypeResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return MeasureTypeResponse{}, apperror.Validation("measure type name is required")
	}

	measureType := model.MeasureType{Name: name, Active: true}
	if err := s.repo.Create(ctx, &measureType); err != nil {
		return MeasureTypeResponse{}, apperror.Internal("failed to create measure type", err)
	}
	return toMeasureTypeResponse(measureType), nil
}

func (s *measureTypeService) ListMeasureTypes(ctx context.Context) ([]MeasureTypeResponse, error) {
	types, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list measure types", err)
	}

	result := make([]MeasureTypeResponse, 0, len(types))
	for _, t := range types {
		result = append(result, toMeasureTypeResponse(t))
	}
	return result, nil
}

func (s *measureTypeService) UpdateMeasureType(ctx context.Context, id string, req MeasureTypeRequest) (MeasureTypeResponse, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return MeasureTypeResponse{}, apperror.Validation("invalid measure type id")
	}

	measureType, err := s.repo.FindByID(ctx, typeID)
	if err != nil {
		return MeasureTypeResponse{}, apperror.NotFound("measure type")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return MeasureTypeResponse{}, apperror.Validation("measure type name is required")
	}
	measureType.Name = name

	if err := s.repo.Update(ctx, measureType); err != nil {
		return MeasureTypeResponse{}, apperror.Internal("failed to update measure type", err)
	}
	return toMeasureTypeResponse(*measureType), nil
}

func (s *measureTypeService) DeleteMeasureType(ctx context.Context, id string) (bool, error) {
	typeID, err := uuid.Parse(id)
	if err != nil {
		return false, apperror.Validation("invalid measure type id")
	}

	if _, err := s.repo.FindByID(ctx, typeID); err != nil {
		return false, apperror.NotFound("measure type")
	}

	deactivated, err := s.repo.DeleteOrDeactivate(ctx, typeID)
	if err != nil {
		return false, apperror.Internal("failed to delete measure type", err)
	}
	return deactivated, nil
}

func toMeasureTypeResponse(t model.MeasureType) MeasureTypeResponse {
	return MeasureTypeResponse{ID: t.ID.String(), Name: t.Name, Active: t.Active}
}
