package service

import (
	"context"
	"strings"

	"ppda-backend/internal/apperror"
	"ppda-backend/internal/model"
	"ppda-backend/internal/repository"

	"github.com/google/uuid"
)

type MunicipalityRequest struct {
	Name string `json:"name" binding:"required"`
}

type MunicipalityResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

type MunicipalityService interface {
	CreateMunicipality(ctx context.Context, req MunicipalityRequest) (MunicipalityResponse, error)
	ListMunicipalities(ctx context.Context) ([]MunicipalityResponse, error)
	UpdateMunicipality(ctx context.Context, id string, req MunicipalityRequest) (MunicipalityResponse, error)
	DeleteMunicipality(ctx context.Context, id string) error
}

type municipalityService struct {
	repo repository.MunicipalityRepository
}

func NewMunicipalityService(repo repository.MunicipalityRepository) MunicipalityService {
	return &municipalityService{repo: repo}
}

func (s *municipalityService) CreateMunicipality(ctx context.Context, req MunicipalityRequest) (MunicipalityResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return MunicipalityResponse{}, apperror.Validation("municipality name is required")
	}

	municipality := model.Municipality{Name: name, Active: true}
	if err := s.repo.Create(ctx, &municipality); err != nil {
		return MunicipalityResponse{}, apperror.Internal("failed to create municipality", err)
	}
	return toMunicipalityResponse(municipality), nil
}

func (s *municipalityService) ListMunicipalities(ctx context.Context) ([]MunicipalityResponse, error) {
	municipalities, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, apperror.Internal("failed to list municipalities", err)
	}

	result := make([]MunicipalityResponse, 0, len(municipalities))
	for _, m := range municipalities {
		result = append(result, toMunicipalityResponse(m))
	}
	return result, nil
}

func (s *municipalityService) UpdateMunicipality(ctx context.Context, id string, req MunicipalityRequest) (MunicipalityResponse, error) {
	municipalityID, err := uuid.Parse(id)
	if err != nil {
		return MunicipalityResponse{}, apperror.Validation("invalid municipality id")
	}

	municipality, err := s.repo.FindByID(ctx, municipalityID)
	if err != nil {
		return MunicipalityResponse{}, apperror.NotFound("municipality")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return MunicipalityResponse{}, apperror.Validation("municipality name is required")
	}
	municipality.Name = name

	if err := s.repo.Update(ctx, municipality); err != nil {
		return MunicipalityResponse{}, apperror.Internal("failed to update municipality", err)
	}
	return toMunicipalityResponse(*municipality), nil
}

func (s *municipalityService) DeleteMunicipality(ctx context.Context, id string) error {
	municipalityID, err := uuid.Parse(id)
	if err != nil {
		return apperror.Validation("invalid municipality id")
	}

	if _, err := s.repo.FindByID(ctx, municipalityID); err != nil {
		return apperror.NotFound("municipality")
	}

	if err := s.repo.Delete(ctx, municipalityID); err != nil {
		return apperror.Internal("failed to delete municipality", err)
	}
	return nil
}

func toMunicipalityResponse(m model.Municipality) MunicipalityResponse {
	return MunicipalityResponse{ID: m.ID.String(), Name: m.Name, Active: m.Active}
}
