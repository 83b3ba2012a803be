package repository

import (
	"context"

	"ppda-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MunicipalityRepository interface {
	Create(ctx context.Context, municipality *model.Municipality) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Municipality, error)
	ListActive(ctx context.Context) ([]model.Municipality, error)
	Update(ctx context.Context, municipality *model.Municipality) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type municipalityRepository struct {
	db *gorm.DB
}

func NewMunicipalityRepository(db *gorm.DB) MunicipalityRepository {
	return &municipalityRepository{db: db}
}

func (r *municipalityRepository) Create(ctx context.Context, municipality *model.Municipality) error {
	return GetDB(ctx, r.db).Create(municipality).Error
}

func (r *municipalityRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Municipality, error) {
	var municipality model.Municipality
	if err := GetDB(ctx, r.db).First(&municipality, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &municipality, nil
}

func (r *municipalityRepository) ListActive(ctx context.Context) ([]model.Municipality, error) {
	var municipalities []model.Municipality
	if err := GetDB(ctx, r.db).Where("active = ?", true).Order("name ASC").Find(&municipalities).Error; err != nil {
		return nil, err
	}
	return municipalities, nil
}

func (r *municipalityRepository) Update(ctx context.Context, municipality *model.Municipality) error {
	return GetDB(ctx, r.db).Save(municipality).Error
}

// Delete hard-deletes the municipality. Nothing in the current schema
// references municipalities, so there is no deactivation fallback here.
func (r *municipalityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Delete(&model.Municipality{}, "id = ?", id).Error
}
