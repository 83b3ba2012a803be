package repository

import (
	"context"

	"ppda-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeasureTypeRepository interface {
	Create(ctx context.Context, measureType *model.MeasureType) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MeasureType, error)
	ListActive(ctx context.Context) ([]model.MeasureType, error)
	Update(ctx context.Context, measureType *model.MeasureType) error
	// DeleteOrDeactivate hard-deletes the type unless measures still
	// reference it, in which case it flips the active flag instead.
	DeleteOrDeactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type measureTypeRepository struct {
	db *gorm.DB
}

func NewMeasureTypeRepository(db *gorm.DB) MeasureTypeRepository {
	return &measureTypeRepository{db: db}
}

func (r *measureTypeRepository) Create(ctx context.Context, measureType *model.MeasureType) error {
	return GetDB(ctx, r.db).Create(measureType).Error
}

func (r *measureTypeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MeasureType, error) {
	var measureType model.MeasureType
	if err := GetDB(ctx, r.db).First(&measureType, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &measureType, nil
}

func (r *measureTypeRepository) ListActive(ctx context.Context) ([]model.MeasureType, error) {
	var types []model.MeasureType
	if err := GetDB(ctx, r.db).Where("active = ?", true).Order("name ASC").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

func (r *measureTypeRepository) Update(ctx context.Context, measureType *model.MeasureType) error {
	return GetDB(ctx, r.db).Save(measureType).Error
}

func (r *measureTypeRepository) DeleteOrDeactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	db := GetDB(ctx, r.db)

	var refs int64
	if err := db.Model(&model.Measure{}).Where("measure_type_id = ?", id).Count(&refs).Error; err != nil {
		return false, err
	}

	if refs > 0 {
		if err := db.Model(&model.MeasureType{}).Where("id = ?", id).Update("active", false).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	return false, db.Delete(&model.MeasureType{}, "id = ?", id).Error
}
