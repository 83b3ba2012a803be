package repository

import (
	"context"

	"ppda-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type IndicatorRepository interface {
	Create(ctx context.Context, indicator *model.Indicator) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Indicator, error)
	// List returns all indicators ordered by reported_at descending with
	// measure, submitter and documents preloaded.
	List(ctx context.Context, page, limit int) ([]model.Indicator, int64, error)
	// LatestForMeasureAndUser returns the user's most recent indicator for
	// the measure, or (nil, nil) when none exists.
	LatestForMeasureAndUser(ctx context.Context, measureID, userID uuid.UUID) (*model.Indicator, error)
	Update(ctx context.Context, indicator *model.Indicator) error
	CreateUploadedDocument(ctx context.Context, doc *model.UploadedDocument) error
}

type indicatorRepository struct {
	db *gorm.DB
}

func NewIndicatorRepository(db *gorm.DB) IndicatorRepository {
	return &indicatorRepository{db: db}
}

func (r *indicatorRepository) Create(ctx context.Context, indicator *model.Indicator) error {
	return GetDB(ctx, r.db).Create(indicator).Error
}

func (r *indicatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Indicator, error) {
	var indicator model.Indicator
	if err := GetDB(ctx, r.db).First(&indicator, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &indicator, nil
}

func (r *indicatorRepository) List(ctx context.Context, page, limit int) ([]model.Indicator, int64, error) {
	var indicators []model.Indicator
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Indicator{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := db.
		Preload("Measure").
		Preload("User").
		Preload("Documents").
		Preload("Documents.RequiredDocument").
		Order("reported_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&indicators).Error
	if err != nil {
		return nil, 0, err
	}

	return indicators, total, nil
}

func (r *indicatorRepository) LatestForMeasureAndUser(ctx context.Context, measureID, userID uuid.UUID) (*model.Indicator, error) {
	var indicator model.Indicator
	err := GetDB(ctx, r.db).
		Where("measure_id = ? AND user_id = ?", measureID, userID).
		Order("reported_at DESC").
		First(&indicator).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &indicator, nil
}

func (r *indicatorRepository) Update(ctx context.Context, indicator *model.Indicator) error {
	return GetDB(ctx, r.db).Save(indicator).Error
}

func (r *indicatorRepository) CreateUploadedDocument(ctx context.Context, doc *model.UploadedDocument) error {
	return GetDB(ctx, r.db).Create(doc).Error
}
