package repository

import (
	"context"
	"time"

	"ppda-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeasureRepository interface {
	Create(ctx context.Context, measure *model.Measure) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Measure, error)
	FindByIDWithDocuments(ctx context.Context, id uuid.UUID) (*model.Measure, error)
	ListActive(ctx context.Context) ([]model.Measure, error)
	ListActiveByAgency(ctx context.Context, agencyID uuid.UUID) ([]model.Measure, error)
	Update(ctx context.Context, measure *model.Measure) error
	UpdateNextDueDate(ctx context.Context, id uuid.UUID, nextDueDate *time.Time) error
	// RequiredDocuments returns the measure's upload slots ordered by creation.
	RequiredDocuments(ctx context.Context, measureID uuid.UUID) ([]model.RequiredDocument, error)
	ReplaceRequiredDocuments(ctx context.Context, measureID uuid.UUID, descriptions []string) error
	CountSlotReferences(ctx context.Context, measureID uuid.UUID) (int64, error)
	// DeleteOrDeactivate hard-deletes the measure (and, by composition, its
	// required documents) unless indicators still reference it, in which
	// case it flips the active flag instead.
	DeleteOrDeactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type measureRepository struct {
	db *gorm.DB
}

func NewMeasureRepository(db *gorm.DB) MeasureRepository {
	return &measureRepository{db: db}
}

func (r *measureRepository) Create(ctx context.Context, measure *model.Measure) error {
	return GetDB(ctx, r.db).Create(measure).Error
}

func (r *measureRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Measure, error) {
	var measure model.Measure
	if err := GetDB(ctx, r.db).First(&measure, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &measure, nil
}

func (r *measureRepository) FindByIDWithDocuments(ctx context.Context, id uuid.UUID) (*model.Measure, error) {
	var measure model.Measure
	err := GetDB(ctx, r.db).
		Preload("RequiredDocuments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&measure, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &measure, nil
}

func (r *measureRepository) ListActive(ctx context.Context) ([]model.Measure, error) {
	var measures []model.Measure
	err := GetDB(ctx, r.db).
		Preload("RequiredDocuments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Agency").
		Preload("MeasureType").
		Where("active = ?", true).
		Find(&measures).Error
	if err != nil {
		return nil, err
	}
	return measures, nil
}

func (r *measureRepository) ListActiveByAgency(ctx context.Context, agencyID uuid.UUID) ([]model.Measure, error) {
	var measures []model.Measure
	err := GetDB(ctx, r.db).
		Preload("RequiredDocuments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("agency_id = ? AND active = ?", agencyID, true).
		Find(&measures).Error
	if err != nil {
		return nil, err
	}
	return measures, nil
}

func (r *measureRepository) Update(ctx context.Context, measure *model.Measure) error {
	return GetDB(ctx, r.db).Omit("RequiredDocuments").Save(measure).Error
}

func (r *measureRepository) UpdateNextDueDate(ctx context.Context, id uuid.UUID, nextDueDate *time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Measure{}).Where("id = ?", id).Update("next_due_date", nextDueDate).Error
}

func (r *measureRepository) RequiredDocuments(ctx context.Context, measureID uuid.UUID) ([]model.RequiredDocument, error) {
	var docs []model.RequiredDocument
	err := GetDB(ctx, r.db).
		Where("measure_id = ?", measureID).
		Order("created_at ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *measureRepository) ReplaceRequiredDocuments(ctx context.Context, measureID uuid.UUID, descriptions []string) error {
	db := GetDB(ctx, r.db)
	if err := db.Delete(&model.RequiredDocument{}, "measure_id = ?", measureID).Error; err != nil {
		return err
	}
	for _, desc := range descriptions {
		doc := model.RequiredDocument{MeasureID: measureID, Description: desc}
		if err := db.Create(&doc).Error; err != nil {
			return err
		}
	}
	return nil
}

// CountSlotReferences counts uploaded documents pointing at any of the
// measure's required-document slots.
func (r *measureRepository) CountSlotReferences(ctx context.Context, measureID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.UploadedDocument{}).
		Where("required_document_id IN (?)",
			GetDB(ctx, r.db).Model(&model.RequiredDocument{}).Select("id").Where("measure_id = ?", measureID)).
		Count(&count).Error
	return count, err
}

func (r *measureRepository) DeleteOrDeactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	db := GetDB(ctx, r.db)

	var refs int64
	if err := db.Model(&model.Indicator{}).Where("measure_id = ?", id).Count(&refs).Error; err != nil {
		return false, err
	}

	if refs > 0 {
		if err := db.Model(&model.Measure{}).Where("id = ?", id).Update("active", false).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	if err := db.Delete(&model.RequiredDocument{}, "measure_id = ?", id).Error; err != nil {
		return false, err
	}
	return false, db.Delete(&model.Measure{}, "id = ?", id).Error
}
