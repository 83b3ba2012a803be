package repository

import (
	"context"

	"ppda-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AgencyRepository interface {
	Create(ctx context.Context, agency *model.Agency) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Agency, error)
	ListActive(ctx context.Context) ([]model.Agency, error)
	Update(ctx context.Context, agency *model.Agency) error
	// DeleteOrDeactivate hard-deletes the agency unless measures or users
	// still reference it, in which case it flips the active flag instead.
	// Returns true when the row was deactivated rather than deleted.
	DeleteOrDeactivate(ctx context.Context, id uuid.UUID) (bool, error)
}

type agencyRepository struct {
	db *gorm.DB
}

func NewAgencyRepository(db *gorm.DB) AgencyRepository {
	return &agencyRepository{db: db}
}

func (r *agencyRepository) Create(ctx context.Context, agency *model.Agency) error {
	return GetDB(ctx, r.db).Create(agency).Error
}

func (r *agencyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Agency, error) {
	var agency model.Agency
	if err := GetDB(ctx, r.db).First(&agency, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &agency, nil
}

func (r *agencyRepository) ListActive(ctx context.Context) ([]model.Agency, error) {
	var agencies []model.Agency
	if err := GetDB(ctx, r.db).Where("active = ?", true).Order("name ASC").Find(&agencies).Error; err != nil {
		return nil, err
	}
	return agencies, nil
}

func (r *agencyRepository) Update(ctx context.Context, agency *model.Agency) error {
	return GetDB(ctx, r.db).Save(agency).Error
}

func (r *agencyRepository) DeleteOrDeactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	db := GetDB(ctx, r.db)

	var measureRefs int64
	if err := db.Model(&model.Measure{}).Where("agency_id = ?", id).Count(&measureRefs).Error; err != nil {
		return false, err
	}
	var userRefs int64
	if err := db.Model(&model.User{}).Where("agency_id = ?", id).Count(&userRefs).Error; err != nil {
		return false, err
	}

	if measureRefs+userRefs > 0 {
		if err := db.Model(&model.Agency{}).Where("id = ?", id).Update("active", false).Error; err != nil {
			return false, err
		}
		return true, nil
	}

	return false, db.Delete(&model.Agency{}, "id = ?", id).Error
}
