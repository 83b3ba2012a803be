package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Indicator is one submission of compliance evidence against a measure.
// Its review state is derived from the timestamp fields:
//
//	pending:  ApprovedAt == nil && RejectedAt == nil
//	approved: MeetsRequirements && ApprovedAt != nil
//	rejected: !MeetsRequirements && RejectedAt != nil
//
// Approving clears any prior rejection and vice versa; transitions are
// reversible admin actions, not append-only history. ReportedAt is set once
// at creation and never changes.
type Indicator struct {
	ID                uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	MeasureID         uuid.UUID          `gorm:"type:uuid;not null;index" json:"measure_id"`
	Measure           *Measure           `gorm:"foreignKey:MeasureID" json:"measure,omitempty"`
	UserID            uuid.UUID          `gorm:"type:uuid;not null;index" json:"user_id"`
	User              *User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	CalculationValue  decimal.Decimal    `gorm:"type:numeric(20,4);not null" json:"calculation_value"`
	MeetsRequirements bool               `gorm:"not null;default:false" json:"meets_requirements"`
	ReportedAt        time.Time          `gorm:"not null;index" json:"reported_at"`
	ApprovedAt        *time.Time         `json:"approved_at"`
	RejectedAt        *time.Time         `json:"rejected_at"`
	RejectionReason   string             `gorm:"type:text" json:"rejection_reason"`
	Documents         []UploadedDocument `gorm:"foreignKey:IndicatorID;constraint:OnDelete:CASCADE" json:"documents,omitempty"`
}

func (i *Indicator) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.ReportedAt.IsZero() {
		i.ReportedAt = time.Now()
	}
	return nil
}

// UploadedDocument links a stored file to the required-document slot it
// fulfills and the indicator it was submitted with. Created only alongside
// its indicator, never modified.
type UploadedDocument struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	IndicatorID        uuid.UUID         `gorm:"type:uuid;not null;index" json:"indicator_id"`
	RequiredDocumentID uuid.UUID         `gorm:"type:uuid;not null;index" json:"required_document_id"`
	RequiredDocument   *RequiredDocument `gorm:"foreignKey:RequiredDocumentID" json:"required_document,omitempty"`
	FilePath           string            `gorm:"type:varchar(512);not null" json:"file_path"`
	CreatedAt          time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (d *UploadedDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
