package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FormulaKind enum constants
const (
	FormulaKindFormula     = "FORMULA"
	FormulaKindDichotomous = "DICHOTOMOUS"
	FormulaKindNumber      = "NUMBER"
)

// Frequency enum constants
const (
	FrequencyAnnual  = "ANNUAL"
	FrequencyOneTime = "ONE_TIME"
)

// Measure is a committed mitigation action tracked by the prevention plan.
// NextDueDate is derived state, recomputed only when one of the measure's
// indicators is approved.
type Measure struct {
	ID                 uuid.UUID          `gorm:"type:uuid;primaryKey" json:"id"`
	ShortName          string             `gorm:"type:varchar(255);not null" json:"short_name"`
	LongName           string             `gorm:"type:varchar(255);not null" json:"long_name"`
	AgencyID           uuid.UUID          `gorm:"type:uuid;not null;index" json:"agency_id"`
	Agency             *Agency            `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	MeasureTypeID      *uuid.UUID         `gorm:"type:uuid;index" json:"measure_type_id"`
	MeasureType        *MeasureType       `gorm:"foreignKey:MeasureTypeID" json:"measure_type,omitempty"`
	Regulatory         bool               `gorm:"not null;default:true" json:"regulatory"`
	FormulaDescription string             `gorm:"type:text" json:"formula_description"`
	FormulaKind        string             `gorm:"type:varchar(20);not null" json:"formula_kind"`
	Frequency          string             `gorm:"type:varchar(10);not null" json:"frequency"`
	NextDueDate        *time.Time         `gorm:"type:date" json:"next_due_date"`
	Active             bool               `gorm:"not null;default:true" json:"active"`
	RequiredDocuments  []RequiredDocument `gorm:"foreignKey:MeasureID;constraint:OnDelete:CASCADE" json:"required_documents,omitempty"`
	CreatedAt          time.Time          `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *Measure) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// RequiredDocument is a named upload slot attached to a measure. Its identity
// is the key for matching uploaded files to requirements. Deleting the measure
// deletes its slots.
type RequiredDocument struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MeasureID   uuid.UUID `gorm:"type:uuid;not null;index" json:"measure_id"`
	Description string    `gorm:"type:varchar(255);not null" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (d *RequiredDocument) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
