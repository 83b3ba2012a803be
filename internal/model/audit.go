package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateAgency     = "CREATE_AGENCY"
	ActionUpdateAgency     = "UPDATE_AGENCY"
	ActionDeleteAgency     = "DELETE_AGENCY"
	ActionCreateMeasure    = "CREATE_MEASURE"
	ActionUpdateMeasure    = "UPDATE_MEASURE"
	ActionDeleteMeasure    = "DELETE_MEASURE"
	ActionSubmitIndicator  = "SUBMIT_INDICATOR"
	ActionApproveIndicator = "APPROVE_INDICATOR"
	ActionRejectIndicator  = "REJECT_INDICATOR"
	ActionApproveUser      = "APPROVE_USER"
	ActionDeactivateUser   = "DEACTIVATE_USER"
)

// AuditLog tracks Who, What, and When for critical system changes
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	User       *User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"`
	Details    string     `gorm:"type:text" json:"details"` // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
