package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account on the platform. Regular users belong to an
// agency and submit indicators for its measures; accounts start unapproved
// and must be validated by an administrator before they can log in.
type User struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email      string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	FirstName  string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName   string     `gorm:"type:varchar(100)" json:"last_name"`
	Password   string     `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	NationalID *string    `gorm:"type:varchar(10);uniqueIndex" json:"national_id"`
	AgencyID   *uuid.UUID `gorm:"type:uuid;index" json:"agency_id"`
	Agency     *Agency    `gorm:"foreignKey:AgencyID" json:"agency,omitempty"`
	Approved   bool       `gorm:"not null;default:false" json:"approved"`
	IsAdmin    bool       `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// RefreshToken stores long-lived tokens allowing users to request new access tokens
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Token     string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
