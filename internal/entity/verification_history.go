package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VerificationType string

const VerificationTypeIdentity VerificationType = "identity"

// HistorySuperseded marks an open entry closed by a newer submission.
const HistorySuperseded VerificationStatus = "superseded"

type VerificationHistory struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_verification_history_user_open"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	VerificationType VerificationType   `gorm:"type:varchar(30);not null"`
	Status           VerificationStatus `gorm:"type:varchar(20);not null"`

	Documents       datatypes.JSON
	Notes           *string    `gorm:"type:text"`
	RejectionReason *string    `gorm:"type:text"`
	ReviewedBy      *uuid.UUID `gorm:"type:uuid"`

	RequestedAt time.Time  `gorm:"not null"`
	UpdatedAt   *time.Time `gorm:"autoUpdateTime:false;index:idx_verification_history_user_open"`
}

func (VerificationHistory) TableName() string {
	return "verification_history"
}

func (h VerificationHistory) IsOpen() bool {
	return h.UpdatedAt == nil
}
