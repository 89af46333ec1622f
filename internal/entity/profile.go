package entity

import (
	"time"

	"github.com/google/uuid"
)

type ProfileKind string

const (
	ProfileKindProvider ProfileKind = "provider"
	ProfileKindSeeker   ProfileKind = "seeker"
)

type VerificationStatus string

const (
	VerificationNotStarted VerificationStatus = "not_started"
	VerificationPending    VerificationStatus = "pending"
	VerificationApproved   VerificationStatus = "approved"
	VerificationRejected   VerificationStatus = "rejected"
)

// Profile is the per-user row that carries a VerificationRecord. Provider
// and seeker profiles live in separate tables.
type Profile interface {
	Kind() ProfileKind
	OwnerID() uuid.UUID
	Verification() *VerificationRecord
}

type VerificationRecord struct {
	DocumentType        *string            `gorm:"column:document_type;type:varchar(50)"`
	DocumentFrontFileID *uuid.UUID         `gorm:"column:document_front_file_id;type:uuid"`
	DocumentBackFileID  *uuid.UUID         `gorm:"column:document_back_file_id;type:uuid"`
	Status              VerificationStatus `gorm:"column:verification_status;type:varchar(20);default:'not_started';not null;index"`
	IsVerified          bool               `gorm:"column:is_verified;default:false;not null"`
	SubmittedAt         *time.Time         `gorm:"column:verification_submitted_at"`
	VerifiedAt          *time.Time         `gorm:"column:verified_at"`
	Notes               *string            `gorm:"column:verification_notes;type:text"`
	RejectionReason     *string            `gorm:"column:rejection_reason;type:text"`
}

// VerificationColumns lists every column owned by VerificationRecord.
var VerificationColumns = []string{
	"document_type",
	"document_front_file_id",
	"document_back_file_id",
	"verification_status",
	"is_verified",
	"verification_submitted_at",
	"verified_at",
	"verification_notes",
	"rejection_reason",
}

// CurrentStatus treats an empty column as not_started.
func (r VerificationRecord) CurrentStatus() VerificationStatus {
	if r.Status == "" {
		return VerificationNotStarted
	}
	return r.Status
}

func (r VerificationRecord) HasSubmission() bool {
	return r.DocumentFrontFileID != nil && r.CurrentStatus() != VerificationNotStarted
}

type ProviderProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	BusinessName *string `gorm:"type:varchar(255)"`

	VerificationRecord `gorm:"embedded"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (ProviderProfile) TableName() string {
	return "provider_profiles"
}

func (p *ProviderProfile) Kind() ProfileKind {
	return ProfileKindProvider
}

func (p *ProviderProfile) OwnerID() uuid.UUID {
	return p.UserID
}

func (p *ProviderProfile) Verification() *VerificationRecord {
	return &p.VerificationRecord
}

type SeekerProfile struct {
	ID     uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	VerificationRecord `gorm:"embedded"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SeekerProfile) TableName() string {
	return "seeker_profiles"
}

func (p *SeekerProfile) Kind() ProfileKind {
	return ProfileKindSeeker
}

func (p *SeekerProfile) OwnerID() uuid.UUID {
	return p.UserID
}

func (p *SeekerProfile) Verification() *VerificationRecord {
	return &p.VerificationRecord
}

// NewProfile returns an empty profile of the given kind for userID.
func NewProfile(kind ProfileKind, userID uuid.UUID) Profile {
	record := VerificationRecord{Status: VerificationNotStarted}
	if kind == ProfileKindProvider {
		return &ProviderProfile{UserID: userID, VerificationRecord: record}
	}
	return &SeekerProfile{UserID: userID, VerificationRecord: record}
}
