package service

import (
	"time"

	"servimarket/internal/entity"

	"github.com/google/uuid"
)

type SubmitDocumentsInput struct {
	DocumentType string
	FrontFileID  uuid.UUID
	BackFileID   *uuid.UUID
	Notes        *string
}

type SubmitDocumentsResult struct {
	Status      entity.VerificationStatus
	SubmittedAt time.Time
}

type UpdateStatusInput struct {
	UserID          uuid.UUID
	Status          entity.VerificationStatus
	Notes           *string
	RejectionReason *string
}

type UpdateStatusResult struct {
	UserID uuid.UUID
	Status entity.VerificationStatus
}

type VerificationStatusView struct {
	Status          entity.VerificationStatus
	IsVerified      bool
	HasDocuments    bool
	DocumentType    *string
	SubmittedAt     *time.Time
	VerifiedAt      *time.Time
	Notes           *string
	RejectionReason *string
	History         []entity.VerificationHistory
}

type PendingDocument struct {
	FileID   uuid.UUID
	Side     string
	FileName string
	MimeType string
	URL      string
}

type PendingVerification struct {
	UserID       uuid.UUID
	Email        string
	UserType     entity.UserType
	FullName     string
	SubmittedAt  *time.Time
	DocumentType *string
	Notes        *string
	Documents    []PendingDocument
}

const (
	DocumentSideFront = "front"
	DocumentSideBack  = "back"
)

type NotificationKind string

const (
	NotificationSubmitted NotificationKind = "submitted"
	NotificationApproved  NotificationKind = "approved"
	NotificationRejected  NotificationKind = "rejected"

	// NotificationReviewRequested is addressed to the review inbox.
	NotificationReviewRequested NotificationKind = "review_requested"
)

type Notification struct {
	Kind            NotificationKind
	UserID          uuid.UUID
	Email           string
	FullName        string
	RejectionReason *string
}
