package dto

import (
	"encoding/json"
	"time"

	"servimarket/internal/entity"
	"servimarket/internal/service"
)

// Envelope is the body of every API response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

type SubmitDocumentsRequest struct {
	DocumentType        string  `json:"document_type" validate:"required,max=50"`
	DocumentFrontFileID string  `json:"document_front_file_id" validate:"required"`
	DocumentBackFileID  *string `json:"document_back_file_id"`
	Notes               *string `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateStatusRequest struct {
	UserID          string  `json:"user_id" validate:"required,uuid"`
	Status          string  `json:"status" validate:"required,oneof=approved rejected pending"`
	Notes           *string `json:"notes" validate:"omitempty,max=1000"`
	RejectionReason *string `json:"rejection_reason" validate:"omitempty,max=1000"`
}

type SubmitDocumentsResponse struct {
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

type UpdateStatusResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

type HistoryEntryResponse struct {
	ID               string          `json:"id"`
	VerificationType string          `json:"verification_type"`
	Status           string          `json:"status"`
	Documents        json.RawMessage `json:"documents,omitempty"`
	Notes            *string         `json:"notes,omitempty"`
	RejectionReason  *string         `json:"rejection_reason,omitempty"`
	RequestedAt      time.Time       `json:"requested_at"`
	UpdatedAt        *time.Time      `json:"updated_at"`
}

type VerificationStatusResponse struct {
	Status          string                 `json:"status"`
	IsVerified      bool                   `json:"is_verified"`
	HasDocuments    bool                   `json:"has_documents"`
	DocumentType    *string                `json:"document_type"`
	SubmittedAt     *time.Time             `json:"submitted_at"`
	VerifiedAt      *time.Time             `json:"verified_at"`
	Notes           *string                `json:"notes"`
	RejectionReason *string                `json:"rejection_reason"`
	History         []HistoryEntryResponse `json:"history"`
}

type PendingDocumentResponse struct {
	ID       string `json:"id"`
	Side     string `json:"side"`
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type,omitempty"`
	URL      string `json:"url"`
}

type PendingVerificationResponse struct {
	UserID       string                    `json:"user_id"`
	Email        string                    `json:"email"`
	UserType     string                    `json:"user_type"`
	FullName     string                    `json:"full_name"`
	SubmittedAt  *time.Time                `json:"submitted_at"`
	DocumentType *string                   `json:"document_type"`
	Notes        *string                   `json:"notes"`
	Documents    []PendingDocumentResponse `json:"documents"`
}

func SubmitDocumentsResponseFromResult(result *service.SubmitDocumentsResult) SubmitDocumentsResponse {
	return SubmitDocumentsResponse{
		Status:      string(result.Status),
		SubmittedAt: result.SubmittedAt,
	}
}

func VerificationStatusResponseFromView(view *service.VerificationStatusView) VerificationStatusResponse {
	history := make([]HistoryEntryResponse, 0, len(view.History))
	for i := range view.History {
		history = append(history, historyEntryResponse(&view.History[i]))
	}
	return VerificationStatusResponse{
		Status:          string(view.Status),
		IsVerified:      view.IsVerified,
		HasDocuments:    view.HasDocuments,
		DocumentType:    view.DocumentType,
		SubmittedAt:     view.SubmittedAt,
		VerifiedAt:      view.VerifiedAt,
		Notes:           view.Notes,
		RejectionReason: view.RejectionReason,
		History:         history,
	}
}

func historyEntryResponse(entry *entity.VerificationHistory) HistoryEntryResponse {
	var documents json.RawMessage
	if len(entry.Documents) > 0 {
		documents = json.RawMessage(entry.Documents)
	}
	return HistoryEntryResponse{
		ID:               entry.ID.String(),
		VerificationType: string(entry.VerificationType),
		Status:           string(entry.Status),
		Documents:        documents,
		Notes:            entry.Notes,
		RejectionReason:  entry.RejectionReason,
		RequestedAt:      entry.RequestedAt,
		UpdatedAt:        entry.UpdatedAt,
	}
}

func PendingVerificationResponses(pending []service.PendingVerification) []PendingVerificationResponse {
	responses := make([]PendingVerificationResponse, 0, len(pending))
	for _, item := range pending {
		documents := make([]PendingDocumentResponse, 0, len(item.Documents))
		for _, document := range item.Documents {
			documents = append(documents, PendingDocumentResponse{
				ID:       document.FileID.String(),
				Side:     document.Side,
				FileName: document.FileName,
				MimeType: document.MimeType,
				URL:      document.URL,
			})
		}
		responses = append(responses, PendingVerificationResponse{
			UserID:       item.UserID.String(),
			Email:        item.Email,
			UserType:     string(item.UserType),
			FullName:     item.FullName,
			SubmittedAt:  item.SubmittedAt,
			DocumentType: item.DocumentType,
			Notes:        item.Notes,
			Documents:    documents,
		})
	}
	return responses
}
