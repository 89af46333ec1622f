package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"servimarket/internal/entity"
	"servimarket/internal/metrics"
	"servimarket/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const (
	defaultHistoryLimit     = 10
	defaultQueueConcurrency = 8
)

type VerificationService struct {
	store    repository.Store
	notifier Notifier
	clock    Clock
	metrics  *metrics.Metrics
	logger   *logrus.Logger
	config   VerificationConfig
}

func NewVerificationService(
	store repository.Store,
	notifier Notifier,
	clock Clock,
	meter *metrics.Metrics,
	logger *logrus.Logger,
	config VerificationConfig,
) *VerificationService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &VerificationService{
		store:    store,
		notifier: notifier,
		clock:    clock,
		metrics:  meter,
		logger:   logger,
		config:   config,
	}
}

type submittedDocuments struct {
	DocumentType string     `json:"document_type"`
	FrontFileID  uuid.UUID  `json:"document_front_file_id"`
	BackFileID   *uuid.UUID `json:"document_back_file_id,omitempty"`
}

func (s *VerificationService) SubmitDocuments(ctx context.Context, actor *Actor, input SubmitDocumentsInput) (*SubmitDocumentsResult, error) {
	if actor == nil || actor.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	documentType := strings.TrimSpace(input.DocumentType)
	fields := map[string]string{}
	if documentType == "" {
		fields["document_type"] = "is required"
	}
	if input.FrontFileID == uuid.Nil {
		fields["document_front_file_id"] = "is required"
	} else if input.BackFileID != nil && *input.BackFileID == input.FrontFileID {
		fields["document_back_file_id"] = "must differ from document_front_file_id"
	}
	if len(fields) > 0 {
		return nil, &FieldError{Fields: fields}
	}

	user, kind, err := s.findProfileOwner(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	front, err := s.store.Files().FindByID(ctx, input.FrontFileID)
	if err != nil {
		return nil, err
	}
	if !usableDocument(front, actor.UserID) {
		return nil, ErrInvalidFrontDocument
	}
	fileIDs := []uuid.UUID{front.ID}
	var backID *uuid.UUID
	if input.BackFileID != nil && *input.BackFileID != uuid.Nil {
		back, err := s.store.Files().FindByID(ctx, *input.BackFileID)
		if err != nil {
			return nil, err
		}
		if !usableDocument(back, actor.UserID) {
			return nil, ErrInvalidBackDocument
		}
		backID = &back.ID
		fileIDs = append(fileIDs, back.ID)
	}

	payload, err := json.Marshal(submittedDocuments{
		DocumentType: documentType,
		FrontFileID:  front.ID,
		BackFileID:   backID,
	})
	if err != nil {
		return nil, err
	}

	notes := trimOptional(input.Notes)
	now := s.now()
	err = s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		profile, err := s.lockOrCreateProfile(ctx, tx, *user, kind)
		if err != nil {
			return err
		}

		record := profile.Verification()
		record.DocumentType = &documentType
		record.DocumentFrontFileID = &front.ID
		record.DocumentBackFileID = backID
		record.Notes = notes
		record.Status = entity.VerificationPending
		record.SubmittedAt = &now
		record.IsVerified = false
		if err := tx.Profiles().SaveVerification(ctx, profile); err != nil {
			return err
		}

		if err := tx.Files().Tag(ctx, fileIDs, entity.FileContextIdentityVerification, user.ID); err != nil {
			return err
		}

		superseded, err := tx.History().CloseOpen(ctx, user.ID, entity.VerificationTypeIdentity, entity.HistorySuperseded, now)
		if err != nil {
			return err
		}
		if superseded > 0 {
			s.logger.WithFields(logrus.Fields{
				"user_id":    user.ID,
				"superseded": superseded,
			}).Info("closed open verification history entries")
		}

		return tx.History().Append(ctx, &entity.VerificationHistory{
			UserID:           user.ID,
			VerificationType: entity.VerificationTypeIdentity,
			Status:           entity.VerificationPending,
			Documents:        datatypes.JSON(payload),
			Notes:            notes,
			RequestedAt:      now,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("submit documents: %w", err)
	}

	s.metrics.IncSubmission(string(kind))
	s.notify(Notification{
		Kind:     NotificationSubmitted,
		UserID:   user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	})
	if inbox := strings.TrimSpace(s.config.ReviewInboxEmail); inbox != "" {
		s.notify(Notification{
			Kind:     NotificationReviewRequested,
			UserID:   user.ID,
			Email:    inbox,
			FullName: user.FullName,
		})
	}

	return &SubmitDocumentsResult{
		Status:      entity.VerificationPending,
		SubmittedAt: now,
	}, nil
}

func (s *VerificationService) GetVerificationStatus(ctx context.Context, actor *Actor) (*VerificationStatusView, error) {
	if actor == nil || actor.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.store.Users().FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	view := &VerificationStatusView{Status: entity.VerificationNotStarted}
	if _, ok := user.ProfileKind(); ok {
		profile, err := s.store.Profiles().FindByUser(ctx, *user)
		if err != nil {
			return nil, err
		}
		if profile != nil {
			record := profile.Verification()
			view.Status = record.CurrentStatus()
			view.IsVerified = record.IsVerified && view.Status == entity.VerificationApproved
			view.HasDocuments = record.DocumentFrontFileID != nil
			view.DocumentType = record.DocumentType
			view.SubmittedAt = record.SubmittedAt
			view.VerifiedAt = record.VerifiedAt
			view.Notes = record.Notes
			view.RejectionReason = record.RejectionReason
		}
	}

	history, err := s.store.History().ListRecent(ctx, user.ID, entity.VerificationTypeIdentity, s.historyLimit())
	if err != nil {
		return nil, err
	}
	view.History = history
	return view, nil
}

func (s *VerificationService) UpdateVerificationStatus(ctx context.Context, actor *Actor, input UpdateStatusInput) (*UpdateStatusResult, error) {
	if actor == nil || actor.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if !isDecisionStatus(input.Status) {
		return nil, ErrInvalidStatus
	}
	if input.UserID == uuid.Nil {
		return nil, &FieldError{Fields: map[string]string{"user_id": "is required"}}
	}

	user, _, err := s.findProfileOwner(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	notes := trimOptional(input.Notes)
	reason := trimOptional(input.RejectionReason)
	now := s.now()
	err = s.store.WithinTransaction(ctx, func(tx repository.Store) error {
		profile, err := tx.Profiles().FindByUserForUpdate(ctx, *user)
		if err != nil {
			return err
		}
		if profile == nil || !profile.Verification().HasSubmission() {
			return ErrNoSubmission
		}

		record := profile.Verification()
		applyDecision(record, input.Status, notes, reason, now)
		if err := tx.Profiles().SaveVerification(ctx, profile); err != nil {
			return err
		}
		return s.recordDecision(ctx, tx, actor, user.ID, record, notes, now)
	})
	if err != nil {
		return nil, fmt.Errorf("update verification status: %w", err)
	}

	s.metrics.IncDecision(string(input.Status))
	switch input.Status {
	case entity.VerificationApproved:
		s.notify(Notification{Kind: NotificationApproved, UserID: user.ID, Email: user.Email, FullName: user.FullName})
	case entity.VerificationRejected:
		s.notify(Notification{Kind: NotificationRejected, UserID: user.ID, Email: user.Email, FullName: user.FullName, RejectionReason: reason})
	}

	return &UpdateStatusResult{UserID: user.ID, Status: input.Status}, nil
}

func (s *VerificationService) GetPendingVerifications(ctx context.Context, actor *Actor) ([]PendingVerification, error) {
	if actor == nil || actor.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return nil, ErrPermissionDenied
	}

	rows, err := s.store.Profiles().ListPending(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]PendingVerification, len(rows))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.queueConcurrency())
	for i, row := range rows {
		i, row := i, row
		pending[i] = PendingVerification{
			UserID:       row.UserID,
			Email:        row.Email,
			UserType:     row.UserType,
			FullName:     row.FullName,
			SubmittedAt:  row.SubmittedAt,
			DocumentType: row.DocumentType,
			Notes:        row.Notes,
		}
		group.Go(func() error {
			documents, err := s.resolveDocuments(groupCtx, row)
			if err != nil {
				return err
			}
			pending[i].Documents = documents
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("resolve pending documents: %w", err)
	}
	return pending, nil
}

// recordDecision brings the history log in line with a decision. Approvals
// and rejections close the open entry when one exists; a reset to pending
// opens a new entry if none is open.
func (s *VerificationService) recordDecision(
	ctx context.Context,
	tx repository.Store,
	actor *Actor,
	userID uuid.UUID,
	record *entity.VerificationRecord,
	notes *string,
	now time.Time,
) error {
	open, err := tx.History().FindOpen(ctx, userID, entity.VerificationTypeIdentity)
	if err != nil {
		return err
	}

	if record.Status == entity.VerificationPending {
		if open != nil {
			return nil
		}
		payload, err := json.Marshal(submittedDocuments{
			DocumentType: derefString(record.DocumentType),
			FrontFileID:  derefUUID(record.DocumentFrontFileID),
			BackFileID:   record.DocumentBackFileID,
		})
		if err != nil {
			return err
		}
		return tx.History().Append(ctx, &entity.VerificationHistory{
			UserID:           userID,
			VerificationType: entity.VerificationTypeIdentity,
			Status:           entity.VerificationPending,
			Documents:        datatypes.JSON(payload),
			Notes:            record.Notes,
			ReviewedBy:       &actor.UserID,
			RequestedAt:      now,
		})
	}

	if open == nil {
		s.logger.WithField("user_id", userID).Warn("no open verification history entry for decision")
		return nil
	}
	open.Status = record.Status
	if notes != nil {
		open.Notes = notes
	}
	if record.Status == entity.VerificationRejected {
		open.RejectionReason = record.RejectionReason
	}
	open.ReviewedBy = &actor.UserID
	open.UpdatedAt = &now
	return tx.History().Resolve(ctx, open)
}

func (s *VerificationService) resolveDocuments(ctx context.Context, row repository.PendingProfile) ([]PendingDocument, error) {
	type sideRef struct {
		side string
		id   uuid.UUID
	}
	refs := make([]sideRef, 0, 2)
	ids := make([]uuid.UUID, 0, 2)
	if row.DocumentFrontFileID != nil {
		refs = append(refs, sideRef{side: DocumentSideFront, id: *row.DocumentFrontFileID})
		ids = append(ids, *row.DocumentFrontFileID)
	}
	if row.DocumentBackFileID != nil {
		refs = append(refs, sideRef{side: DocumentSideBack, id: *row.DocumentBackFileID})
		if row.DocumentFrontFileID == nil || *row.DocumentBackFileID != *row.DocumentFrontFileID {
			ids = append(ids, *row.DocumentBackFileID)
		}
	}
	documents := make([]PendingDocument, 0, len(refs))
	if len(refs) == 0 {
		return documents, nil
	}

	files, err := s.store.Files().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]entity.File, len(files))
	for _, file := range files {
		byID[file.ID] = file
	}
	for _, ref := range refs {
		file, ok := byID[ref.id]
		if !ok {
			s.logger.WithFields(logrus.Fields{
				"user_id": row.UserID,
				"file_id": ref.id,
			}).Warn("verification document missing from file store")
			continue
		}
		documents = append(documents, PendingDocument{
			FileID:   file.ID,
			Side:     ref.side,
			FileName: file.FileName,
			MimeType: file.MimeType,
			URL:      s.downloadURL(file.URL),
		})
	}
	return documents, nil
}

func (s *VerificationService) findProfileOwner(ctx context.Context, userID uuid.UUID) (*entity.User, entity.ProfileKind, error) {
	user, err := s.store.Users().FindByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", ErrUserNotFound
	}
	kind, ok := user.ProfileKind()
	if !ok {
		return nil, "", ErrProfileNotFound
	}
	return user, kind, nil
}

func (s *VerificationService) lockOrCreateProfile(ctx context.Context, tx repository.Store, user entity.User, kind entity.ProfileKind) (entity.Profile, error) {
	profile, err := tx.Profiles().FindByUserForUpdate(ctx, user)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}
	if err := tx.Profiles().Create(ctx, entity.NewProfile(kind, user.ID)); err != nil {
		return nil, err
	}
	profile, err = tx.Profiles().FindByUserForUpdate(ctx, user)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (s *VerificationService) notify(notification Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Dispatch(notification)
}

func (s *VerificationService) downloadURL(raw string) string {
	base := strings.TrimRight(s.config.AppBaseURL, "/")
	if base == "" || !strings.HasPrefix(raw, "/") {
		return raw
	}
	return base + raw
}

func (s *VerificationService) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now().UTC()
}

func (s *VerificationService) historyLimit() int {
	if s.config.HistoryLimit > 0 {
		return s.config.HistoryLimit
	}
	return defaultHistoryLimit
}

func (s *VerificationService) queueConcurrency() int {
	if s.config.QueueConcurrency > 0 {
		return s.config.QueueConcurrency
	}
	return defaultQueueConcurrency
}

func applyDecision(record *entity.VerificationRecord, status entity.VerificationStatus, notes *string, reason *string, now time.Time) {
	switch status {
	case entity.VerificationApproved:
		record.IsVerified = true
		record.VerifiedAt = &now
	case entity.VerificationRejected:
		record.IsVerified = false
		record.RejectionReason = reason
	case entity.VerificationPending:
		record.IsVerified = false
		if reason != nil {
			record.RejectionReason = reason
		}
	}
	record.Status = status
	if notes != nil {
		record.Notes = notes
	}
}

func isDecisionStatus(status entity.VerificationStatus) bool {
	switch status {
	case entity.VerificationApproved, entity.VerificationRejected, entity.VerificationPending:
		return true
	}
	return false
}

func usableDocument(file *entity.File, ownerID uuid.UUID) bool {
	return file != nil && file.IsActive() && file.OwnerID == ownerID
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func derefUUID(value *uuid.UUID) uuid.UUID {
	if value == nil {
		return uuid.Nil
	}
	return *value
}
