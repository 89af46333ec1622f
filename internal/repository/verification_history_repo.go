package repository

import (
	"context"
	"errors"
	"time"

	"servimarket/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VerificationHistoryRepository interface {
	Append(ctx context.Context, entry *entity.VerificationHistory) error
	// CloseOpen closes every open entry of the user with the given status.
	CloseOpen(ctx context.Context, userID uuid.UUID, verificationType entity.VerificationType, status entity.VerificationStatus, at time.Time) (int64, error)
	FindOpen(ctx context.Context, userID uuid.UUID, verificationType entity.VerificationType) (*entity.VerificationHistory, error)
	Resolve(ctx context.Context, entry *entity.VerificationHistory) error
	ListRecent(ctx context.Context, userID uuid.UUID, verificationType entity.VerificationType, limit int) ([]entity.VerificationHistory, error)
}

type verificationHistoryRepository struct {
	db *gorm.DB
}

func NewVerificationHistoryRepository(db *gorm.DB) VerificationHistoryRepository {
	return &verificationHistoryRepository{db: db}
}

func (r *verificationHistoryRepository) Append(ctx context.Context, entry *entity.VerificationHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *verificationHistoryRepository) CloseOpen(
	ctx context.Context,
	userID uuid.UUID,
	verificationType entity.VerificationType,
	status entity.VerificationStatus,
	at time.Time,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&entity.VerificationHistory{}).
		Where("user_id = ? AND verification_type = ? AND updated_at IS NULL", userID, verificationType).
		Updates(map[string]any{
			"status":     status,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *verificationHistoryRepository) FindOpen(
	ctx context.Context,
	userID uuid.UUID,
	verificationType entity.VerificationType,
) (*entity.VerificationHistory, error) {
	var entry entity.VerificationHistory
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND verification_type = ? AND updated_at IS NULL", userID, verificationType).
		Order("requested_at DESC").
		First(&entry).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &entry, err
}

// Resolve writes the decision fields of an open entry. Closed entries are
// left untouched.
func (r *verificationHistoryRepository) Resolve(ctx context.Context, entry *entity.VerificationHistory) error {
	return r.db.WithContext(ctx).
		Model(&entity.VerificationHistory{}).
		Where("id = ? AND updated_at IS NULL", entry.ID).
		Updates(map[string]any{
			"status":           entry.Status,
			"notes":            entry.Notes,
			"rejection_reason": entry.RejectionReason,
			"reviewed_by":      entry.ReviewedBy,
			"updated_at":       entry.UpdatedAt,
		}).
		Error
}

func (r *verificationHistoryRepository) ListRecent(
	ctx context.Context,
	userID uuid.UUID,
	verificationType entity.VerificationType,
	limit int,
) ([]entity.VerificationHistory, error) {
	var entries []entity.VerificationHistory
	query := r.db.WithContext(ctx).
		Where("user_id = ? AND verification_type = ?", userID, verificationType).
		Order("requested_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
