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

var ErrUnsupportedProfileKind = errors.New("user type has no profile")

// PendingProfile is one row of the admin review queue.
type PendingProfile struct {
	UserID              uuid.UUID
	Email               string
	FullName            string
	UserType            entity.UserType
	DocumentType        *string
	DocumentFrontFileID *uuid.UUID
	DocumentBackFileID  *uuid.UUID
	Notes               *string
	SubmittedAt         *time.Time
}

type ProfileRepository interface {
	FindByUser(ctx context.Context, user entity.User) (entity.Profile, error)
	FindByUserForUpdate(ctx context.Context, user entity.User) (entity.Profile, error)
	Create(ctx context.Context, profile entity.Profile) error
	SaveVerification(ctx context.Context, profile entity.Profile) error
	ListPending(ctx context.Context) ([]PendingProfile, error)
}

type profileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByUser(ctx context.Context, user entity.User) (entity.Profile, error) {
	return r.find(r.db.WithContext(ctx), user)
}

// FindByUserForUpdate locks the profile row until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
func (r *profileRepository) FindByUserForUpdate(ctx context.Context, user entity.User) (entity.Profile, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), user)
}

func (r *profileRepository) find(query *gorm.DB, user entity.User) (entity.Profile, error) {
	kind, ok := user.ProfileKind()
	if !ok {
		return nil, ErrUnsupportedProfileKind
	}
	profile := entity.NewProfile(kind, user.ID)
	err := query.Where("user_id = ?", user.ID).First(profile).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Create inserts an empty profile. A concurrent insert for the same user
// wins and this call becomes a no-op; callers re-read the row afterwards.
func (r *profileRepository) Create(ctx context.Context, profile entity.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(profile).Error
}

func (r *profileRepository) SaveVerification(ctx context.Context, profile entity.Profile) error {
	columns := append([]string{"updated_at"}, entity.VerificationColumns...)
	return r.db.WithContext(ctx).
		Model(profile).
		Select(columns).
		Updates(profile).
		Error
}

const pendingProfilesQuery = `
	SELECT u.id AS user_id, u.email, u.full_name, u.user_type,
		p.document_type, p.document_front_file_id, p.document_back_file_id,
		p.verification_notes AS notes, p.verification_submitted_at AS submitted_at
	FROM provider_profiles p
	JOIN users u ON u.id = p.user_id
	WHERE p.verification_status = @status AND u.user_type = @provider AND u.is_active = true
	UNION ALL
	SELECT u.id AS user_id, u.email, u.full_name, u.user_type,
		s.document_type, s.document_front_file_id, s.document_back_file_id,
		s.verification_notes AS notes, s.verification_submitted_at AS submitted_at
	FROM seeker_profiles s
	JOIN users u ON u.id = s.user_id
	WHERE s.verification_status = @status AND u.user_type = @seeker AND u.is_active = true
	ORDER BY submitted_at ASC NULLS LAST`

func (r *profileRepository) ListPending(ctx context.Context) ([]PendingProfile, error) {
	var rows []PendingProfile
	err := r.db.WithContext(ctx).
		Raw(pendingProfilesQuery, map[string]any{
			"status":   entity.VerificationPending,
			"provider": entity.UserTypeProvider,
			"seeker":   entity.UserTypeSeeker,
		}).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
