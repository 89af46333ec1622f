package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories the verification workflow writes to so that
// they can share a transaction.
type Store interface {
	Users() UserRepository
	Profiles() ProfileRepository
	Files() FileRepository
	History() VerificationHistoryRepository

	// WithinTransaction runs fn against a Store bound to a single database
	// transaction. The transaction commits when fn returns nil and rolls
	// back otherwise.
	WithinTransaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository {
	return NewUserRepository(s.db)
}

func (s *gormStore) Profiles() ProfileRepository {
	return NewProfileRepository(s.db)
}

func (s *gormStore) Files() FileRepository {
	return NewFileRepository(s.db)
}

func (s *gormStore) History() VerificationHistoryRepository {
	return NewVerificationHistoryRepository(s.db)
}

func (s *gormStore) WithinTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}
