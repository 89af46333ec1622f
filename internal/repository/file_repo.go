package repository

import (
	"context"
	"errors"

	"servimarket/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.File, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.File, error)
	Tag(ctx context.Context, ids []uuid.UUID, fileContext string, entityID uuid.UUID) error
}

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.File, error) {
	var file entity.File
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&file).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &file, err
}

func (r *fileRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]entity.File, error) {
	var files []entity.File
	if len(ids) == 0 {
		return files, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&files).Error; err != nil {
		return nil, err
	}
	return files, nil
}

func (r *fileRepository) Tag(ctx context.Context, ids []uuid.UUID, fileContext string, entityID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&entity.File{}).
		Where("id IN ?", ids).
		Updates(map[string]any{
			"context":   fileContext,
			"entity_id": entityID,
		}).
		Error
}
