package entity

import (
	"time"

	"github.com/google/uuid"
)

type FileStatus string

const (
	FileStatusActive  FileStatus = "active"
	FileStatusDeleted FileStatus = "deleted"
)

const FileContextIdentityVerification = "identity_verification"

// File is the metadata row of an uploaded document. Uploads are handled by
// the storage service; this module only reads and tags rows.
type File struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`

	FileName  string     `gorm:"type:varchar(255);not null"`
	URL       string     `gorm:"type:text;not null"`
	MimeType  string     `gorm:"type:varchar(100)"`
	SizeBytes int64      `gorm:"default:0"`
	Status    FileStatus `gorm:"type:varchar(20);default:'active';not null"`

	Context  *string    `gorm:"type:varchar(100);index:idx_files_context_entity"`
	EntityID *uuid.UUID `gorm:"type:uuid;index:idx_files_context_entity"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (f File) IsActive() bool {
	return f.Status == FileStatusActive
}
