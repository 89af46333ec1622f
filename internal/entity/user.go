package entity

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

type UserType string

const (
	UserTypeProvider UserType = "provider"
	UserTypeSeeker   UserType = "seeker"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email    string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	FullName string    `gorm:"type:varchar(255)"`
	UserType UserType  `gorm:"type:varchar(20);not null"`
	Role     UserRole  `gorm:"type:varchar(20);default:'user';not null"`

	IsActive bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileKind reports which profile table holds the user's verification
// record. ok is false for user types without a profile.
func (u User) ProfileKind() (ProfileKind, bool) {
	switch u.UserType {
	case UserTypeProvider:
		return ProfileKindProvider, true
	case UserTypeSeeker:
		return ProfileKindSeeker, true
	}
	return "", false
}
