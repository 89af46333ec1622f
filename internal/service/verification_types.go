package service

import (
	"context"
	"time"

	"servimarket/internal/entity"

	"github.com/google/uuid"
)

type VerificationConfig struct {
	HistoryLimit     int
	ReviewInboxEmail string
	AppBaseURL       string
	// QueueConcurrency bounds document lookups while building the review queue.
	QueueConcurrency int
}

// Actor is the authenticated caller of a workflow operation.
type Actor struct {
	UserID uuid.UUID
	Role   entity.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == entity.UserRoleAdmin
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type EmailSender interface {
	Send(ctx context.Context, email Email) error
}

// Notifier hands notifications to a background dispatcher. Dispatch must not
// block the caller.
type Notifier interface {
	Dispatch(notification Notification)
}

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}
