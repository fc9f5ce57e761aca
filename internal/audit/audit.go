// Package audit records admin actions on a lossy asynchronous trail: handlers
// enqueue events without blocking and a background worker persists them.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Action identifies what an admin (or an anonymous caller) did.
type Action string

const (
	ActionLoginSucceeded Action = "admin.login.succeeded"
	ActionLoginFailed    Action = "admin.login.failed"
	ActionStatusChanged  Action = "applicant.status.changed"
	ActionDeleted        Action = "applicant.deleted"
	ActionDeletedAll     Action = "applicant.deleted_all"
	ActionEmailSent      Action = "admin.email.sent"
)

// Event is one audit trail entry.
type Event struct {
	ID       uuid.UUID
	Action   Action
	Actor    string
	Subject  string
	Metadata map[string]string
	At       time.Time
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
}
