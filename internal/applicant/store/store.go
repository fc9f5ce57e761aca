package store

import (
	"context"

	"github.com/google/uuid"

	"applygate/internal/applicant/models"
)

// Store is interface-driven to keep the service testable and to allow the
// in-memory and PostgreSQL implementations to be swapped without rewiring
// business code.
//
// Create returns sentinel.ErrConflict when the email is already registered;
// lookups and updates return sentinel.ErrNotFound for unknown records.
type Store interface {
	Create(ctx context.Context, applicant *models.Applicant) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Applicant, error)
	FindByEmail(ctx context.Context, email string) (*models.Applicant, error)
	FindAll(ctx context.Context) ([]*models.Applicant, error)
	FindByStatus(ctx context.Context, status models.Status) ([]*models.Applicant, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, rejectionReason string) (*models.Applicant, error)
	DeleteByID(ctx context.Context, id uuid.UUID) (bool, error)
	DeleteAll(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context) (models.StatusCounts, error)
}
