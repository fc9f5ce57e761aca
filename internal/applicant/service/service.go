// Package service orchestrates the intake use cases: registration with its
// all-or-nothing document fan-out, the review status lifecycle, and the
// admin passthroughs.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"applygate/internal/applicant/metrics"
	"applygate/internal/applicant/models"
	"applygate/internal/audit"
	"applygate/internal/upload"
	dErrors "applygate/pkg/domain-errors"
	adminmw "applygate/pkg/platform/middleware/admin"
	"applygate/pkg/platform/sentinel"
)

var tracer trace.Tracer = otel.Tracer("applygate/applicant")

// Uploader is the document fan-out contract (see internal/upload).
type Uploader interface {
	UploadAll(ctx context.Context, submittedAt time.Time, files []upload.File) (map[string]string, error)
	DeleteAll(submittedAt time.Time, files []upload.File)
}

// Notifier sends the applicant-facing emails; every send reports a bool and
// is non-fatal to the triggering operation.
type Notifier interface {
	SendRegistrationConfirmation(ctx context.Context, applicant *models.Applicant) bool
	SendStatusDecision(ctx context.Context, applicant *models.Applicant) bool
	SendCustomMessage(ctx context.Context, toEmail, subject, bodyText string) bool
}

// Store is the applicant persistence contract (see internal/applicant/store).
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

type Service struct {
	store    Store
	uploader Uploader
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger
	recorder *audit.Recorder
}

func New(store Store, uploader Uploader, notifier Notifier, m *metrics.Metrics, logger *slog.Logger, recorder *audit.Recorder) *Service {
	return &Service{
		store:    store,
		uploader: uploader,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		recorder: recorder,
	}
}

// RegisterCommand carries the validated registration input.
type RegisterCommand struct {
	FirstName          string
	LastName           string
	Email              string
	PhoneNumber        string
	CountryOfOrigin    string
	DestinationCountry string
	Files              []upload.File
}

// Register uploads every document, persists the applicant, and fires the
// confirmation email. The upload fan-out is all-or-nothing; the unique index
// on email remains the authority on duplicates, and a lost duplicate race
// triggers compensating deletes of the just-uploaded objects.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*models.Applicant, error) {
	ctx, span := tracer.Start(ctx, "applicant.register")
	span.SetAttributes(attribute.Int("register.files", len(cmd.Files)))
	defer span.End()

	// Fast duplicate check so a resubmission fails before any bytes move.
	if _, err := s.store.FindByEmail(ctx, cmd.Email); err == nil {
		s.metrics.RecordRegistrationFailure("duplicate_email")
		return nil, dErrors.New(dErrors.CodeConflict, "Email already exists")
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not check existing registration")
	}

	submittedAt := time.Now()
	documents, err := s.uploader.UploadAll(ctx, submittedAt, cmd.Files)
	if err != nil {
		s.metrics.RecordRegistrationFailure("upload")
		var uploadErr *upload.Error
		if errors.As(err, &uploadErr) && errors.Is(err, upload.ErrInvalidFile) {
			return nil, dErrors.Wrap(err, dErrors.CodeUploadFailed, "document "+uploadErr.Slot+" is missing content or content type")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUploadFailed, "document upload failed, registration aborted")
	}

	applicant := &models.Applicant{
		ID:                 uuid.New(),
		FirstName:          cmd.FirstName,
		LastName:           cmd.LastName,
		Email:              cmd.Email,
		PhoneNumber:        cmd.PhoneNumber,
		CountryOfOrigin:    cmd.CountryOfOrigin,
		DestinationCountry: cmd.DestinationCountry,
		Documents:          documents,
		Status:             models.StatusPending,
	}

	if err := s.store.Create(ctx, applicant); err != nil {
		s.uploader.DeleteAll(submittedAt, cmd.Files)
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.RecordRegistrationFailure("duplicate_email")
			return nil, dErrors.New(dErrors.CodeConflict, "Email already exists")
		}
		s.metrics.RecordRegistrationFailure("persistence")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not persist registration")
	}

	s.metrics.RecordRegistration()

	sent := s.notifier.SendRegistrationConfirmation(ctx, applicant)
	s.metrics.RecordEmail("registration", sent)
	if !sent {
		s.logger.WarnContext(ctx, "registration confirmation email not sent",
			"applicant_id", applicant.ID,
		)
	}

	return applicant, nil
}

// ChangeStatus moves an application to the given review state and fires the
// decision email. Approved and rejected are deliberately not terminal: the
// admin is the only writer and may re-pend or flip a decision. Rejection
// requires a non-empty reason; any other target clears the stored reason.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status models.Status, rejectionReason string) (*models.Applicant, error) {
	if status == models.StatusRejected && rejectionReason == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "rejectionReason is required when rejecting an application")
	}
	if status != models.StatusRejected {
		rejectionReason = ""
	}

	applicant, err := s.store.UpdateStatus(ctx, id, status, rejectionReason)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not update application status")
	}

	s.metrics.RecordStatusTransition(string(status))
	s.recordAdminAction(ctx, audit.Event{
		Action:  audit.ActionStatusChanged,
		Subject: id.String(),
		Metadata: map[string]string{
			"status": string(status),
		},
	})

	sent := s.notifier.SendStatusDecision(ctx, applicant)
	s.metrics.RecordEmail("decision", sent)
	if !sent {
		s.logger.WarnContext(ctx, "status decision email not sent",
			"applicant_id", applicant.ID,
			"status", string(status),
		)
	}

	return applicant, nil
}

// ListAll returns every applicant.
func (s *Service) ListAll(ctx context.Context) ([]*models.Applicant, error) {
	applicants, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list applicants")
	}
	return applicants, nil
}

// ListByStatus returns applicants in the given review state.
func (s *Service) ListByStatus(ctx context.Context, status models.Status) ([]*models.Applicant, error) {
	applicants, err := s.store.FindByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not list applicants by status")
	}
	return applicants, nil
}

// CountsByStatus aggregates applications per review state.
func (s *Service) CountsByStatus(ctx context.Context) (models.StatusCounts, error) {
	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return models.StatusCounts{}, dErrors.Wrap(err, dErrors.CodeInternal, "could not count applicants")
	}
	return counts, nil
}

// DeleteOne removes a single applicant record.
func (s *Service) DeleteOne(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not delete applicant")
	}
	if !deleted {
		return dErrors.New(dErrors.CodeNotFound, "User not found")
	}
	s.recordAdminAction(ctx, audit.Event{
		Action:  audit.ActionDeleted,
		Subject: id.String(),
	})
	return nil
}

// DeleteAll removes every applicant record and returns how many went.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "could not delete applicants")
	}
	s.recordAdminAction(ctx, audit.Event{
		Action: audit.ActionDeletedAll,
	})
	return count, nil
}

// SendCustomEmail delivers an ad-hoc admin message to the given address.
func (s *Service) SendCustomEmail(ctx context.Context, toEmail, subject, message string) error {
	sent := s.notifier.SendCustomMessage(ctx, toEmail, subject, message)
	s.metrics.RecordEmail("custom", sent)
	if !sent {
		return dErrors.New(dErrors.CodeInternal, "email could not be sent")
	}
	s.recordAdminAction(ctx, audit.Event{
		Action:  audit.ActionEmailSent,
		Subject: toEmail,
	})
	return nil
}

func (s *Service) recordAdminAction(ctx context.Context, event audit.Event) {
	if claims := adminmw.GetClaims(ctx); claims != nil {
		event.Actor = claims.Email
	}
	s.recorder.Record(ctx, event)
}
