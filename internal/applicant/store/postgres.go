package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"applygate/internal/applicant/models"
	"applygate/pkg/platform/sentinel"
)

// Postgres persists applicants in PostgreSQL. Duplicate registrations are
// detected by the unique index on lower(email), not by a read-then-write
// check, so concurrent submissions cannot both slip through.
type Postgres struct {
	db    *sql.DB
	clock func() time.Time
}

// NewPostgres constructs a PostgreSQL-backed applicant store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db, clock: time.Now}
}

const applicantColumns = `id, first_name, last_name, email, phone_number,
	country_of_origin, destination_country, documents, status, rejection_reason,
	created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, applicant *models.Applicant) error {
	if applicant == nil {
		return fmt.Errorf("applicant is required")
	}
	documents, err := json.Marshal(applicant.Documents)
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}

	now := s.clock()
	applicant.CreatedAt = now
	applicant.UpdatedAt = now

	query := `
		INSERT INTO applicants (` + applicantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = s.db.ExecContext(ctx, query,
		applicant.ID,
		applicant.FirstName,
		applicant.LastName,
		applicant.Email,
		applicant.PhoneNumber,
		applicant.CountryOfOrigin,
		applicant.DestinationCountry,
		documents,
		string(applicant.Status),
		applicant.RejectionReason,
		applicant.CreatedAt,
		applicant.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email must be unique: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create applicant: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE id = $1`
	applicant, err := scanApplicant(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find applicant by id: %w", err)
	}
	return applicant, nil
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE lower(email) = lower($1)`
	applicant, err := scanApplicant(s.db.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find applicant by email: %w", err)
	}
	return applicant, nil
}

func (s *Postgres) FindAll(ctx context.Context) ([]*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants ORDER BY created_at DESC`
	return s.queryApplicants(ctx, query)
}

func (s *Postgres) FindByStatus(ctx context.Context, status models.Status) ([]*models.Applicant, error) {
	query := `SELECT ` + applicantColumns + ` FROM applicants WHERE status = $1 ORDER BY created_at DESC`
	return s.queryApplicants(ctx, query, string(status))
}

func (s *Postgres) UpdateStatus(ctx context.Context, id uuid.UUID, status models.Status, rejectionReason string) (*models.Applicant, error) {
	query := `
		UPDATE applicants
		SET status = $2, rejection_reason = $3, updated_at = $4
		WHERE id = $1
		RETURNING ` + applicantColumns
	applicant, err := scanApplicant(s.db.QueryRowContext(ctx, query, id, string(status), rejectionReason, s.clock()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("update applicant status: %w", err)
	}
	return applicant, nil
}

func (s *Postgres) DeleteByID(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applicants WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete applicant: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete applicant rows: %w", err)
	}
	return rows > 0, nil
}

func (s *Postgres) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM applicants`)
	if err != nil {
		return 0, fmt.Errorf("delete all applicants: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete all applicants rows: %w", err)
	}
	return rows, nil
}

func (s *Postgres) CountByStatus(ctx context.Context) (models.StatusCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'approved'),
			COUNT(*) FILTER (WHERE status = 'rejected')
		FROM applicants
	`
	var counts models.StatusCounts
	err := s.db.QueryRowContext(ctx, query).Scan(&counts.Total, &counts.Pending, &counts.Approved, &counts.Rejected)
	if err != nil {
		return models.StatusCounts{}, fmt.Errorf("count applicants by status: %w", err)
	}
	return counts, nil
}

func (s *Postgres) queryApplicants(ctx context.Context, query string, args ...any) ([]*models.Applicant, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query applicants: %w", err)
	}
	defer rows.Close()

	var out []*models.Applicant
	for rows.Next() {
		applicant, err := scanApplicant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan applicant: %w", err)
		}
		out = append(out, applicant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applicants: %w", err)
	}
	return out, nil
}

type applicantRow interface {
	Scan(dest ...any) error
}

func scanApplicant(row applicantRow) (*models.Applicant, error) {
	var applicant models.Applicant
	var status string
	var documents []byte
	if err := row.Scan(
		&applicant.ID,
		&applicant.FirstName,
		&applicant.LastName,
		&applicant.Email,
		&applicant.PhoneNumber,
		&applicant.CountryOfOrigin,
		&applicant.DestinationCountry,
		&documents,
		&status,
		&applicant.RejectionReason,
		&applicant.CreatedAt,
		&applicant.UpdatedAt,
	); err != nil {
		return nil, err
	}
	applicant.Status = models.Status(status)
	if len(documents) > 0 {
		if err := json.Unmarshal(documents, &applicant.Documents); err != nil {
			return nil, fmt.Errorf("decode documents: %w", err)
		}
	}
	if applicant.Documents == nil {
		applicant.Documents = map[string]string{}
	}
	return &applicant, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
