package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"applygate/internal/applicant/models"
	"applygate/pkg/platform/sentinel"
)

// InMemory keeps the store lightweight and testable. It mirrors the Postgres
// implementation's contract, including case-insensitive email uniqueness.
type InMemory struct {
	mu         sync.RWMutex
	applicants map[uuid.UUID]*models.Applicant
	clock      func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		applicants: make(map[uuid.UUID]*models.Applicant),
		clock:      time.Now,
	}
}

// WithClock overrides the timestamp source for tests.
func (s *InMemory) WithClock(clock func() time.Time) *InMemory {
	s.clock = clock
	return s
}

func (s *InMemory) Create(_ context.Context, applicant *models.Applicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lowered := strings.ToLower(applicant.Email)
	for _, existing := range s.applicants {
		if strings.ToLower(existing.Email) == lowered {
			return sentinel.ErrConflict
		}
	}

	now := s.clock()
	applicant.CreatedAt = now
	applicant.UpdatedAt = now
	s.applicants[applicant.ID] = clone(applicant)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id uuid.UUID) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if applicant, ok := s.applicants[id]; ok {
		return clone(applicant), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lowered := strings.ToLower(email)
	for _, applicant := range s.applicants {
		if strings.ToLower(applicant.Email) == lowered {
			return clone(applicant), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindAll(_ context.Context) ([]*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Applicant, 0, len(s.applicants))
	for _, applicant := range s.applicants {
		out = append(out, clone(applicant))
	}
	return out, nil
}

func (s *InMemory) FindByStatus(_ context.Context, status models.Status) ([]*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Applicant, 0)
	for _, applicant := range s.applicants {
		if applicant.Status == status {
			out = append(out, clone(applicant))
		}
	}
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, id uuid.UUID, status models.Status, rejectionReason string) (*models.Applicant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applicant, ok := s.applicants[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	applicant.Status = status
	applicant.RejectionReason = rejectionReason
	applicant.UpdatedAt = s.clock()
	return clone(applicant), nil
}

func (s *InMemory) DeleteByID(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.applicants[id]; !ok {
		return false, nil
	}
	delete(s.applicants, id)
	return true, nil
}

func (s *InMemory) DeleteAll(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := int64(len(s.applicants))
	s.applicants = make(map[uuid.UUID]*models.Applicant)
	return count, nil
}

func (s *InMemory) CountByStatus(_ context.Context) (models.StatusCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var counts models.StatusCounts
	for _, applicant := range s.applicants {
		counts.Total++
		switch applicant.Status {
		case models.StatusPending:
			counts.Pending++
		case models.StatusApproved:
			counts.Approved++
		case models.StatusRejected:
			counts.Rejected++
		}
	}
	return counts, nil
}

func clone(a *models.Applicant) *models.Applicant {
	copied := *a
	if a.Documents != nil {
		copied.Documents = make(map[string]string, len(a.Documents))
		for slot, url := range a.Documents {
			copied.Documents[slot] = url
		}
	}
	return &copied
}
