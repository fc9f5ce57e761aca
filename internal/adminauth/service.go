// Package adminauth issues and validates admin session tokens against the
// single configured admin identity. There is no admin directory and no
// refresh flow; a token simply expires.
package adminauth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"applygate/internal/audit"
	dErrors "applygate/pkg/domain-errors"
)

// Service validates the shared admin credential pair and mints tokens.
type Service struct {
	adminEmail   string
	passwordHash []byte
	tokens       *TokenService
	logger       *slog.Logger
	recorder     *audit.Recorder
}

// NewService hashes the configured plaintext password once at startup so every
// login check runs through bcrypt's constant-time comparison.
func NewService(adminEmail, adminPassword string, tokens *TokenService, logger *slog.Logger, recorder *audit.Recorder) (*Service, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &Service{
		adminEmail:   adminEmail,
		passwordHash: hash,
		tokens:       tokens,
		logger:       logger,
		recorder:     recorder,
	}, nil
}

// Login checks the supplied credentials against the configured admin identity
// and returns a signed session token. Both comparisons are constant-time, and
// the same error comes back whichever field was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	suppliedEmail := sha256.Sum256([]byte(email))
	expectedEmail := sha256.Sum256([]byte(s.adminEmail))
	emailOK := subtle.ConstantTimeCompare(suppliedEmail[:], expectedEmail[:]) == 1

	passwordOK := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)) == nil

	if !emailOK || !passwordOK {
		s.recorder.Record(ctx, audit.Event{
			Action: audit.ActionLoginFailed,
			Actor:  email,
		})
		return "", dErrors.New(dErrors.CodeUnauthorized, "Invalid email or password")
	}

	token, err := s.tokens.Issue(s.adminEmail)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "could not issue session token")
	}

	s.recorder.Record(ctx, audit.Event{
		Action: audit.ActionLoginSucceeded,
		Actor:  s.adminEmail,
	})
	return token, nil
}
