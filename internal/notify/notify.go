// Package notify renders and sends the applicant-facing emails. Delivery is
// best-effort by contract: every send reports a bool, never an error, and the
// orchestrator treats a false as non-fatal. There is no retry and no queue; a
// transient failure is a lost notification.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"applygate/internal/applicant/models"
)

// Sender is the transactional delivery transport.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Service renders the fixed templates and hands off to the Sender.
type Service struct {
	sender  Sender
	program string
	logger  *slog.Logger
}

func NewService(sender Sender, program string, logger *slog.Logger) *Service {
	return &Service{sender: sender, program: program, logger: logger}
}

// SendRegistrationConfirmation emails the applicant after a successful registration.
func (s *Service) SendRegistrationConfirmation(ctx context.Context, applicant *models.Applicant) bool {
	subject := "Registration Successful!"
	return s.render(ctx, applicant.Email, subject, "#007bff", registrationTmpl, contentData{
		FirstName: applicant.FirstName,
		LastName:  applicant.LastName,
		Program:   s.program,
	})
}

// SendStatusDecision emails the applicant about the current review status.
// Unknown statuses produce no email and a false result.
func (s *Service) SendStatusDecision(ctx context.Context, applicant *models.Applicant) bool {
	data := contentData{
		FirstName:       applicant.FirstName,
		LastName:        applicant.LastName,
		Program:         s.program,
		RejectionReason: applicant.RejectionReason,
	}

	var (
		subject string
		color   string
		tmpl    *template.Template
	)
	switch applicant.Status {
	case models.StatusApproved:
		subject = fmt.Sprintf("Your %s Application - Approved!", s.program)
		color = "#28a745"
		tmpl = approvedTmpl
	case models.StatusRejected:
		subject = fmt.Sprintf("Your %s Application - Rejected", s.program)
		color = "#dc3545"
		tmpl = rejectedTmpl
	case models.StatusPending:
		subject = fmt.Sprintf("Your %s Application - Status Pending", s.program)
		color = "#ffc107"
		tmpl = pendingTmpl
	default:
		s.logger.Warn("unknown status, email not sent", "status", string(applicant.Status))
		return false
	}

	return s.render(ctx, applicant.Email, subject, color, tmpl, data)
}

// SendCustomMessage delivers an ad-hoc admin message wrapped in the standard frame.
func (s *Service) SendCustomMessage(ctx context.Context, toEmail, subject, bodyText string) bool {
	var content bytes.Buffer
	// Escape via the text pipeline of html/template before framing.
	template.HTMLEscape(&content, []byte(bodyText))
	return s.send(ctx, toEmail, subject, "#333", template.HTML("<p>"+content.String()+"</p>"))
}

func (s *Service) render(ctx context.Context, to, subject, color string, tmpl *template.Template, data contentData) bool {
	var content bytes.Buffer
	if err := tmpl.Execute(&content, data); err != nil {
		s.logger.Error("render email content", "error", err, "to", to)
		return false
	}
	return s.send(ctx, to, subject, color, template.HTML(content.String()))
}

func (s *Service) send(ctx context.Context, to, subject, color string, content template.HTML) bool {
	var body bytes.Buffer
	if err := frameTmpl.Execute(&body, frameData{Subject: subject, Color: color, Content: content}); err != nil {
		s.logger.Error("render email frame", "error", err, "to", to)
		return false
	}
	if err := s.sender.Send(ctx, to, subject, body.String()); err != nil {
		s.logger.Error("send email", "error", err, "to", to, "subject", subject)
		return false
	}
	return true
}
