package models

import (
	"time"

	"github.com/google/uuid"

	dErrors "applygate/pkg/domain-errors"
)

// Status is the review state of an application. It only ever holds one of the
// three enumerated values; anything else is rejected before persistence.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a raw status string from a route or request body.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "status must be one of pending, approved, rejected")
	}
}

// MaxDocuments is the number of named document slots.
const MaxDocuments = 8

// DocumentSlots is the fixed set of named upload fields an applicant may
// supply. Slots absent at registration can never be added later; there is no
// update-document operation.
var DocumentSlots = []string{
	"bscCertificate",
	"transcript",
	"wassceCertificate",
	"cv",
	"personalStatement",
	"passportBiodata",
	"referenceLetter1",
	"referenceLetter2",
}

// IsDocumentSlot reports whether name is one of the fixed document slots.
func IsDocumentSlot(name string) bool {
	for _, slot := range DocumentSlots {
		if slot == name {
			return true
		}
	}
	return false
}

// Applicant is a single registration record: personal fields, the uploaded
// document URLs keyed by slot name, and the current review status.
type Applicant struct {
	ID                 uuid.UUID         `json:"id"`
	FirstName          string            `json:"firstName"`
	LastName           string            `json:"lastName"`
	Email              string            `json:"email"`
	PhoneNumber        string            `json:"number"`
	CountryOfOrigin    string            `json:"countryOfOrigin,omitempty"`
	DestinationCountry string            `json:"travellingTo,omitempty"`
	Documents          map[string]string `json:"documents"`
	Status             Status            `json:"status"`
	RejectionReason    string            `json:"rejectionReason,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// StatusCounts aggregates applications per review state.
type StatusCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
}
