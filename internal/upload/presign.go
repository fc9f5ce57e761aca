package upload

import (
	"context"
	"net/http"
	"time"

	"applygate/internal/applicant/models"
	dErrors "applygate/pkg/domain-errors"
)

// Presigner issues direct-upload URLs for the object store.
type Presigner interface {
	PresignPut(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

// PresignedUpload is a server-issued authorization for one direct client
// upload: PUT the file bytes to URL before ExpiresAt and the object lands
// under Key.
type PresignedUpload struct {
	URL       string    `json:"url"`
	Key       string    `json:"key"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// SignatureService signs direct uploads into the document folder. Only the
// known document slots can be signed; the key scheme matches the server-side
// upload path so both flows land objects under the same layout.
type SignatureService struct {
	signer Presigner
	folder string
	ttl    time.Duration
}

func NewSignatureService(signer Presigner, folder string, ttl time.Duration) *SignatureService {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SignatureService{signer: signer, folder: folder, ttl: ttl}
}

// Sign authorizes one direct upload for the given slot.
func (s *SignatureService) Sign(ctx context.Context, slot, filename, contentType string) (*PresignedUpload, error) {
	if !models.IsDocumentSlot(slot) {
		return nil, dErrors.New(dErrors.CodeValidation, "slot must be one of the known document fields")
	}
	if contentType == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "contentType is required")
	}

	now := time.Now()
	key := ObjectKey(s.folder, slot, filename, now)
	url, err := s.signer.PresignPut(ctx, key, contentType, s.ttl)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "could not sign upload")
	}

	return &PresignedUpload{
		URL:       url,
		Key:       key,
		Method:    http.MethodPut,
		ExpiresAt: now.Add(s.ttl),
	}, nil
}
