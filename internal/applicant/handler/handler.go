// Package handler exposes the applicant intake HTTP surface: the public
// multipart registration endpoint and the admin review routes.
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"applygate/internal/applicant/models"
	"applygate/internal/applicant/service"
	"applygate/internal/upload"
	dErrors "applygate/pkg/domain-errors"
	"applygate/pkg/platform/httputil"
	"applygate/pkg/requestcontext"
)

// maxFileBytes caps a single document upload.
const maxFileBytes = 3 << 20

// maxFormBytes bounds the whole multipart body: eight capped documents plus
// headroom for the text fields.
const maxFormBytes = models.MaxDocuments*maxFileBytes + 1<<20

type Handler struct {
	service    *service.Service
	signatures *upload.SignatureService
	logger     *slog.Logger
}

func New(service *service.Service, signatures *upload.SignatureService, logger *slog.Logger) *Handler {
	return &Handler{service: service, signatures: signatures, logger: logger}
}

// RegisterPublic mounts the routes that need no credentials.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/users/register", h.HandleRegister)
	r.Get("/uploads/signature", h.HandleUploadSignature)
}

// RegisterAdmin mounts the review routes; the router wraps them in the admin
// token guard.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/users/getAllUser", h.HandleListAll)
	r.Get("/users/status/{status}", h.HandleListByStatus)
	r.Get("/users/status-counts", h.HandleStatusCounts)
	r.Patch("/users/{userId}/status", h.HandleUpdateStatus)
	r.Post("/admin/send-email", h.HandleSendEmail)
	r.Delete("/admin/{userId}/deleteUser", h.HandleDeleteOne)
	r.Delete("/admin/deleteAll", h.HandleDeleteAll)
}

// HandleRegister accepts the multipart registration form: the personal fields
// plus up to eight named document parts.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "a multipart form is required"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	cmd, err := registerCommandFromForm(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	applicant, err := h.service.Register(ctx, *cmd)
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
			"email", cmd.Email,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Envelope{
		Message: "User registered successfully",
		Data:    applicant,
	})
}

func registerCommandFromForm(r *http.Request) (*service.RegisterCommand, error) {
	field := func(name string) string {
		return strings.TrimSpace(r.FormValue(name))
	}

	cmd := service.RegisterCommand{
		FirstName:          field("firstName"),
		LastName:           field("lastName"),
		Email:              field("email"),
		PhoneNumber:        field("number"),
		CountryOfOrigin:    field("countryOfOrigin"),
		DestinationCountry: field("travellingTo"),
	}

	for name, value := range map[string]string{
		"firstName": cmd.FirstName,
		"lastName":  cmd.LastName,
		"email":     cmd.Email,
		"number":    cmd.PhoneNumber,
	} {
		if value == "" {
			return nil, dErrors.New(dErrors.CodeValidation, name+" is required")
		}
	}
	if !govalidator.IsEmail(cmd.Email) {
		return nil, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}

	if r.MultipartForm != nil {
		for name := range r.MultipartForm.File {
			if !models.IsDocumentSlot(name) {
				return nil, dErrors.New(dErrors.CodeValidation, name+" is not a known document field")
			}
		}
	}

	for _, slot := range models.DocumentSlots {
		file, header, err := r.FormFile(slot)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) {
				continue
			}
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read document "+slot)
		}
		data, err := readDocument(file, header, slot)
		if err != nil {
			return nil, err
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		cmd.Files = append(cmd.Files, upload.File{
			Slot:        slot,
			Filename:    header.Filename,
			ContentType: contentType,
			Data:        data,
		})
	}

	return &cmd, nil
}

func readDocument(file multipart.File, header *multipart.FileHeader, slot string) ([]byte, error) {
	defer file.Close()
	if header.Size > maxFileBytes {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("document %s exceeds the %d MB limit", slot, maxFileBytes>>20))
	}
	data, err := io.ReadAll(io.LimitReader(file, maxFileBytes+1))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "could not read document "+slot)
	}
	if len(data) > maxFileBytes {
		return nil, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("document %s exceeds the %d MB limit", slot, maxFileBytes>>20))
	}
	return data, nil
}

// HandleUploadSignature authorizes one direct client upload for a document
// slot, so large files can skip the server-side registration path.
func (h *Handler) HandleUploadSignature(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	signed, err := h.signatures.Sign(r.Context(), q.Get("slot"), q.Get("filename"), q.Get("contentType"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Message: "Upload signature issued",
		Data:    signed,
	})
}

// HandleListAll returns every applicant, newest first.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	applicants, err := h.service.ListAll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Message: "Users retrieved successfully",
		Data:    applicants,
	})
}

// HandleListByStatus returns applicants in the review state named by the route.
func (h *Handler) HandleListByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := models.ParseStatus(chi.URLParam(r, "status"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	applicants, err := h.service.ListByStatus(r.Context(), status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Message: "Users retrieved successfully",
		Data:    applicants,
	})
}

// HandleStatusCounts returns the per-state application totals.
func (h *Handler) HandleStatusCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.CountsByStatus(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Message: "Status counts retrieved successfully",
		Data:    counts,
	})
}

// HandleUpdateStatus applies an admin review decision to one application.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateStatusRequest](w, r, h.logger)
	if !ok {
		return
	}
	status, err := models.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	applicant, err := h.service.ChangeStatus(ctx, id, status, req.RejectionReason)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Message: "User status updated successfully",
		Data:    applicant,
	})
}

// HandleSendEmail sends an ad-hoc admin message to any address.
func (h *Handler) HandleSendEmail(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[SendEmailRequest](w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.SendCustomEmail(r.Context(), req.Email, req.Subject, req.Message); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Message: "Email sent successfully",
	})
}

// HandleDeleteOne removes a single applicant record.
func (h *Handler) HandleDeleteOne(w http.ResponseWriter, r *http.Request) {
	id, ok := h.userID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteOne(r.Context(), id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Message: "User deleted successfully",
	})
}

// HandleDeleteAll removes every applicant record.
func (h *Handler) HandleDeleteAll(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.DeleteAll(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, httputil.Envelope{
		Message: fmt.Sprintf("%d users deleted successfully", count),
	})
}

func (h *Handler) userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "userId must be a valid UUID"))
		return uuid.Nil, false
	}
	return id, true
}
