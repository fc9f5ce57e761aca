package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"

	"applygate/internal/adminauth"
	"applygate/internal/applicant/handler"
	"applygate/internal/applicant/models"
	"applygate/internal/applicant/service"
	"applygate/internal/applicant/store"
	apphttp "applygate/internal/http"
	"applygate/internal/ratelimit"
	"applygate/internal/upload"
)

type recordingUploader struct {
	batches int
}

func (u *recordingUploader) UploadAll(_ context.Context, _ time.Time, files []upload.File) (map[string]string, error) {
	u.batches++
	urls := make(map[string]string, len(files))
	for _, file := range files {
		urls[file.Slot] = "https://cdn.example.com/" + file.Slot
	}
	return urls, nil
}

func (u *recordingUploader) DeleteAll(_ time.Time, _ []upload.File) {}

type recordingNotifier struct {
	registrations int
	decisions     int
	customs       int
}

func (n *recordingNotifier) SendRegistrationConfirmation(context.Context, *models.Applicant) bool {
	n.registrations++
	return true
}

func (n *recordingNotifier) SendStatusDecision(context.Context, *models.Applicant) bool {
	n.decisions++
	return true
}

func (n *recordingNotifier) SendCustomMessage(context.Context, string, string, string) bool {
	n.customs++
	return true
}

type staticPresigner struct{}

func (staticPresigner) PresignPut(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	return "https://bucket.s3.amazonaws.com/" + key + "?X-Amz-Signature=abc", nil
}

type HandlerSuite struct {
	suite.Suite
	server   *httptest.Server
	store    *store.InMemory
	uploader *recordingUploader
	notifier *recordingNotifier
	tokens   *adminauth.TokenService
	token    string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.store = store.NewInMemory()
	s.uploader = &recordingUploader{}
	s.notifier = &recordingNotifier{}
	s.tokens = adminauth.NewTokenService("test-signing-key", time.Hour)

	svc := service.New(s.store, s.uploader, s.notifier, nil, logger, nil)
	signatures := upload.NewSignatureService(staticPresigner{}, "applicant-documents", 15*time.Minute)
	adminSvc, err := adminauth.NewService("admin@example.com", "correct horse battery", s.tokens, logger, nil)
	s.Require().NoError(err)

	router := apphttp.New(apphttp.Deps{
		Logger:       logger,
		Applicants:   handler.New(svc, signatures, logger),
		AdminLogin:   adminauth.NewHandler(adminSvc, logger),
		Tokens:       s.tokens,
		LoginLimiter: ratelimit.NewMemory(),
		Health: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		},
	})
	s.server = httptest.NewServer(router)
	s.T().Cleanup(s.server.Close)

	s.token, err = s.tokens.Issue("admin@example.com")
	s.Require().NoError(err)
}

func (s *HandlerSuite) registrationForm(email string, slots ...string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	s.Require().NoError(w.WriteField("firstName", "Ada"))
	s.Require().NoError(w.WriteField("lastName", "Mensah"))
	s.Require().NoError(w.WriteField("email", email))
	s.Require().NoError(w.WriteField("number", "+233201234567"))
	s.Require().NoError(w.WriteField("countryOfOrigin", "Ghana"))
	s.Require().NoError(w.WriteField("travellingTo", "United Kingdom"))
	for _, slot := range slots {
		part, err := w.CreateFormFile(slot, slot+".pdf")
		s.Require().NoError(err)
		_, err = part.Write([]byte("%PDF-1.4 test content for " + slot))
		s.Require().NoError(err)
	}
	s.Require().NoError(w.Close())
	return body, w.FormDataContentType()
}

func (s *HandlerSuite) do(method, path, token string, body io.Reader, contentType string) *http.Response {
	req, err := http.NewRequest(method, s.server.URL+path, body)
	s.Require().NoError(err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *HandlerSuite) decode(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var payload map[string]any
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&payload))
	return payload
}

func (s *HandlerSuite) register(email string, slots ...string) map[string]any {
	body, contentType := s.registrationForm(email, slots...)
	resp := s.do(http.MethodPost, "/api/users/register", "", body, contentType)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	return s.decode(resp)
}

func (s *HandlerSuite) TestRegisterFullDocumentSet() {
	payload := s.register("ada@example.com", models.DocumentSlots...)

	s.Equal("User registered successfully", payload["message"])
	data := payload["data"].(map[string]any)
	s.Equal("pending", data["status"])
	documents := data["documents"].(map[string]any)
	s.Len(documents, len(models.DocumentSlots))
	s.Equal(1, s.notifier.registrations)
}

func (s *HandlerSuite) TestRegisterMissingRequiredField() {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	s.Require().NoError(w.WriteField("firstName", "Ada"))
	s.Require().NoError(w.Close())

	resp := s.do(http.MethodPost, "/api/users/register", "", body, w.FormDataContentType())
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	payload := s.decode(resp)
	s.Equal("validation_failed", payload["error"])
}

func (s *HandlerSuite) TestRegisterRejectsUnknownDocumentField() {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	s.Require().NoError(w.WriteField("firstName", "Ada"))
	s.Require().NoError(w.WriteField("lastName", "Mensah"))
	s.Require().NoError(w.WriteField("email", "ada@example.com"))
	s.Require().NoError(w.WriteField("number", "+233201234567"))
	part, err := w.CreateFormFile("selfie", "me.png")
	s.Require().NoError(err)
	_, err = part.Write([]byte("png bytes"))
	s.Require().NoError(err)
	s.Require().NoError(w.Close())

	resp := s.do(http.MethodPost, "/api/users/register", "", body, w.FormDataContentType())
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	payload := s.decode(resp)
	s.Equal("validation_failed", payload["error"])
	s.Zero(s.uploader.batches)
}

func (s *HandlerSuite) TestUploadSignature() {
	resp := s.do(http.MethodGet, "/api/uploads/signature?slot=cv&filename=resume.pdf&contentType=application/pdf", "", nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	payload := s.decode(resp)
	data := payload["data"].(map[string]any)
	s.Equal("PUT", data["method"])
	s.Contains(data["key"].(string), "applicant-documents/cv_")
	s.Contains(data["url"].(string), data["key"].(string))
}

func (s *HandlerSuite) TestUploadSignatureRejectsUnknownSlot() {
	resp := s.do(http.MethodGet, "/api/uploads/signature?slot=selfie&filename=me.png&contentType=image/png", "", nil, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestRegisterDuplicateEmail() {
	s.register("ada@example.com", "cv")

	body, contentType := s.registrationForm("Ada@Example.com", "cv")
	resp := s.do(http.MethodPost, "/api/users/register", "", body, contentType)
	s.Equal(http.StatusConflict, resp.StatusCode)
	payload := s.decode(resp)
	s.Equal("conflict", payload["error"])
}

func (s *HandlerSuite) TestAdminRoutesRequireToken() {
	resp := s.do(http.MethodGet, "/api/users/getAllUser", "", nil, "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestAdminRoutesRejectNonAdminRole() {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, adminauth.Claims{
		Email: "viewer@example.com",
		Role:  "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := token.SignedString([]byte("test-signing-key"))
	s.Require().NoError(err)

	resp := s.do(http.MethodGet, "/api/users/getAllUser", signed, nil, "")
	s.Equal(http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestAdminRoutesRejectExpiredToken() {
	expired := adminauth.NewTokenService("test-signing-key", -time.Minute)
	token, err := expired.Issue("admin@example.com")
	s.Require().NoError(err)

	resp := s.do(http.MethodGet, "/api/users/getAllUser", token, nil, "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestListAll() {
	s.register("ada@example.com", "cv")
	s.register("kofi@example.com", "cv")

	resp := s.do(http.MethodGet, "/api/users/getAllUser", s.token, nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	payload := s.decode(resp)
	s.Len(payload["data"].([]any), 2)
}

func (s *HandlerSuite) TestListByStatusRejectsUnknownStatus() {
	resp := s.do(http.MethodGet, "/api/users/status/archived", s.token, nil, "")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestStatusLifecycle() {
	created := s.register("ada@example.com", "cv")
	id := created["data"].(map[string]any)["id"].(string)

	reject, _ := json.Marshal(map[string]string{"status": "rejected", "rejectionReason": "incomplete transcript"})
	resp := s.do(http.MethodPatch, "/api/users/"+id+"/status", s.token, bytes.NewReader(reject), "application/json")
	s.Equal(http.StatusOK, resp.StatusCode)
	payload := s.decode(resp)
	data := payload["data"].(map[string]any)
	s.Equal("rejected", data["status"])
	s.Equal("incomplete transcript", data["rejectionReason"])

	approve, _ := json.Marshal(map[string]string{"status": "approved"})
	resp = s.do(http.MethodPatch, "/api/users/"+id+"/status", s.token, bytes.NewReader(approve), "application/json")
	s.Equal(http.StatusOK, resp.StatusCode)
	payload = s.decode(resp)
	data = payload["data"].(map[string]any)
	s.Equal("approved", data["status"])
	s.Nil(data["rejectionReason"])

	s.Equal(2, s.notifier.decisions)
}

func (s *HandlerSuite) TestRejectWithoutReason() {
	created := s.register("ada@example.com", "cv")
	id := created["data"].(map[string]any)["id"].(string)

	reject, _ := json.Marshal(map[string]string{"status": "rejected"})
	resp := s.do(http.MethodPatch, "/api/users/"+id+"/status", s.token, bytes.NewReader(reject), "application/json")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
	s.Zero(s.notifier.decisions)
}

func (s *HandlerSuite) TestStatusCounts() {
	s.register("a@example.com", "cv")
	s.register("b@example.com", "cv")

	resp := s.do(http.MethodGet, "/api/users/status-counts", s.token, nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	payload := s.decode(resp)
	counts := payload["data"].(map[string]any)
	s.Equal(float64(2), counts["total"])
	s.Equal(float64(2), counts["pending"])
}

func (s *HandlerSuite) TestSendEmail() {
	body, _ := json.Marshal(map[string]string{
		"email":   "ada@example.com",
		"subject": "Interview invitation",
		"message": "Please attend on Friday.",
	})
	resp := s.do(http.MethodPost, "/api/admin/send-email", s.token, bytes.NewReader(body), "application/json")
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	s.Equal(1, s.notifier.customs)
}

func (s *HandlerSuite) TestSendEmailRejectsBadAddress() {
	body, _ := json.Marshal(map[string]string{
		"email":   "not-an-email",
		"subject": "Hi",
		"message": "Hello",
	})
	resp := s.do(http.MethodPost, "/api/admin/send-email", s.token, bytes.NewReader(body), "application/json")
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestDeleteOne() {
	created := s.register("ada@example.com", "cv")
	id := created["data"].(map[string]any)["id"].(string)

	resp := s.do(http.MethodDelete, "/api/admin/"+id+"/deleteUser", s.token, nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(http.MethodDelete, "/api/admin/"+id+"/deleteUser", s.token, nil, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestDeleteAll() {
	s.register("a@example.com", "cv")
	s.register("b@example.com", "cv")

	resp := s.do(http.MethodDelete, "/api/admin/deleteAll", s.token, nil, "")
	s.Equal(http.StatusOK, resp.StatusCode)
	payload := s.decode(resp)
	s.Equal("2 users deleted successfully", payload["message"])
}

func (s *HandlerSuite) TestLoginSuccessAndFailure() {
	good, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "correct horse battery"})
	resp := s.do(http.MethodPost, "/api/admin/login", "", bytes.NewReader(good), "application/json")
	s.Equal(http.StatusOK, resp.StatusCode)
	payload := s.decode(resp)
	s.Equal("Login successful", payload["message"])
	s.NotEmpty(payload["token"])
	s.Equal("admin", payload["role"])

	bad, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong"})
	resp = s.do(http.MethodPost, "/api/admin/login", "", bytes.NewReader(bad), "application/json")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func (s *HandlerSuite) TestLoginRateLimited() {
	bad, _ := json.Marshal(map[string]string{"email": "admin@example.com", "password": "wrong"})
	var last int
	for i := 0; i < 6; i++ {
		resp := s.do(http.MethodPost, "/api/admin/login", "", bytes.NewReader(bad), "application/json")
		last = resp.StatusCode
		resp.Body.Close()
	}
	s.Equal(http.StatusTooManyRequests, last)
}
