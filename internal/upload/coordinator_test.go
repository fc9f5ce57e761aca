package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"applygate/internal/applicant/metrics"
)

type fakeObjectStore struct {
	mu       sync.Mutex
	stored   map[string]string
	deleted  []string
	failSlot string
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{stored: make(map[string]string)}
}

func (f *fakeObjectStore) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSlot != "" && strings.Contains(key, f.failSlot) {
		return "", errors.New("storage unavailable")
	}
	f.stored[key] = contentType
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.stored, key)
	f.deleted = append(f.deleted, key)
	return nil
}

func testFiles(slots ...string) []File {
	files := make([]File, 0, len(slots))
	for _, slot := range slots {
		files = append(files, File{
			Slot:        slot,
			Filename:    slot + ".pdf",
			ContentType: "application/pdf",
			Data:        []byte("content of " + slot),
		})
	}
	return files
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploadAllSuccess(t *testing.T) {
	store := newFakeObjectStore()
	c := NewCoordinator(store, "applicant-documents", time.Second, testLogger(), nil)

	slots := []string{"cv", "transcript", "personalStatement", "referenceLetter1"}
	urls, err := c.UploadAll(context.Background(), time.Now(), testFiles(slots...))
	require.NoError(t, err)
	require.Len(t, urls, len(slots))
	for _, slot := range slots {
		assert.Contains(t, urls[slot], "applicant-documents/"+slot+"_")
	}
	assert.Len(t, store.stored, len(slots))
	assert.Empty(t, store.deleted)
}

func TestUploadAllCompensatesOnFailure(t *testing.T) {
	store := newFakeObjectStore()
	store.failSlot = "transcript"
	c := NewCoordinator(store, "applicant-documents", time.Second, testLogger(), nil)

	urls, err := c.UploadAll(context.Background(), time.Now(), testFiles("cv", "transcript", "passportBiodata"))
	require.Error(t, err)
	assert.Nil(t, urls)

	var uploadErr *Error
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "transcript", uploadErr.Slot)

	// Everything that landed before the failure must be gone again.
	assert.Empty(t, store.stored)
}

func TestUploadAllRejectsInvalidFile(t *testing.T) {
	store := newFakeObjectStore()
	c := NewCoordinator(store, "applicant-documents", time.Second, testLogger(), nil)

	files := testFiles("cv")
	files = append(files, File{Slot: "transcript", Filename: "transcript.pdf", ContentType: "application/pdf"})

	_, err := c.UploadAll(context.Background(), time.Now(), files)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFile)

	var uploadErr *Error
	require.ErrorAs(t, err, &uploadErr)
	assert.Equal(t, "transcript", uploadErr.Slot)

	// Validation runs before the fan-out, so nothing was stored.
	assert.Empty(t, store.stored)
}

func TestUploadAllEmptyBatch(t *testing.T) {
	c := NewCoordinator(newFakeObjectStore(), "applicant-documents", time.Second, testLogger(), nil)

	urls, err := c.UploadAll(context.Background(), time.Now(), nil)
	require.NoError(t, err)
	assert.Empty(t, urls)
}

func TestDeleteAllRemovesSubmission(t *testing.T) {
	store := newFakeObjectStore()
	c := NewCoordinator(store, "applicant-documents", time.Second, testLogger(), nil)

	submittedAt := time.Now()
	files := testFiles("cv", "transcript")
	_, err := c.UploadAll(context.Background(), submittedAt, files)
	require.NoError(t, err)
	require.Len(t, store.stored, 2)

	c.DeleteAll(submittedAt, files)
	assert.Empty(t, store.stored)
}

func TestObjectKey(t *testing.T) {
	submittedAt := time.Unix(1750000000, 0)
	key := ObjectKey("applicant-documents", "cv", "resume.pdf", submittedAt)
	assert.Equal(t, "applicant-documents/cv_1750000000.pdf", key)

	// Extensionless originals get no trailing dot.
	key = ObjectKey("applicant-documents", "cv", "resume", submittedAt)
	assert.Equal(t, "applicant-documents/cv_1750000000", key)
}

func TestUploadAllClassifiesResourceKind(t *testing.T) {
	store := newFakeObjectStore()
	m := metrics.New()
	c := NewCoordinator(store, "applicant-documents", time.Second, testLogger(), m)

	files := []File{
		{Slot: "passportBiodata", Filename: "photo.png", ContentType: "image/png", Data: []byte("png")},
		{Slot: "cv", Filename: "cv.pdf", ContentType: "application/pdf", Data: []byte("pdf")},
		{Slot: "personalStatement", Filename: "intro.mp4", ContentType: "video/mp4", Data: []byte("mp4")},
	}
	_, err := c.UploadAll(context.Background(), time.Now(), files)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("image", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("raw", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UploadsTotal.WithLabelValues("video", "success")))
}

func TestKindFor(t *testing.T) {
	assert.Equal(t, KindImage, KindFor("image/png"))
	assert.Equal(t, KindVideo, KindFor("video/mp4"))
	assert.Equal(t, KindRaw, KindFor("application/pdf"))
	assert.Equal(t, KindRaw, KindFor(""))
}
