package upload

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"applygate/internal/applicant/metrics"
)

var tracer trace.Tracer = otel.Tracer("applygate/upload")

// ObjectStore is the remote object storage the coordinator writes to.
// Put returns the public URL of the stored object.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Coordinator fans out one upload goroutine per file and joins on all of
// them, with shared-context cancellation on the first failure.
type Coordinator struct {
	store     ObjectStore
	folder    string
	perUpload time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func NewCoordinator(store ObjectStore, folder string, perUpload time.Duration, logger *slog.Logger, m *metrics.Metrics) *Coordinator {
	if perUpload <= 0 {
		perUpload = 30 * time.Second
	}
	return &Coordinator{
		store:     store,
		folder:    folder,
		perUpload: perUpload,
		logger:    logger,
		metrics:   m,
	}
}

// UploadAll stores every file and returns the slot→URL mapping. On any
// failure it deletes the objects that already succeeded and returns the
// first error, so no partial document set ever reaches the record store.
func (c *Coordinator) UploadAll(ctx context.Context, submittedAt time.Time, files []File) (map[string]string, error) {
	if len(files) == 0 {
		return map[string]string{}, nil
	}

	ctx, span := tracer.Start(ctx, "upload.fan_out")
	span.SetAttributes(attribute.Int("upload.files", len(files)))
	defer span.End()

	start := time.Now()
	defer func() { c.metrics.ObserveUploadBatch(time.Since(start)) }()

	// Reject malformed files before anything hits the wire.
	for _, f := range files {
		if len(f.Data) == 0 || f.ContentType == "" {
			c.metrics.RecordUpload(string(KindFor(f.ContentType)), false)
			return nil, &Error{Slot: f.Slot, Err: ErrInvalidFile}
		}
	}

	var mu sync.Mutex
	urls := make(map[string]string, len(files))
	keys := make(map[string]string, len(files))

	g, groupCtx := errgroup.WithContext(ctx)
	for _, f := range files {
		g.Go(func() error {
			key := ObjectKey(c.folder, f.Slot, f.Filename, submittedAt)
			kind := string(KindFor(f.ContentType))

			uploadCtx, cancel := context.WithTimeout(groupCtx, c.perUpload)
			defer cancel()

			url, err := c.store.Put(uploadCtx, key, f.ContentType, f.Data)
			if err != nil {
				c.metrics.RecordUpload(kind, false)
				return &Error{Slot: f.Slot, Err: err}
			}
			c.metrics.RecordUpload(kind, true)

			mu.Lock()
			urls[f.Slot] = url
			keys[f.Slot] = key
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		c.compensate(keys)
		return nil, err
	}
	return urls, nil
}

// DeleteAll removes previously uploaded objects, used by the service when the
// record insert itself fails after a successful fan-out.
func (c *Coordinator) DeleteAll(submittedAt time.Time, files []File) {
	keys := make(map[string]string, len(files))
	for _, f := range files {
		keys[f.Slot] = ObjectKey(c.folder, f.Slot, f.Filename, submittedAt)
	}
	c.compensate(keys)
}

// compensate issues best-effort deletes for objects that already landed. It
// runs on a fresh context: the request's context is typically canceled by the
// time an abort is underway.
func (c *Coordinator) compensate(keys map[string]string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.perUpload)
	defer cancel()
	for slot, key := range keys {
		if err := c.store.Delete(ctx, key); err != nil {
			c.logger.Warn("orphan cleanup failed",
				"slot", slot,
				"key", key,
				"error", err,
			)
		}
	}
}
