package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Recorder accepts events from request paths without blocking them. A full
// inbox drops the event; the trail is an operational aid, not a ledger.
type Recorder struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewRecorder(buffer int, logger *slog.Logger) *Recorder {
	if buffer <= 0 {
		buffer = 256
	}
	return &Recorder{
		inbox:  make(chan Event, buffer),
		logger: logger,
	}
}

// Record stamps and enqueues an event. Safe to call on a nil Recorder.
func (r *Recorder) Record(_ context.Context, event Event) {
	if r == nil {
		return
	}
	event.ID = uuid.New()
	event.At = time.Now()
	select {
	case r.inbox <- event:
	default:
		r.logger.Warn("audit inbox full, event dropped", "action", string(event.Action))
	}
}

// Worker consumes recorded events and persists them.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

func NewWorker(store Store, recorder *Recorder, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: recorder.inbox, logger: logger}
}

// Run processes events until the context is canceled. Persistence failures
// are logged and skipped so one bad event cannot stall the trail.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.Error("append audit event", "error", err, "action", string(event.Action))
			}
		}
	}
}
