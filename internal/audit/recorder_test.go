package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRecorderStampsEvents(t *testing.T) {
	recorder := NewRecorder(4, discardLogger())
	recorder.Record(context.Background(), Event{Action: ActionLoginFailed, Actor: "someone@example.com"})

	event := <-recorder.inbox
	assert.Equal(t, ActionLoginFailed, event.Action)
	assert.NotZero(t, event.ID)
	assert.False(t, event.At.IsZero())
}

func TestRecorderDropsWhenFull(t *testing.T) {
	recorder := NewRecorder(1, discardLogger())
	recorder.Record(context.Background(), Event{Action: ActionDeleted})
	// The inbox is full; this must not block.
	recorder.Record(context.Background(), Event{Action: ActionDeletedAll})

	assert.Len(t, recorder.inbox, 1)
}

func TestNilRecorderIsSafe(t *testing.T) {
	var recorder *Recorder
	recorder.Record(context.Background(), Event{Action: ActionEmailSent})
}

func TestWorkerPersistsEvents(t *testing.T) {
	recorder := NewRecorder(4, discardLogger())
	store := NewInMemoryStore()
	worker := NewWorker(store, recorder, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = worker.Run(ctx)
	}()

	recorder.Record(ctx, Event{Action: ActionStatusChanged, Subject: "abc"})

	require.Eventually(t, func() bool {
		events, err := store.List(context.Background())
		return err == nil && len(events) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	<-done

	events, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ActionStatusChanged, events[0].Action)
	assert.Equal(t, "abc", events[0].Subject)
}
