package logger

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHonorsLevel(t *testing.T) {
	ctx := context.Background()

	debug := New("debug")
	assert.True(t, debug.Enabled(ctx, slog.LevelDebug))

	warn := New("warn")
	assert.False(t, warn.Enabled(ctx, slog.LevelInfo))
	assert.True(t, warn.Enabled(ctx, slog.LevelWarn))

	errLevel := New("ERROR")
	assert.False(t, errLevel.Enabled(ctx, slog.LevelWarn))
	assert.True(t, errLevel.Enabled(ctx, slog.LevelError))
}

func TestNewDefaultsToInfo(t *testing.T) {
	ctx := context.Background()
	for _, level := range []string{"", "verbose", "  info  "} {
		log := New(level)
		assert.False(t, log.Enabled(ctx, slog.LevelDebug), "level %q", level)
		assert.True(t, log.Enabled(ctx, slog.LevelInfo), "level %q", level)
	}
}
