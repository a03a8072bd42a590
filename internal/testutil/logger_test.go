package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecordingLogger(t *testing.T) {
	logger, rec := NewRecordingLogger(t)
	logger.With("driver", "sqlite").Debug("query finished", "rows", 3)
	logger.Warn("poll failed")

	entries := rec.Entries()
	assert.Len(t, entries, 2)
	assert.Equal(t, "sqlite", entries[0].Attrs["driver"])
	assert.Equal(t, int64(3), entries[0].Attrs["rows"])

	assert.True(t, rec.Has(slog.LevelWarn, "poll failed"))
	assert.False(t, rec.Has(slog.LevelWarn, "query finished"))
	assert.True(t, rec.Has(slog.LevelDebug, "query finished"))
}
