package usagewatch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/focuspact/focuspact/internal/monitor"
	"github.com/stretchr/testify/require"
)

func writeLines(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	defer f.Close()
	for _, line := range lines {
		_, err := f.WriteString(line + "\n")
		require.NoError(t, err)
	}
}

func collect(w *Watcher) []monitor.Event {
	var out []monitor.Event
	for {
		select {
		case ev := <-w.events:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func TestDrainDecodesAppendedEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage-events.jsonl")

	w, err := New(path)
	require.NoError(t, err)
	defer w.fsw.Close()

	writeLines(t, path,
		`{"type":"intervalStart","at":"2026-01-02T00:00:00Z"}`,
		`{"type":"thresholdReached","at":"2026-01-02T14:30:00Z"}`,
	)
	w.drain(context.Background())

	events := collect(w)
	require.Len(t, events, 2)
	require.Equal(t, monitor.EventIntervalStart, events[0].Type)
	require.Equal(t, monitor.EventThresholdReached, events[1].Type)
	require.Equal(t, time.Date(2026, 1, 2, 14, 30, 0, 0, time.UTC), events[1].At)
}

func TestPreexistingContentIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage-events.jsonl")
	writeLines(t, path, `{"type":"intervalStart","at":"2026-01-01T00:00:00Z"}`)

	w, err := New(path)
	require.NoError(t, err)
	defer w.fsw.Close()

	w.drain(context.Background())
	require.Empty(t, collect(w))

	writeLines(t, path, `{"type":"thresholdWarning","at":"2026-01-02T12:00:00Z"}`)
	w.drain(context.Background())

	events := collect(w)
	require.Len(t, events, 1)
	require.Equal(t, monitor.EventThresholdWarning, events[0].Type)
}

func TestMalformedLinesAreSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "usage-events.jsonl")

	w, err := New(path)
	require.NoError(t, err)
	defer w.fsw.Close()

	writeLines(t, path,
		`not json`,
		`{"type":"intervalEnd","at":"2026-01-02T23:59:00Z"}`,
	)
	w.drain(context.Background())

	events := collect(w)
	require.Len(t, events, 1)
	require.Equal(t, monitor.EventIntervalEnd, events[0].Type)
}
