// Package usagewatch tails the JSONL file the OS usage tracker appends its
// interval and threshold callbacks to, and delivers each decoded event.
package usagewatch

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/focuspact/focuspact/internal/monitor"
	"github.com/fsnotify/fsnotify"
)

// Watcher follows one usage-events file. Events written before the watcher
// starts are skipped: replaying yesterday's callbacks into the monitor would
// re-apply stale shields.
type Watcher struct {
	path   string
	offset int64
	events chan monitor.Event
	fsw    *fsnotify.Watcher
}

func New(path string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	// Watch the directory, not the file: the tracker may rotate or recreate it.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:   path,
		events: make(chan monitor.Event, 16),
		fsw:    fsw,
	}

	if info, err := os.Stat(path); err == nil {
		w.offset = info.Size()
	}

	return w, nil
}

// Events returns the channel decoded tracker events arrive on.
func (w *Watcher) Events() <-chan monitor.Event {
	return w.events
}

// Run blocks until ctx is cancelled, forwarding each appended JSONL line as
// an event.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
				// New file under the same name starts from zero.
				w.offset = 0
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.drain(ctx)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Printf("usage watcher error: %v", err)
		}
	}
}

// drain reads every complete line appended since the last offset.
func (w *Watcher) drain(ctx context.Context) {
	f, err := os.Open(w.path)
	if err != nil {
		return
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() < w.offset {
		// Truncated; start over.
		w.offset = 0
	}

	if _, err := f.Seek(w.offset, io.SeekStart); err != nil {
		return
	}

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		w.offset += int64(len(line)) + 1

		if len(line) == 0 {
			continue
		}

		var event monitor.Event
		if err := json.Unmarshal(line, &event); err != nil {
			log.Printf("skipping malformed usage event: %v", err)
			continue
		}

		select {
		case w.events <- event:
		case <-ctx.Done():
			return
		}
	}
}
