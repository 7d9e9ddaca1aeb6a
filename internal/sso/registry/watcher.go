package registry

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce collapses the burst of events editors emit on save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a clients file into a Registry whenever it changes.
// A file that fails to load leaves the previous snapshot in place.
type Watcher struct {
	Path     string
	Registry *Registry
	Logger   *slog.Logger
	Debounce time.Duration

	// OnReload, when set, is told about every reload attempt.
	OnReload func(err error)
}

// Run watches until ctx is cancelled. It watches the parent directory so
// that editors replacing the file by rename are picked up too.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("registry: watcher: %w", err)
	}
	defer fw.Close()

	target := filepath.Clean(w.Path)
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("registry: watch %s: %w", filepath.Dir(target), err)
	}

	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write | fsnotify.Create | fsnotify.Rename | fsnotify.Remove) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn("clients watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	snap, err := LoadFile(w.Path)
	if err != nil {
		w.Logger.Error("clients reload failed, keeping previous set", "path", w.Path, "error", err)
	} else {
		w.Registry.Swap(snap)
		w.Logger.Info("clients reloaded", "path", w.Path, "clients", snap.Len())
	}
	if w.OnReload != nil {
		w.OnReload(err)
	}
}
