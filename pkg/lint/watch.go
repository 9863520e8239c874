package lint

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// watchDebounce coalesces bursts of editor write events into one re-lint.
const watchDebounce = 500 * time.Millisecond

// hdlSuffixes are the file extensions that trigger a re-lint.
var hdlSuffixes = []string{".sv", ".v", ".svh", ".vh"}

// Watcher re-runs a lint pass whenever a watched HDL source changes.
type Watcher struct {
	logger  zerolog.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher creates a watcher.
func NewWatcher(logger zerolog.Logger) *Watcher {
	return &Watcher{logger: logger}
}

// Watch watches the given files and directories and invokes relint on
// every debounced change until the context is cancelled. The initial lint
// pass is the caller's responsibility.
func (w *Watcher) Watch(ctx context.Context, paths []string, relint func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher
	defer watcher.Close()

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("cannot watch path")
			continue
		}
		if info.IsDir() {
			if err := w.watchDirectory(path); err != nil {
				w.logger.Warn().Err(err).Str("path", path).Msg("cannot watch directory")
			}
		} else if err := watcher.Add(path); err != nil {
			w.logger.Warn().Err(err).Str("path", path).Msg("cannot watch file")
		}
	}
	w.logger.Info().Int("paths", len(paths)).Msg("watching for source changes")

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 || !isHDLFile(event.Name) {
				continue
			}
			w.logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("source changed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				if err := relint(); err != nil {
					w.logger.Error().Err(err).Msg("lint failed")
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) watchDirectory(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

func isHDLFile(path string) bool {
	for _, suffix := range hdlSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
