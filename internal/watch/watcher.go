// Package watch reports changes to a single file.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Debounce is how long a file must stay quiet before a change is reported.
const Debounce = 100 * time.Millisecond

// Change is a settled modification of the watched file.
type Change struct {
	Path string
	// Removed is set when the file no longer exists once events settle.
	Removed bool
}

// Watcher monitors one file. The parent directory is watched so that
// editors that replace the file on save are still seen.
type Watcher struct {
	Path    string
	Changes <-chan Change

	changes chan Change
	done    chan struct{}
	watcher *fsnotify.Watcher
	log     *zap.Logger
}

// New creates a watcher for path. Call Start to begin receiving changes.
func New(path string, log *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	// One slot: changes that arrive while the consumer is busy collapse
	// into the pending one.
	ch := make(chan Change, 1)
	return &Watcher{
		Path:    abs,
		Changes: ch,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
		log:     log,
	}, nil
}

// Start begins watching.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	go w.loop()
	return nil
}

// Stop ends watching and closes Changes.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	var pending time.Time
	ticker := time.NewTicker(Debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.Path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				w.log.Debug("file event", zap.String("path", event.Name), zap.String("op", event.Op.String()))
				pending = time.Now()
			}

		case <-ticker.C:
			if !pending.IsZero() && time.Since(pending) >= Debounce {
				pending = time.Time{}
				w.emit()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) emit() {
	_, err := os.Stat(w.Path)
	c := Change{Path: w.Path, Removed: os.IsNotExist(err)}
	select {
	case w.changes <- c:
	default:
	}
}
