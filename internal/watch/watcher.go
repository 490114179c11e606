// Package watch reruns work when the manifests of a project directory change.
package watch

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounce = 100 * time.Millisecond

// Change names a manifest file that was written, created or removed.
type Change struct {
	File string // Absolute path
}

// Watcher monitors a project directory for manifest changes using fsnotify.
type Watcher struct {
	Dir     string
	Changes <-chan Change // Read-only external channel

	files   map[string]bool
	changes chan Change
	done    chan struct{}
	watcher *fsnotify.Watcher
	log     *zap.Logger
}

// NewWatcher creates a watcher reporting changes of the given file names inside dir.
func NewWatcher(dir string, log *zap.Logger, files ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	names := make(map[string]bool, len(files))
	for _, f := range files {
		names[f] = true
	}

	ch := make(chan Change, 16)
	return &Watcher{
		Dir:     dir,
		Changes: ch,
		files:   names,
		changes: ch,
		done:    make(chan struct{}),
		watcher: fw,
		log:     log,
	}, nil
}

// Start begins watching the directory.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Dir); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

// Run calls fn once and again after every change until ctx is done or fn fails.
func (w *Watcher) Run(ctx context.Context, fn func(context.Context) error) error {
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	if err := fn(ctx); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-w.Changes:
			if !ok {
				return nil
			}
			w.log.Info("manifest changed", zap.String("file", c.File))
			if err := fn(ctx); err != nil {
				return err
			}
		}
	}
}

func (w *Watcher) loop() {
	defer close(w.done)

	// Debounce: track last event time per file.
	pending := make(map[string]time.Time)
	ticker := time.NewTicker(debounce)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				for file := range pending {
					w.emit(file)
				}
				return
			}
			if !w.files[filepath.Base(event.Name)] {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[event.Name] = time.Now()
			}

		case now := <-ticker.C:
			for file, t := range pending {
				if now.Sub(t) >= debounce {
					w.emit(file)
					delete(pending, file)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) emit(file string) {
	abs, err := filepath.Abs(file)
	if err != nil {
		abs = file
	}
	select {
	case w.changes <- Change{File: abs}:
	default:
		w.log.Debug("change dropped, queue full", zap.String("file", abs))
	}
}
