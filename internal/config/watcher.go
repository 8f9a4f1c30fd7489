package config

import (
	"path/filepath"
	"sync"
	"time"

	"cloutfarm/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the config file and re-applies logging settings when it
// changes. Only logging settings are hot-reloadable; everything else needs a
// restart.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	path        string
	lastApplied time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the given config file path.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:     fw,
		path:        path,
		debounceDur: 500 * time.Millisecond, // Debounce rapid editor saves
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; events are handled in a goroutine.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	// Watch the directory, not the file: editors often replace the file,
	// which drops a direct file watch.
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	go w.loop()
	return nil
}

func (w *Watcher) loop() {
	defer close(w.doneCh)
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			w.mu.Lock()
			if time.Since(w.lastApplied) < w.debounceDur {
				w.mu.Unlock()
				continue
			}
			w.lastApplied = time.Now()
			w.mu.Unlock()

			cfg, err := Load(w.path)
			if err != nil {
				logging.Get(logging.CategoryBoot).Warn("config reload failed: %v", err)
				continue
			}
			logging.Configure(logging.Settings{
				DebugMode:  cfg.Logging.DebugMode,
				Level:      cfg.Logging.Level,
				Categories: cfg.Logging.Categories,
			})
			logging.Boot("logging settings reloaded from %s", w.path)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryBoot).Warn("config watcher error: %v", err)
		}
	}
}

// Stop stops watching and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	_ = w.watcher.Close()
	<-w.doneCh
}
