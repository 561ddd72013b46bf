package config

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cea-hpc/milkcheck/internal/logging"
)

// defaultDebounce absorbs the burst of events a single `mv`/editor save
// produces (write, chmod, rename) into one reload.
const defaultDebounce = 300 * time.Millisecond

// Watcher reloads a config directory whenever a file in it is written,
// created, removed or renamed (whatever its extension), debounced so a
// single save triggers exactly one reload.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	onReload func(*File, error)

	mu    sync.Mutex
	timer *time.Timer

	stop chan struct{}
}

// Watch starts watching dir; onReload fires once per debounced burst of
// changes with the freshly reloaded File, or a non-nil error if the
// reload failed (the previous, still-valid config is left in place by
// the caller — Watch never mutates anything itself).
func Watch(dir string, onReload func(*File, error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		dir:      dir,
		watcher:  fsw,
		onReload: onReload,
		stop:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Warn("config", "watcher error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(defaultDebounce, func() {
		f, err := Load(w.dir)
		w.onReload(f, err)
	})
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.stop)
	return w.watcher.Close()
}
