package config

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadDelay is how long the watcher waits for writes to settle.
const ReloadDelay = 500 * time.Millisecond

// OnReload is called with a freshly loaded and validated configuration.
type OnReload func(*Config)

// Watcher reloads the config file when it changes on disk.
type Watcher struct {
	path     string
	callback OnReload
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	stop     chan struct{}
	once     sync.Once
}

// Watch starts watching path. The parent directory is watched so that
// editors replacing the file by rename are noticed.
func Watch(path string, cb OnReload) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     filepath.Clean(path),
		callback: cb,
		watcher:  fw,
		stop:     make(chan struct{}),
	}
	go w.eventLoop()
	log.Printf("[config] watching %s", path)
	return w, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.once.Do(func() {
		close(w.stop)
		w.watcher.Close()

		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[config] watch error: %v", err)
		case <-w.stop:
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(ReloadDelay, w.reload)
}

func (w *Watcher) reload() {
	select {
	case <-w.stop:
		return
	default:
	}

	cfg, err := LoadFromFile(w.path)
	if err != nil {
		log.Printf("[config] reload failed: %v", err)
		return
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Printf("[config] reloaded config rejected: %v", err)
		return
	}

	log.Printf("[config] reloaded %s", w.path)
	w.callback(cfg)
}
