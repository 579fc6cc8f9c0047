// Package watcher reloads checklist definitions when their file changes.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// RefreshMsg is sent into a Bubble Tea program when a watched definition
// file settles after a change.
type RefreshMsg struct {
	Path string
}

// ErrorMsg is sent into a Bubble Tea program when fsnotify reports an error
type ErrorMsg struct {
	Error error
}

// Handler receives change notifications. err is non-nil for watcher errors.
type Handler func(path string, err error)

// Watcher debounces fsnotify events for a set of files
type Watcher struct {
	fs       *fsnotify.Watcher
	handler  Handler
	paths    []string
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
	changed string
}

// New creates a watcher that calls handler after debounce of quiet
func New(debounce time.Duration, handler Handler) *Watcher {
	return &Watcher{
		debounce: debounce,
		handler:  handler,
	}
}

// ForProgram returns a handler that forwards notifications to p as
// RefreshMsg and ErrorMsg.
func ForProgram(p *tea.Program) Handler {
	return func(path string, err error) {
		if err != nil {
			p.Send(ErrorMsg{Error: err})
			return
		}
		p.Send(RefreshMsg{Path: path})
	}
}

// AddPath adds a file to watch
func (w *Watcher) AddPath(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	w.paths = append(w.paths, path)

	if w.running {
		_ = w.fs.Add(filepath.Dir(path))
	}
}

// Start begins watching. Directories are watched rather than files so that
// editors which replace the file on save are still seen.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	for _, path := range w.paths {
		_ = fs.Add(filepath.Dir(path))
	}

	w.fs = fs
	w.running = true
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})

	go w.run(fs, w.stopCh, w.done)
	return nil
}

// Stop stops watching and waits for the event loop to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	close(w.stopCh)
	done := w.done
	err := w.fs.Close()
	w.mu.Unlock()

	<-done
	return err
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(fs *fsnotify.Watcher, stop, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-stop:
			return

		case event, ok := <-fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path, ok := w.match(event.Name)
			if !ok {
				continue
			}

			w.mu.Lock()
			w.changed = path
			w.mu.Unlock()
			timer.Reset(w.debounce)

		case <-timer.C:
			w.mu.Lock()
			path := w.changed
			w.changed = ""
			w.mu.Unlock()

			if path != "" && w.handler != nil {
				w.handler(path, nil)
			}

		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			if w.handler != nil {
				w.handler("", err)
			}
		}
	}
}

// match returns the watched path an event refers to
func (w *Watcher) match(name string) (string, bool) {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, p := range w.paths {
		if p == abs {
			return p, true
		}
	}
	return "", false
}
