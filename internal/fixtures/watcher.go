package fixtures

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/hmans/larder/internal/assets"
	"github.com/hmans/larder/internal/store"
)

const debounceDelay = 100 * time.Millisecond

// EventType represents the type of change applied from a fixture file.
type EventType int

const (
	// EventApplied indicates a fixture was created or changed and written to the store.
	EventApplied EventType = iota
	// EventRemoved indicates a fixture file was deleted and its record removed.
	EventRemoved
)

// String returns a human-readable representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventApplied:
		return "applied"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event describes one fixture change that reached the store.
type Event struct {
	Type    EventType
	Path    string
	Fixture *Fixture
	// Applied is set for EventApplied.
	Applied *Applied
}

type subscription struct {
	ch chan []Event
	id uint64
}

// Watcher re-applies fixture files when they change on disk.
type Watcher struct {
	dir     string
	store   *store.Store
	storage assets.Storage
	log     *logrus.Entry

	mu      sync.Mutex
	known   map[string]*Fixture
	done    chan struct{}
	running bool

	subMu       sync.RWMutex
	subscribers map[uint64]*subscription
	nextSubID   uint64
}

// NewWatcher creates a watcher for dir. Seed it with the fixtures that were
// already applied so removals of those files can be handled.
func NewWatcher(dir string, s *store.Store, storage assets.Storage, log *logrus.Entry) *Watcher {
	return &Watcher{
		dir:         dir,
		store:       s,
		storage:     storage,
		log:         log,
		known:       make(map[string]*Fixture),
		subscribers: make(map[uint64]*subscription),
	}
}

// Seed records fixtures that are already reflected in the store.
func (w *Watcher) Seed(fixtures []*Fixture) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, fx := range fixtures {
		w.known[filepath.Clean(fx.Path)] = fx
	}
}

// Subscribe creates a new subscription to fixture events.
// Returns the event channel and an unsubscribe function.
func (w *Watcher) Subscribe() (<-chan []Event, func()) {
	w.subMu.Lock()
	defer w.subMu.Unlock()

	id := atomic.AddUint64(&w.nextSubID, 1)
	ch := make(chan []Event, 16)
	w.subscribers[id] = &subscription{ch: ch, id: id}

	unsubscribe := func() {
		w.subMu.Lock()
		defer w.subMu.Unlock()
		if _, ok := w.subscribers[id]; ok {
			close(ch)
			delete(w.subscribers, id)
		}
	}
	return ch, unsubscribe
}

// fanOut sends events to all subscribers without blocking.
// Slow subscribers have events dropped.
func (w *Watcher) fanOut(events []Event) {
	if len(events) == 0 {
		return
	}

	w.subMu.RLock()
	defer w.subMu.RUnlock()

	for _, sub := range w.subscribers {
		select {
		case sub.ch <- events:
		default:
			w.log.Warn("dropping fixture events for slow subscriber")
		}
	}
}

// Start begins watching the fixtures directory and its subdirectories.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	err = filepath.WalkDir(w.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return err
		}
		return fsw.Add(path)
	})
	if err != nil {
		fsw.Close()
		return err
	}

	w.running = true
	w.done = make(chan struct{})
	go w.loop(fsw, w.done)

	w.log.WithField("dir", w.dir).Info("watching fixtures")
	return nil
}

// Close stops watching and closes all subscriber channels.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	close(w.done)
	w.running = false
	w.mu.Unlock()

	w.subMu.Lock()
	for id, sub := range w.subscribers {
		close(sub.ch)
		delete(w.subscribers, id)
	}
	w.subMu.Unlock()
	return nil
}

func (w *Watcher) loop(fsw *fsnotify.Watcher, done chan struct{}) {
	defer fsw.Close()

	var debounceTimer *time.Timer
	var pendingMu sync.Mutex
	pending := make(map[string]fsnotify.Op)

	for {
		select {
		case <-done:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, ".md") {
				if event.Op&fsnotify.Create != 0 {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						_ = fsw.Add(event.Name)
					}
				}
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			pendingMu.Lock()
			pending[filepath.Clean(event.Name)] |= event.Op
			pendingMu.Unlock()

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				pendingMu.Lock()
				changes := pending
				pending = make(map[string]fsnotify.Op)
				pendingMu.Unlock()

				w.handleChanges(changes)
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.log.WithError(err).Warn("fixture watcher error")
		}
	}
}

// handleChanges applies or removes the records behind the changed files.
func (w *Watcher) handleChanges(changes map[string]fsnotify.Op) {
	ctx := context.Background()

	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}

	var events []Event
	for path := range changes {
		log := w.log.WithField("path", path)
		prev := w.known[path]

		if _, err := os.Stat(path); err != nil {
			if prev == nil {
				continue
			}
			if err := Remove(ctx, w.store, prev); err != nil {
				log.WithError(err).Warn("failed to remove fixture record")
				continue
			}
			delete(w.known, path)
			events = append(events, Event{Type: EventRemoved, Path: path, Fixture: prev})
			log.Info("fixture removed")
			continue
		}

		fx, err := LoadFile(path)
		if err != nil {
			log.WithError(err).Warn("failed to load fixture")
			continue
		}
		applied, err := Apply(ctx, w.store, w.storage, []*Fixture{fx}, w.log)
		if err != nil {
			log.WithError(err).Warn("failed to apply fixture")
			continue
		}

		// The file now describes a different record; drop the old one.
		if prev != nil && (prev.Model != fx.Model || prev.ID != fx.ID) {
			if err := Remove(ctx, w.store, prev); err != nil {
				log.WithError(err).Warn("failed to remove replaced fixture record")
			} else {
				events = append(events, Event{Type: EventRemoved, Path: path, Fixture: prev})
			}
		}

		w.known[path] = fx
		events = append(events, Event{Type: EventApplied, Path: path, Fixture: fx, Applied: applied})
		log.Info("fixture applied")
	}
	w.mu.Unlock()

	w.fanOut(events)
}
