package offline

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"
)

// memoryPath is the in-memory database path used by tests. It skips directory
// probing and invalidation watching, which only make sense for a real file.
const memoryPath = ":memory:"

// Handle is the process-wide lazily-initialized owner of the offline store.
// The first Acquire opens the database; concurrent callers share the same
// in-flight open and the same resulting store. If the database file is removed
// or replaced by another process, the handle closes itself and the next
// Acquire reopens transparently.
//
// If the environment cannot host durable storage (store directory not
// creatable, open or migration failure), the handle degrades to a sticky
// unsupported state: logged once, never surfaced as an error. Every
// higher-level operation then becomes a safe no-op (see Service).
type Handle struct {
	path   string
	logger *slog.Logger

	group singleflight.Group

	mu          sync.Mutex
	store       *Store
	watcher     *fsnotify.Watcher
	unsupported bool
}

// NewHandle returns a handle for the database at path. The database is not
// opened until the first Acquire.
func NewHandle(path string, logger *slog.Logger) *Handle {
	return &Handle{path: path, logger: logger}
}

// Acquire returns the open store, opening it on first use. The second return
// is false when durable storage is unsupported in this environment; callers
// must then degrade to no-op behavior.
func (h *Handle) Acquire() (*Store, bool) {
	h.mu.Lock()

	if h.unsupported {
		h.mu.Unlock()
		return nil, false
	}

	if h.store != nil {
		store := h.store
		h.mu.Unlock()

		return store, true
	}

	h.mu.Unlock()

	// Concurrent callers observe the same in-flight open.
	v, err, _ := h.group.Do("open", func() (any, error) {
		return h.open()
	})
	if err != nil {
		return nil, false
	}

	store, ok := v.(*Store)
	if !ok || store == nil {
		return nil, false
	}

	return store, true
}

// Supported reports whether durable storage is available. It triggers the
// initial open if that has not happened yet.
func (h *Handle) Supported() bool {
	_, ok := h.Acquire()
	return ok
}

// open creates the store directory, opens the database, and starts the
// invalidation watcher. Any failure degrades the handle to unsupported;
// initialization never propagates an error to callers.
func (h *Handle) open() (*Store, error) {
	if h.path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(h.path), 0o700); err != nil {
			return nil, h.degrade("creating store directory", err)
		}
	}

	store, err := NewStore(h.path, h.logger)
	if err != nil {
		return nil, h.degrade("opening store", err)
	}

	h.mu.Lock()
	h.store = store
	h.mu.Unlock()

	if h.path != memoryPath {
		h.watchInvalidation()
	}

	return store, nil
}

// degrade records the sticky unsupported state, logging the cause once.
func (h *Handle) degrade(what string, err error) error {
	h.logger.Warn("offline storage unavailable, degrading to no-op",
		slog.String("cause", what),
		slog.String("path", h.path),
		slog.String("error", err.Error()),
	)

	h.mu.Lock()
	h.unsupported = true
	h.mu.Unlock()

	return err
}

// watchInvalidation watches the database file's directory and closes the
// handle when the file is removed, renamed, or replaced from under us.
// Watch setup failure only costs invalidation detection, so it is logged,
// not fatal.
func (h *Handle) watchInvalidation() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		h.logger.Warn("cannot watch store for invalidation", "error", err)
		return
	}

	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		h.logger.Warn("cannot watch store directory", "error", err)
		watcher.Close()

		return
	}

	h.mu.Lock()
	h.watcher = watcher
	h.mu.Unlock()

	go h.watchLoop(watcher)
}

// watchLoop processes fsnotify events until the watcher closes.
func (h *Handle) watchLoop(watcher *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			if event.Name != h.path {
				continue
			}

			// Create covers an atomic replace: another process renaming a
			// fresh database over our path surfaces as Create, not Rename.
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
				h.logger.Warn("store invalidated externally",
					slog.String("path", h.path), slog.String("op", event.Op.String()))
				h.Invalidate()

				return
			}

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return
			}

			h.logger.Warn("store watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

// Invalidate closes the current store so the next Acquire reopens it.
// In-flight operations on the old store may fail and must be retried by the
// caller.
func (h *Handle) Invalidate() {
	h.mu.Lock()
	store := h.store
	watcher := h.watcher
	h.store = nil
	h.watcher = nil
	h.mu.Unlock()

	if watcher != nil {
		watcher.Close()
	}

	if store != nil {
		if err := store.Close(); err != nil {
			h.logger.Warn("closing invalidated store", "error", err)
		}
	}
}

// Close releases the store and watcher. The handle can be reused; a later
// Acquire reopens the database.
func (h *Handle) Close() {
	h.Invalidate()
}
