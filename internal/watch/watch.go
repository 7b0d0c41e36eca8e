// Package watch monitors files for changes and emits stable-file events
// for the analysis daemon.
package watch

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event is a file that has settled after modification and is ready for
// analysis.
type Event struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Options configures a Watcher.
type Options struct {
	// Paths are the files or directories to monitor.
	Paths []string

	// IncludePatterns are glob patterns matched against base names.
	// Empty means include everything.
	IncludePatterns []string

	// ExcludePatterns are glob patterns matched against base names.
	ExcludePatterns []string

	// Debounce is how long a file must be unchanged before an event fires.
	Debounce time.Duration
}

// Watcher monitors files and directories for changes, debouncing rapid
// writes so a file is analyzed once per burst of edits.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	opts      Options

	// pending maps path -> time of last observed write.
	pending   map[string]time.Time
	pendingMu sync.Mutex

	events chan Event
	errors chan error

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a new file watcher.
func New(opts Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		opts:      opts,
		pending:   make(map[string]time.Time),
		events:    make(chan Event, 64),
		errors:    make(chan error, 8),
		done:      make(chan struct{}),
	}, nil
}

// Events returns the channel of stable-file events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Start begins watching all configured paths.
func (w *Watcher) Start() error {
	for _, path := range w.opts.Paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		info, err := os.Stat(absPath)
		if err != nil {
			return err
		}

		if info.IsDir() {
			if err := w.fsWatcher.Add(absPath); err != nil {
				return err
			}
			continue
		}

		// Single files are watched through their parent directory;
		// editors replace files rather than writing in place.
		if err := w.fsWatcher.Add(filepath.Dir(absPath)); err != nil {
			return err
		}
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop gracefully shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return w.fsWatcher.Close()
}

// Accepts reports whether path passes the include/exclude filters.
func (w *Watcher) Accepts(path string) bool {
	name := filepath.Base(path)

	for _, pattern := range w.opts.ExcludePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return false
		}
	}

	if len(w.opts.IncludePatterns) == 0 {
		return true
	}
	for _, pattern := range w.opts.IncludePatterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !w.Accepts(event.Name) {
				continue
			}
			info, err := os.Stat(event.Name)
			if err != nil || info.IsDir() {
				continue
			}

			w.pendingMu.Lock()
			w.pending[event.Name] = time.Now()
			w.pendingMu.Unlock()

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// debounceLoop fires events for files untouched for the debounce window.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	tick := w.opts.Debounce / 4
	if tick < 100*time.Millisecond {
		tick = 100 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			w.flushStable(now)
		}
	}
}

func (w *Watcher) flushStable(now time.Time) {
	threshold := now.Add(-w.opts.Debounce)

	var stable []string
	w.pendingMu.Lock()
	for path, lastWrite := range w.pending {
		if lastWrite.Before(threshold) {
			stable = append(stable, path)
			delete(w.pending, path)
		}
	}
	w.pendingMu.Unlock()

	for _, path := range stable {
		info, err := os.Stat(path)
		if err != nil {
			select {
			case w.errors <- err:
			default:
			}
			continue
		}

		select {
		case w.events <- Event{Path: path, Size: info.Size(), ModTime: info.ModTime()}:
		case <-w.done:
			return
		}
	}
}
