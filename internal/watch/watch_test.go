package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, opts Options) *Watcher {
	t.Helper()
	w, err := New(opts)
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	t.Cleanup(func() { w.fsWatcher.Close() })
	return w
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		name     string
		include  []string
		exclude  []string
		path     string
		expected bool
	}{
		{
			name:     "no filters accepts everything",
			path:     "/data/whatever.bin",
			expected: true,
		},
		{
			name:     "include match",
			include:  []string{"*.bits", "*.txt"},
			path:     "/data/sample.bits",
			expected: true,
		},
		{
			name:     "include miss",
			include:  []string{"*.bits"},
			path:     "/data/sample.csv",
			expected: false,
		},
		{
			name:     "exclude wins over include",
			include:  []string{"*.txt"},
			exclude:  []string{"*.tmp", "*~"},
			path:     "/data/draft.txt~",
			expected: false,
		},
		{
			name:     "hidden files excluded",
			exclude:  []string{".*"},
			path:     "/data/.hidden",
			expected: false,
		},
		{
			name:     "pattern matches base name not directory",
			include:  []string{"*.bits"},
			path:     "/some.bits/readme.md",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWatcher(t, Options{
				IncludePatterns: tt.include,
				ExcludePatterns: tt.exclude,
			})
			if got := w.Accepts(tt.path); got != tt.expected {
				t.Errorf("Accepts(%q) = %v, want %v", tt.path, got, tt.expected)
			}
		})
	}
}

func TestDebounceDefault(t *testing.T) {
	w := newTestWatcher(t, Options{})
	if w.opts.Debounce != 2*time.Second {
		t.Errorf("default debounce = %v, want 2s", w.opts.Debounce)
	}

	w = newTestWatcher(t, Options{Debounce: 500 * time.Millisecond})
	if w.opts.Debounce != 500*time.Millisecond {
		t.Errorf("debounce = %v, want 500ms", w.opts.Debounce)
	}
}

func TestFlushStable(t *testing.T) {
	dir := t.TempDir()
	stablePath := filepath.Join(dir, "stable.bits")
	freshPath := filepath.Join(dir, "fresh.bits")
	for _, p := range []string{stablePath, freshPath} {
		if err := os.WriteFile(p, []byte("1010"), 0600); err != nil {
			t.Fatal(err)
		}
	}

	w := newTestWatcher(t, Options{Debounce: time.Second})

	now := time.Now()
	w.pending[stablePath] = now.Add(-2 * time.Second)
	w.pending[freshPath] = now

	w.flushStable(now)

	select {
	case ev := <-w.events:
		if ev.Path != stablePath {
			t.Errorf("event path = %q, want %q", ev.Path, stablePath)
		}
		if ev.Size != 4 {
			t.Errorf("event size = %d, want 4", ev.Size)
		}
	default:
		t.Fatal("no event for stable file")
	}

	// The fresh file is still pending, the stable one is not.
	if _, ok := w.pending[stablePath]; ok {
		t.Error("stable file still pending")
	}
	if _, ok := w.pending[freshPath]; !ok {
		t.Error("fresh file was flushed early")
	}
}

func TestFlushStableMissingFile(t *testing.T) {
	w := newTestWatcher(t, Options{Debounce: time.Second})

	gone := filepath.Join(t.TempDir(), "deleted.bits")
	now := time.Now()
	w.pending[gone] = now.Add(-2 * time.Second)

	w.flushStable(now)

	select {
	case err := <-w.errors:
		if err == nil {
			t.Error("nil error for missing file")
		}
	default:
		t.Fatal("expected an error for the missing file")
	}

	select {
	case ev := <-w.events:
		t.Errorf("unexpected event %+v", ev)
	default:
	}
}

func TestStartStop(t *testing.T) {
	dir := t.TempDir()
	w, err := New(Options{
		Paths:    []string{dir},
		Debounce: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	if err := w.Start(); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	// Channels close on Stop.
	if _, ok := <-w.Events(); ok {
		t.Error("events channel still open after Stop")
	}
}

func TestStartUnknownPath(t *testing.T) {
	w := newTestWatcher(t, Options{
		Paths: []string{filepath.Join(t.TempDir(), "does-not-exist")},
	})
	if err := w.Start(); err == nil {
		t.Fatal("expected error for missing path")
	}
}
