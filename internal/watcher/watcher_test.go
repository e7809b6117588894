package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/techdocs/internal/storage"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) has(op Op, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.Op == op && e.Path == path {
			return true
		}
	}
	return false
}

func (r *recorder) any(pred func(Event) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if pred(e) {
			return true
		}
	}
	return false
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func startWatcher(t *testing.T, root string) *recorder {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.Cleanup(func() {
		cancel()
		<-done
	})

	go func() {
		defer close(done)
		_ = Watch(ctx, Options{
			Root:     root,
			Ignore:   DefaultIgnore,
			Debounce: 50 * time.Millisecond,
			Logger:   logger,
		}, rec.handle)
	}()

	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatch_CreateUpdateDelete(t *testing.T) {
	root := t.TempDir()
	rec := startWatcher(t, root)

	file := filepath.Join(root, "new.md")
	_ = os.WriteFile(file, []byte("# New"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpCreated, "new.md")
	}, "expected created:new.md")

	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = f.WriteString("\nmore")
	_ = f.Close()
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpUpdated, "new.md")
	}, "expected updated:new.md")

	_ = os.Remove(file)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpDeleted, "new.md")
	}, "expected deleted:new.md")
}

func TestWatch_AtomicOverwriteIsUpdate(t *testing.T) {
	root := t.TempDir()
	_ = os.WriteFile(filepath.Join(root, "a.md"), []byte("# A"), 0o644)
	_ = os.MkdirAll(filepath.Join(root, "sub"), 0o755)
	_ = os.WriteFile(filepath.Join(root, "sub", "b.md"), []byte("# B"), 0o644)
	rec := startWatcher(t, root)

	store, err := storage.NewFS(root)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if err := store.Write("a.md", []byte("# A v2")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := store.Write("sub/b.md", []byte("# B v2")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpUpdated, "a.md") && rec.has(OpUpdated, "sub/b.md")
	}, "expected updated:a.md and updated:sub/b.md")
	if rec.has(OpCreated, "a.md") || rec.has(OpCreated, "sub/b.md") {
		t.Error("overwrite of an existing document reported as created")
	}

	// A new document saved the same way is still a creation.
	if err := store.Write("c.md", []byte("# C")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpCreated, "c.md")
	}, "expected created:c.md")
}

func TestWatch_IgnoresNonMarkdownAndHidden(t *testing.T) {
	root := t.TempDir()
	rec := startWatcher(t, root)

	_ = os.WriteFile(filepath.Join(root, "image.png"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, ".draft.md"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "visible.md"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpCreated, "visible.md")
	}, "expected created:visible.md")

	if rec.any(func(e Event) bool { return e.Path == "image.png" || e.Path == ".draft.md" }) {
		t.Error("ignored paths produced events")
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	root := t.TempDir()
	rec := startWatcher(t, root)

	sub := filepath.Join(root, "subdir")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpCreated, "subdir/deep.md")
	}, "file in new subdir not reported")
}

func TestWatch_DirRemoved(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "old")
	_ = os.MkdirAll(sub, 0o755)
	_ = os.WriteFile(filepath.Join(sub, "a.md"), []byte("a"), 0o644)
	rec := startWatcher(t, root)

	_ = os.RemoveAll(sub)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpDirRemoved, "old")
	}, "expected dir_removed:old")
}

func TestWatch_RenameSchedulesResync(t *testing.T) {
	root := t.TempDir()
	_ = os.WriteFile(filepath.Join(root, "old.md"), []byte("# Rename"), 0o644)
	rec := startWatcher(t, root)

	_ = os.Rename(filepath.Join(root, "old.md"), filepath.Join(root, "renamed.md"))

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpDeleted, "old.md") && rec.has(OpCreated, "renamed.md")
	}, "expected rename to report old path deleted and new path created")
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return rec.has(OpResync, "")
	}, "expected a resync after rename")
}

func TestValidatePatterns(t *testing.T) {
	if err := ValidatePatterns(DefaultIgnore); err != nil {
		t.Fatalf("default patterns invalid: %v", err)
	}
	if err := ValidatePatterns([]string{"[unterminated"}); err == nil {
		t.Error("expected error for malformed pattern")
	}
}
