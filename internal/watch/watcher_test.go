package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/goleak"
)

func TestWatcher_DebouncesAndFilters(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "a.yaml")
	if err := os.WriteFile(target, []byte("name: a\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := New([]string{target}, WithExtensions(".yaml"), WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) { changes <- paths })
	}()

	// several writes within one window, plus an ignored extension
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte("name: b\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changes:
		if len(paths) != 1 || paths[0] != target {
			t.Errorf("changed paths = %v, want [%s]", paths, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_FilePathIgnoresSiblings(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	target := filepath.Join(dir, "a.yaml")
	sibling := filepath.Join(dir, "b.yaml")
	for _, p := range []string{target, sibling} {
		if err := os.WriteFile(p, []byte("name: x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	w, err := New([]string{target}, WithExtensions(".yaml"), WithDebounce(50*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if w.relevant(fsnotify.Event{Name: sibling, Op: fsnotify.Write}) {
		t.Error("sibling of a watched file should be ignored")
	}
	if !w.relevant(fsnotify.Event{Name: target, Op: fsnotify.Write}) {
		t.Error("watched file should be relevant")
	}

	ctx, cancel := context.WithCancel(context.Background())
	changes := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(paths []string) { changes <- paths })
	}()

	if err := os.WriteFile(sibling, []byte("name: y\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, []byte("name: y\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changes:
		if len(paths) != 1 || paths[0] != target {
			t.Errorf("changed paths = %v, want [%s]", paths, target)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_DirectoryReportsAnyMatch(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, WithExtensions(".yaml", ".yml"))
	if err != nil {
		t.Fatal(err)
	}
	defer w.fs.Close()

	if !w.relevant(fsnotify.Event{Name: filepath.Join(dir, "new.yml"), Op: fsnotify.Create}) {
		t.Error("new scenario in a watched directory should be relevant")
	}
	if w.relevant(fsnotify.Event{Name: filepath.Join(dir, "notes.txt"), Op: fsnotify.Create}) {
		t.Error("extension filter should still apply")
	}
}

func TestNew_MissingDir(t *testing.T) {
	if _, err := New([]string{filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatal("expected error for missing directory")
	}
}
