// Package fswatch provides a sharenv.Watcher for a variables directory and
// optional companion files using fsnotify.
package fswatch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/zoobzio/sharenv"
)

// Watcher watches a directory and a set of individual files for changes.
// Individual files are watched through their parent directory so that
// editors replacing a file by rename are observed.
type Watcher struct {
	dir   string
	files []string
}

// New creates a Watcher for dir and any additional files.
func New(dir string, files ...string) *Watcher {
	w := &Watcher{dir: absPath(dir)}
	for _, f := range files {
		if f != "" {
			w.files = append(w.files, absPath(f))
		}
	}
	return w
}

// Watch begins watching and returns a channel that emits a Change for every
// create, write, remove, rename or chmod inside the directory and for every
// change to one of the files. The channel is closed when the context is
// canceled, when the directory itself is removed or renamed, or when
// fsnotify reports an unrecoverable error.
func (w *Watcher) Watch(ctx context.Context) (<-chan sharenv.Change, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory %s: %w", w.dir, err)
	}
	for _, f := range w.files {
		parent := filepath.Dir(f)
		if parent == w.dir {
			continue
		}
		if err := watcher.Add(parent); err != nil {
			watcher.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", f, err)
		}
	}

	out := make(chan sharenv.Change)

	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if w.gone(event) {
					return
				}
				if !w.relevant(event.Name) {
					continue
				}

				select {
				case out <- toChange(event):
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				if !errors.Is(err, fsnotify.ErrEventOverflow) {
					return
				}
				// Events were dropped; ask for a full reload.
				select {
				case out <- sharenv.Change{Path: w.dir, Op: "overflow"}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// gone reports whether event means the watched directory no longer exists.
func (w *Watcher) gone(event fsnotify.Event) bool {
	return filepath.Clean(event.Name) == w.dir &&
		event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	if filepath.Dir(name) == w.dir {
		return true
	}
	for _, f := range w.files {
		if name == f {
			return true
		}
	}
	return false
}

func toChange(event fsnotify.Event) sharenv.Change {
	return sharenv.Change{
		Path: event.Name,
		Op:   strings.ToLower(event.Op.String()),
	}
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}

// Ensure Watcher implements sharenv.Watcher.
var _ sharenv.Watcher = (*Watcher)(nil)
