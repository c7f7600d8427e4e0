// Package watch reports changes to description files under a set of roots.
//
// Directories are watched rather than files so that editors that save by renaming
// keep being tracked. Events are collected until the tree has been quiet for the
// debounce interval and then delivered as one batch.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/l3aro/go-multifn/internal/log"
)

// Options configures a Watcher.
type Options struct {
	Extension string        // Files under a watched directory must end in this suffix
	Debounce  time.Duration // Quiet period before a batch is delivered
	Logger    log.Logger
}

// DefaultOptions returns options for ".proc.yaml" files with a 100ms debounce.
func DefaultOptions() Options {
	return Options{
		Extension: ".proc.yaml",
		Debounce:  100 * time.Millisecond,
		Logger:    log.Nop(),
	}
}

// Watcher watches description files and the directories below a set of roots.
type Watcher struct {
	fs    *fsnotify.Watcher
	opts  Options
	files map[string]bool // Explicitly named files
	roots []string        // Watched directory trees
}

// New starts watching paths. Files are matched exactly whatever their extension;
// directories are watched recursively for files with the configured extension.
func New(paths []string, opts Options) (*Watcher, error) {
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{fs: fw, opts: opts, files: make(map[string]bool)}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("getting absolute path: %w", err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("cannot access %s: %w", p, err)
		}
		if !info.IsDir() {
			w.files[abs] = true
			if err := fw.Add(filepath.Dir(abs)); err != nil {
				fw.Close()
				return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
			}
			continue
		}
		w.roots = append(w.roots, abs)
		if err := w.addTree(abs); err != nil {
			fw.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches dir and every non-hidden directory below it.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run delivers batches of changed file paths to onChange until ctx is done or the
// underlying watcher fails. Paths are absolute, sorted and unique; a batch may name
// files that have since been removed.
func (w *Watcher) Run(ctx context.Context, onChange func(changed []string)) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.opts.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && w.underRoot(event.Name) {
					if err := w.addTree(event.Name); err != nil {
						w.opts.Logger.Warn("watching new directory", "path", event.Name, "err", err)
					}
					continue
				}
			}
			if !w.matches(event.Name) {
				continue
			}
			w.opts.Logger.Debug("file event", "path", event.Name, "op", event.Op.String())
			pending[event.Name] = struct{}{}
			timer.Reset(w.opts.Debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watching: %w", err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for p := range pending {
				changed = append(changed, p)
			}
			sort.Strings(changed)
			pending = make(map[string]struct{})
			onChange(changed)
		}
	}
}

func (w *Watcher) matches(path string) bool {
	if w.files[path] {
		return true
	}
	return strings.HasSuffix(path, w.opts.Extension) && w.underRoot(path)
}

func (w *Watcher) underRoot(path string) bool {
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
