package sheet

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// Watcher reports changes to sprite sheet manifests so development tools
// can rebuild masks without restarting. Events carries the path of a
// changed manifest, debounced against editor double-writes.
type Watcher struct {
	Events chan string
	Errors chan error

	fsw   *fsnotify.Watcher
	files map[string]struct{}
	done  chan struct{}
	once  sync.Once
}

// Watch starts watching the given manifest files. The parent directories
// are registered so that rename-over-save editors are seen too.
func Watch(manifests ...string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not start file watcher: %w", err)
	}

	w := &Watcher{
		Events: make(chan string, 16),
		Errors: make(chan error, 1),
		fsw:    fsw,
		files:  make(map[string]struct{}, len(manifests)),
		done:   make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, m := range manifests {
		abs, err := filepath.Abs(m)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("invalid manifest path %q: %w", m, err)
		}
		w.files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("could not watch folder %q: %w", dir, err)
		}
	}

	go w.run()
	return w, nil
}

// Close stops the watcher. Events is closed once the internal loop exits.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.Events)

	last := make(map[string]time.Time)
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			if _, watched := w.files[abs]; !watched {
				continue
			}
			now := time.Now()
			if t, seen := last[abs]; seen && now.Sub(t) < debounce {
				continue
			}
			last[abs] = now
			select {
			case w.Events <- abs:
			case <-w.done:
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.done:
			return
		}
	}
}
