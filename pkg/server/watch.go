package server

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/marmos91/localmedia/internal/logger"
)

// contentWatcher reports changes to one file. It watches the parent
// directory so replacements by rename are seen too.
type contentWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
}

func watchContent(path string, onChange func(fsnotify.Op)) (*contentWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, err
	}

	cw := &contentWatcher{watcher: w, path: filepath.Clean(path), done: make(chan struct{})}
	go cw.run(onChange)
	return cw, nil
}

func (cw *contentWatcher) run(onChange func(fsnotify.Op)) {
	defer close(cw.done)

	for {
		select {
		case event, ok := <-cw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != cw.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) ||
				event.Has(fsnotify.Rename) || event.Has(fsnotify.Create) {
				onChange(event.Op)
			}
		case err, ok := <-cw.watcher.Errors:
			if !ok {
				return
			}
			logger.Debug("Content watch error", logger.KeyPath, cw.path, logger.Err(err))
		}
	}
}

// Close stops the watcher and waits for its goroutine.
func (cw *contentWatcher) Close() {
	if err := cw.watcher.Close(); err != nil {
		logger.Debug("Error closing content watcher", logger.Err(err))
	}
	<-cw.done
}

func (s *Server) onContentChange(path string, op fsnotify.Op) {
	// Only the first change is logged; the length stays the one measured
	// by Prepare either way.
	if s.contentChanged.Swap(true) {
		return
	}
	logger.Warn("Content changed after prepare, served length may be stale",
		logger.KeyPath, path, "op", op.String())
}
