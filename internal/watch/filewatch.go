package watch

import (
	"path/filepath"
	"sync"

	"sciv/internal/errors"
	"sciv/internal/files"
	"sciv/internal/log"

	"github.com/fsnotify/fsnotify"
)

// Subscription follows content and attribute changes of a single file
// until cancelled.
type Subscription struct {
	path      string
	fsWatcher *fsnotify.Watcher
	stop      chan struct{}
	done      chan struct{}
	once      sync.Once
}

// WatchFile calls handler with a Modified event whenever path is written,
// has its attributes changed, or is replaced in place. The parent directory
// is watched so that editors saving through a temporary file are seen.
func WatchFile(path string, handler func(files.Event)) (*Subscription, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewFileError("failed to create fsnotify watcher", path, errors.WatchFailed, err)
	}
	if err := fsWatcher.Add(filepath.Dir(path)); err != nil {
		fsWatcher.Close()
		return nil, errors.NewFileError("failed to watch file", path, errors.WatchFailed, err)
	}

	s := &Subscription{
		path:      path,
		fsWatcher: fsWatcher,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.loop(handler)
	log.LogWithFields(log.F("path", path)).Debug("Following file")
	return s, nil
}

// Path returns the followed file.
func (s *Subscription) Path() string {
	return s.path
}

// Cancel stops the subscription. It does not wait for a handler call that
// is already running, so it may be called from inside the handler. It is
// safe to call more than once.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		close(s.stop)
		if err := s.fsWatcher.Close(); err != nil {
			log.LogWithFields(log.F("path", s.path), log.F("error", err)).Error("Error closing file watch")
		}
	})
}

// Done is closed once the subscription's goroutine has exited.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) loop(handler func(files.Event)) {
	defer close(s.done)
	for {
		select {
		case event, ok := <-s.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path {
				continue
			}
			if !(event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Chmod) || event.Op.Has(fsnotify.Create)) {
				continue
			}
			select {
			case <-s.stop:
				return
			default:
			}
			handler(files.Event{Kind: files.Modified, Path: s.path})
		case err, ok := <-s.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("path", s.path), log.F("error", err)).Error("fsnotify watcher error")
		case <-s.stop:
			return
		}
	}
}
