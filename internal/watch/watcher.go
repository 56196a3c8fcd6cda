package watch

import (
	"os"
	"sync"
	"time"

	"sciv/internal/errors"
	"sciv/internal/files"
	"sciv/internal/log"

	"github.com/fsnotify/fsnotify"
)

// BatchHandler receives the events collected during one quiet period.
type BatchHandler func(batch []files.Event)

// DirWatcher reports changes to the entries of one directory. Events are
// collected until the directory has been quiet for the debounce delay and
// then delivered together, with rename pairs joined into one event.
type DirWatcher struct {
	// Directory being watched
	dir string

	// Quiet period before a batch is delivered
	delay time.Duration

	handler BatchHandler

	// fsnotify watcher instance
	fsWatcher *fsnotify.Watcher

	// Channel to signal stop, and one closed when the loop exits
	stopChan chan struct{}
	done     chan struct{}

	// Lock for running state
	mutex sync.Mutex

	// Whether the watcher is running
	running bool
}

// NewDirWatcher creates a watcher on dir. Nothing is delivered until Start.
func NewDirWatcher(dir string, delay time.Duration, handler BatchHandler) (*DirWatcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.NewFileError("error accessing directory", dir, errors.WatchFailed, err)
	}
	if !info.IsDir() {
		return nil, errors.NewFileError("not a directory", dir, errors.WatchFailed, nil)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewFileError("failed to create fsnotify watcher", dir, errors.WatchFailed, err)
	}
	if err := fsWatcher.Add(dir); err != nil {
		fsWatcher.Close()
		return nil, errors.NewFileError("failed to add directory to watcher", dir, errors.WatchFailed, err)
	}

	if delay < 0 {
		delay = 0
	}
	return &DirWatcher{
		dir:       dir,
		delay:     delay,
		handler:   handler,
		fsWatcher: fsWatcher,
	}, nil
}

// Directory returns the watched directory.
func (w *DirWatcher) Directory() string {
	return w.dir
}

// Start begins delivering batches. The handler runs on the watcher's own
// goroutine and must not call Stop.
func (w *DirWatcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running {
		return errors.New("watcher already running")
	}
	if w.fsWatcher == nil {
		return errors.NewFileError("watcher already stopped", w.dir, errors.WatchFailed, nil)
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.done = make(chan struct{})

	go w.loop(w.fsWatcher, w.stopChan, w.done)

	log.LogWithFields(log.F("directory", w.dir), log.F("debounce", w.delay.String())).Info("Watching directory")
	return nil
}

// Stop halts the watcher and waits for the event loop to exit. Pending
// events are dropped. Stop is idempotent.
func (w *DirWatcher) Stop() {
	w.mutex.Lock()
	if !w.running {
		if w.fsWatcher != nil {
			w.fsWatcher.Close()
			w.fsWatcher = nil
		}
		w.mutex.Unlock()
		return
	}
	w.running = false
	close(w.stopChan)
	done := w.done
	fsWatcher := w.fsWatcher
	w.fsWatcher = nil
	w.mutex.Unlock()

	<-done
	if err := fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("Error closing fsnotify watcher")
	}
	log.LogWithFields(log.F("directory", w.dir)).Debug("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active
func (w *DirWatcher) IsRunning() bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	return w.running
}

func (w *DirWatcher) loop(fsWatcher *fsnotify.Watcher, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	var (
		pending []files.Event
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fsWatcher.Events:
			if !ok {
				return
			}
			ev, ok := translate(event)
			if !ok {
				continue
			}
			pending = append(pending, ev)
			if timer == nil {
				timer = time.NewTimer(w.delay)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.delay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			batch := Coalesce(pending)
			pending = nil
			if len(batch) > 0 && w.handler != nil {
				w.handler(batch)
			}

		case err, ok := <-fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithFields(log.F("directory", w.dir), log.F("error", err)).Error("fsnotify watcher error")

		case <-stop:
			return
		}
	}
}

// translate maps an fsnotify event onto a collection event. For a rename
// fsnotify reports the old name; the new name arrives as a separate create.
func translate(event fsnotify.Event) (files.Event, bool) {
	switch {
	case event.Op.Has(fsnotify.Create):
		return files.Event{Kind: files.Created, Path: event.Name}, true
	case event.Op.Has(fsnotify.Remove):
		return files.Event{Kind: files.Removed, Path: event.Name}, true
	case event.Op.Has(fsnotify.Rename):
		return files.Event{Kind: files.Renamed, Path: event.Name}, true
	case event.Op.Has(fsnotify.Write), event.Op.Has(fsnotify.Chmod):
		return files.Event{Kind: files.Modified, Path: event.Name}, true
	}
	return files.Event{}, false
}

// Coalesce joins each rename source with the next creation in the batch into
// a single Renamed event with both paths, and drops repeated modifications
// of the same path.
func Coalesce(batch []files.Event) []files.Event {
	used := make([]bool, len(batch))
	out := make([]files.Event, 0, len(batch))
	modified := make(map[string]bool)

	for i, ev := range batch {
		if used[i] {
			continue
		}
		switch ev.Kind {
		case files.Renamed:
			if ev.OldPath == "" {
				for j := i + 1; j < len(batch); j++ {
					if !used[j] && batch[j].Kind == files.Created {
						used[j] = true
						ev = files.Event{Kind: files.Renamed, Path: batch[j].Path, OldPath: ev.Path}
						break
					}
				}
			}
		case files.Modified:
			if modified[ev.Path] {
				continue
			}
			modified[ev.Path] = true
		}
		out = append(out, ev)
	}
	return out
}
