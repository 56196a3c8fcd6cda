package files

import (
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"sciv/internal/errors"
	"sciv/internal/log"
)

// Option configures a Collection.
type Option func(*Collection)

// WithScanner replaces the filesystem scanner.
func WithScanner(s Scanner) Option {
	return func(c *Collection) {
		c.scanner = s
	}
}

// WithNotify sets the callback run after every change to what should be
// displayed. It runs on the goroutine that caused the change, after the
// collection lock is released, so it may read the collection.
func WithNotify(fn func()) Option {
	return func(c *Collection) {
		c.notify = fn
	}
}

// WithRand sets the source used by Random ordering.
func WithRand(r *rand.Rand) Option {
	return func(c *Collection) {
		c.rng = r
	}
}

// WithOrder sets the initial order mode.
func WithOrder(m OrderMode) Option {
	return func(c *Collection) {
		c.order = m
	}
}

// Collection is the ordered set of images in one directory plus a cursor.
//
// The cursor is -1 exactly when the collection is empty. Every operation
// that reorders or changes membership keeps the cursor on the same file
// when that file survives, and clamps it otherwise.
type Collection struct {
	mu      sync.Mutex
	dir     string
	entries []File
	cursor  int
	order   OrderMode

	scanner Scanner
	notify  func()
	rng     *rand.Rand

	// reconciling counts ReconcileWithDisk calls in flight.
	reconciling atomic.Int32
}

// New scans the directory named by pathOrFile, or the parent directory when
// it names a file, and positions the cursor on that file if it is an image.
func New(pathOrFile string, opts ...Option) (*Collection, error) {
	abs, err := filepath.Abs(pathOrFile)
	if err != nil {
		return nil, errors.NewFileError("invalid path", pathOrFile, errors.InvalidPath, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.FromOS("failed to open path", abs, err)
	}

	c := &Collection{
		dir:    abs,
		cursor: -1,
	}
	target := ""
	if !info.IsDir() {
		c.dir = filepath.Dir(abs)
		target = abs
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.scanner == nil {
		c.scanner = DefaultScanner()
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	entries, err := c.scanner.Scan(c.dir)
	if err != nil {
		return nil, err
	}
	c.order.Apply(entries, c.rng)
	c.entries = entries
	if len(entries) > 0 {
		c.cursor = 0
		if i := c.indexOf(target); i >= 0 {
			c.cursor = i
		}
	}

	log.LogWithFields(
		log.F("directory", c.dir),
		log.F("count", len(entries)),
		log.F("order", c.order.String()),
	).Debug("Collection initialized")
	return c, nil
}

// Directory returns the absolute directory the collection mirrors.
func (c *Collection) Directory() string {
	return c.dir
}

// Current returns the file under the cursor.
func (c *Collection) Current() (File, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor < 0 {
		return File{}, false
	}
	return c.entries[c.cursor], true
}

// Count returns the number of files.
func (c *Collection) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// CursorIndex returns the cursor position, or -1 when empty.
func (c *Collection) CursorIndex() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cursor
}

// Order returns the active order mode.
func (c *Collection) Order() OrderMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order
}

// Files returns a snapshot of the collection in order.
func (c *Collection) Files() []File {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]File(nil), c.entries...)
}

// Snapshot returns the cursor, the entry count and the current file read
// under one lock. ok is false when the collection is empty.
func (c *Collection) Snapshot() (cursor, count int, current File, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor < 0 {
		return -1, len(c.entries), File{}, false
	}
	return c.cursor, len(c.entries), c.entries[c.cursor], true
}

// SetCursor moves the cursor to i, clamped into range.
func (c *Collection) SetCursor(i int) {
	c.mu.Lock()
	if len(c.entries) == 0 {
		c.mu.Unlock()
		return
	}
	c.cursor = c.clamp(i)
	c.mu.Unlock()
	c.changed()
}

// Move shifts the cursor by delta, clamped into range.
func (c *Collection) Move(delta int) {
	c.mu.Lock()
	if len(c.entries) == 0 {
		c.mu.Unlock()
		return
	}
	c.cursor = c.clamp(c.cursor + delta)
	c.mu.Unlock()
	c.changed()
}

// SetOrderMode reorders the collection, keeping the cursor on the same file.
// Switching to Insertion keeps the current order.
func (c *Collection) SetOrderMode(m OrderMode) {
	c.mu.Lock()
	current := c.currentPath()
	c.order = m
	m.Apply(c.entries, c.rng)
	c.relocate(current, c.cursor)
	c.mu.Unlock()

	log.LogWithFields(log.F("order", m.String())).Debug("Order changed")
	c.changed()
}

// ReconcileWithDisk rescans the directory and merges the result.
//
// In Random mode files that survive keep their relative order and new ones
// are appended in scan order. In every other mode the scan replaces the
// entries and the active order is applied again. The cursor follows the
// previously current file by path, or is clamped when it is gone.
//
// A directory that has disappeared empties the collection and the error is
// returned for reporting.
func (c *Collection) ReconcileWithDisk() error {
	c.reconciling.Add(1)
	defer c.reconciling.Add(-1)

	c.mu.Lock()
	scanned, err := c.scanner.Scan(c.dir)
	if err != nil && !errors.IsFileNotFound(err) {
		c.mu.Unlock()
		return err
	}

	current, at := c.currentPath(), c.cursor
	if c.order == Random {
		c.entries = mergeKeepingOrder(c.entries, scanned)
	} else {
		c.order.Apply(scanned, c.rng)
		c.entries = scanned
	}
	c.relocate(current, at)
	count := len(c.entries)
	c.mu.Unlock()

	log.LogWithFields(log.F("directory", c.dir), log.F("count", count)).Debug("Collection reconciled")
	c.changed()
	return err
}

// OnSingleFileEvent applies one change without rescanning the directory.
func (c *Collection) OnSingleFileEvent(ev Event) {
	switch ev.Kind {
	case Modified:
		c.onModified(ev.Path)
	case Created:
		c.withChange(func() bool { return c.insert(ev.Path) })
	case Removed:
		c.withChange(func() bool { return c.remove(ev.Path) })
	case Renamed:
		c.withChange(func() bool { return c.rename(ev.OldPath, ev.Path) })
	}
}

// onModified refreshes the stored modification time of the current file and
// redraws. Membership never changes; only the mtime orders may move the
// entry, and the cursor stays on it. A reconciliation in flight already ends
// with a redraw, so the event is dropped.
func (c *Collection) onModified(path string) {
	if c.reconciling.Load() > 0 {
		return
	}
	c.mu.Lock()
	isCurrent := c.cursor >= 0 && c.entries[c.cursor].Path == path
	if isCurrent {
		if f, err := Stat(path); err == nil && !f.ModTime.Equal(c.entries[c.cursor].ModTime) {
			c.entries[c.cursor] = f
			if c.order == MtimeAsc || c.order == MtimeDesc {
				c.order.Apply(c.entries, c.rng)
				c.relocate(path, c.cursor)
			}
		}
	}
	c.mu.Unlock()
	if isCurrent {
		c.changed()
	}
}

func (c *Collection) withChange(apply func() bool) {
	c.mu.Lock()
	changed := apply()
	c.mu.Unlock()
	if changed {
		c.changed()
	}
}

// insert adds path if it is an image, or refreshes it if already present.
// The caller holds mu.
func (c *Collection) insert(path string) bool {
	if !c.scanner.IsImage(path) {
		return false
	}
	f, err := Stat(path)
	if err != nil {
		return false
	}

	current, at := c.currentPath(), c.cursor
	if i := c.indexOf(path); i >= 0 {
		c.entries[i] = f
	} else {
		c.entries = append(c.entries, f)
	}
	if c.order != Random {
		c.order.Apply(c.entries, c.rng)
	}
	c.relocate(current, at)
	return true
}

// remove drops path. The caller holds mu.
func (c *Collection) remove(path string) bool {
	i := c.indexOf(path)
	if i < 0 {
		return false
	}
	c.entries = append(c.entries[:i], c.entries[i+1:]...)
	switch {
	case len(c.entries) == 0:
		c.cursor = -1
	case i < c.cursor:
		c.cursor--
	default:
		c.cursor = c.clamp(c.cursor)
	}
	return true
}

// rename replaces oldPath with newPath in place. The caller holds mu.
func (c *Collection) rename(oldPath, newPath string) bool {
	if oldPath == "" {
		if _, err := os.Stat(newPath); err != nil {
			return c.remove(newPath)
		}
		return c.insert(newPath)
	}

	i := c.indexOf(oldPath)
	if i < 0 {
		return c.insert(newPath)
	}
	if !c.scanner.IsImage(newPath) {
		return c.remove(oldPath)
	}
	f, err := Stat(newPath)
	if err != nil {
		return c.remove(oldPath)
	}

	current, at := c.currentPath(), c.cursor
	if current == oldPath {
		current = newPath
	}
	c.entries[i] = f
	for j := range c.entries {
		if j != i && c.entries[j].Path == newPath {
			// renamed over an existing image
			c.entries = append(c.entries[:j], c.entries[j+1:]...)
			if j < at {
				at--
			}
			break
		}
	}
	if c.order != Random {
		c.order.Apply(c.entries, c.rng)
	}
	c.relocate(current, at)
	return true
}

func (c *Collection) changed() {
	if c.notify != nil {
		c.notify()
	}
}

func (c *Collection) currentPath() string {
	if c.cursor < 0 {
		return ""
	}
	return c.entries[c.cursor].Path
}

func (c *Collection) indexOf(path string) int {
	if path == "" {
		return -1
	}
	for i, f := range c.entries {
		if f.Path == path {
			return i
		}
	}
	return -1
}

// relocate points the cursor at path, or clamps fallback when path is gone.
func (c *Collection) relocate(path string, fallback int) {
	if len(c.entries) == 0 {
		c.cursor = -1
		return
	}
	if i := c.indexOf(path); i >= 0 {
		c.cursor = i
		return
	}
	c.cursor = c.clamp(fallback)
}

func (c *Collection) clamp(i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(c.entries) {
		return len(c.entries) - 1
	}
	return i
}

// mergeKeepingOrder keeps the files of old still present in scanned, in
// their old order with refreshed modification times, then appends files
// only scanned has.
func mergeKeepingOrder(old, scanned []File) []File {
	fresh := make(map[string]File, len(scanned))
	for _, f := range scanned {
		fresh[f.Path] = f
	}

	out := make([]File, 0, len(scanned))
	seen := make(map[string]bool, len(old))
	for _, f := range old {
		if nf, ok := fresh[f.Path]; ok && !seen[f.Path] {
			out = append(out, nf)
			seen[f.Path] = true
		}
	}
	for _, f := range scanned {
		if !seen[f.Path] {
			out = append(out, f)
			seen[f.Path] = true
		}
	}
	return out
}
