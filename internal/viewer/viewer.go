// Package viewer ties the key dispatcher to the file collection. It owns the
// bindings, the directory watch, the subscription on the current file and
// the slideshow timer, and exposes a snapshot of what a host should draw.
package viewer

import (
	"math/rand"
	"strconv"
	"sync"
	"time"

	"sciv/internal/command"
	"sciv/internal/config"
	"sciv/internal/errors"
	"sciv/internal/files"
	"sciv/internal/log"
	"sciv/internal/watch"

	"github.com/google/uuid"
)

// Action is the body of a binding. caps holds the captures of a pattern
// binding and is nil for plain chord bindings.
type Action func(caps []string)

// Status is what a host needs to render one frame.
type Status struct {
	Index      int // 1-based, 0 when empty
	Count      int
	Current    files.File
	HasCurrent bool
	Pending    string
	Order      files.OrderMode
	Slideshow  bool
	ShowInfo   bool
	ShowHelp   bool
	Watching   bool
}

// BindingInfo describes one registered binding for help output.
type BindingInfo struct {
	Keys   string
	Action string
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithNotify sets the function called after any visible change. It may be
// called from any goroutine and must not block.
func WithNotify(fn func()) Option {
	return func(v *Viewer) {
		v.notify = fn
	}
}

// WithRunner replaces the runner used for external commands.
func WithRunner(r Runner) Option {
	return func(v *Viewer) {
		v.runner = r
	}
}

// WithRand seeds the random order.
func WithRand(r *rand.Rand) Option {
	return func(v *Viewer) {
		v.rng = r
	}
}

// WithoutWatch disables the directory watch regardless of configuration.
func WithoutWatch() Option {
	return func(v *Viewer) {
		v.noWatch = true
	}
}

// Viewer is one open collection with its bindings. HandleKey and Status
// belong to the host's UI goroutine; everything else is safe from any.
type Viewer struct {
	cfg    *config.Config
	id     string
	logger *log.Logger

	commander  *command.Commander
	collection *files.Collection
	actions    map[string]Action
	bindings   []BindingInfo

	runner  Runner
	notify  func()
	rng     *rand.Rand
	noWatch bool

	dirWatcher *watch.DirWatcher

	mu        sync.Mutex
	sub       *watch.Subscription
	slideStop chan struct{}
	showInfo  bool
	showHelp  bool
	closed    bool

	done     chan struct{}
	quitOnce sync.Once
}

// New opens the collection for pathOrFile and registers the configured
// bindings and commands. A watch that cannot be set up is logged and the
// viewer continues without it.
func New(pathOrFile string, cfg *config.Config, opts ...Option) (*Viewer, error) {
	if cfg == nil {
		cfg = config.New()
	}
	id := uuid.NewString()
	v := &Viewer{
		cfg:       cfg,
		id:        id,
		commander: command.NewCommander(),
		runner:    ExecRunner{},
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(v)
	}

	order, err := files.ParseOrderMode(cfg.Viewer.Order)
	if err != nil {
		return nil, err
	}
	matcher, err := files.NewImageMatcher(cfg.Images.Patterns, cfg.Images.SniffContent)
	if err != nil {
		return nil, err
	}
	collOpts := []files.Option{
		files.WithScanner(files.NewDirScanner(matcher)),
		files.WithOrder(order),
		files.WithNotify(v.collectionChanged),
	}
	if v.rng != nil {
		collOpts = append(collOpts, files.WithRand(v.rng))
	}
	v.collection, err = files.New(pathOrFile, collOpts...)
	if err != nil {
		return nil, err
	}
	v.logger = log.LogWithFields(log.F("session", id), log.F("directory", v.collection.Directory()))

	v.actions = v.buildActions()
	for i, b := range cfg.Bindings {
		if err := v.bind(b); err != nil {
			return nil, errors.NewConfigError("invalid binding", "bindings["+strconv.Itoa(i)+"]", errors.InvalidConfig, err)
		}
	}
	for i, c := range cfg.Commands {
		if err := v.bindCommand(c); err != nil {
			return nil, errors.NewConfigError("invalid command", "commands["+strconv.Itoa(i)+"]", errors.InvalidConfig, err)
		}
	}

	if cfg.Watch.Enabled && !v.noWatch {
		v.startWatch()
	}
	v.follow()

	v.logger.With(log.F("count", v.collection.Count()), log.F("bindings", v.commander.Len())).Info("Viewer ready")
	return v, nil
}

// ID returns the session id used in log fields.
func (v *Viewer) ID() string {
	return v.id
}

// Collection returns the underlying collection.
func (v *Viewer) Collection() *files.Collection {
	return v.collection
}

// Bindings lists the registered bindings in configuration order.
func (v *Viewer) Bindings() []BindingInfo {
	return append([]BindingInfo(nil), v.bindings...)
}

// HandleKey feeds one keystroke. Escape discards the pending command. The
// result reports whether the key was consumed.
func (v *Viewer) HandleKey(ch command.Chord) bool {
	if ch == command.Escape {
		v.commander.Cancel()
		v.changed()
		return true
	}
	handled := v.commander.Feed(ch)
	v.changed()
	return handled
}

// Run invokes a named action directly.
func (v *Viewer) Run(action string, caps []string) error {
	fn, ok := v.actions[action]
	if !ok {
		return errors.NewBindingError("unknown action", action, errors.UnknownAction, nil)
	}
	fn(caps)
	return nil
}

// Status returns a snapshot for rendering.
func (v *Viewer) Status() Status {
	cursor, count, current, ok := v.collection.Snapshot()
	v.mu.Lock()
	defer v.mu.Unlock()
	return Status{
		Index:      cursor + 1,
		Count:      count,
		Current:    current,
		HasCurrent: ok,
		Pending:    v.commander.CurrentText(),
		Order:      v.collection.Order(),
		Slideshow:  v.slideStop != nil,
		ShowInfo:   v.showInfo,
		ShowHelp:   v.showHelp,
		Watching:   v.dirWatcher != nil,
	}
}

// Done is closed when the quit action runs.
func (v *Viewer) Done() <-chan struct{} {
	return v.done
}

// Close stops the slideshow and every watch. It is safe to call more than
// once.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.slideStop != nil {
		close(v.slideStop)
		v.slideStop = nil
	}
	sub := v.sub
	v.sub = nil
	dw := v.dirWatcher
	v.mu.Unlock()

	if sub != nil {
		sub.Cancel()
	}
	// The watcher's handler may be waiting on v.mu, so stop it unlocked.
	if dw != nil {
		dw.Stop()
	}
	v.logger.Debug("Viewer closed")
}

func (v *Viewer) buildActions() map[string]Action {
	c := v.collection
	order := func(m files.OrderMode) Action {
		return func([]string) { c.SetOrderMode(m) }
	}
	return map[string]Action{
		config.ActionNext:           func([]string) { c.Move(1) },
		config.ActionPrevious:       func([]string) { c.Move(-1) },
		config.ActionAdvance:        func(caps []string) { c.Move(count(caps)) },
		config.ActionBack:           func(caps []string) { c.Move(-count(caps)) },
		config.ActionFirst:          func([]string) { c.SetCursor(0) },
		config.ActionLast:           func([]string) { c.SetCursor(c.Count() - 1) },
		config.ActionGoto:           func(caps []string) { c.SetCursor(count(caps) - 1) },
		config.ActionOrderNone:      order(files.Insertion),
		config.ActionOrderName:      order(files.NameAsc),
		config.ActionOrderNameDesc:  order(files.NameDesc),
		config.ActionOrderMtime:     order(files.MtimeAsc),
		config.ActionOrderMtimeDesc: order(files.MtimeDesc),
		config.ActionOrderRandom:    order(files.Random),
		config.ActionSlideshow:      func([]string) { v.toggleSlideshow() },
		config.ActionInfo:           func([]string) { v.toggle(&v.showInfo) },
		config.ActionHelp:           func([]string) { v.toggle(&v.showHelp) },
		config.ActionQuit:           func([]string) { v.quit() },
		config.ActionRescan:         func([]string) { v.rescan() },
	}
}

// count reads the first capture as a positive number, defaulting to 1.
func count(caps []string) int {
	if len(caps) < 2 {
		return 1
	}
	n, err := strconv.Atoi(caps[1])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func (v *Viewer) bind(b config.Binding) error {
	fn, ok := v.actions[b.Action]
	if !ok {
		return errors.NewBindingError("unknown action", b.Action, errors.UnknownAction, nil)
	}
	m, err := matcherFor(b, fn)
	if err != nil {
		return err
	}
	v.commander.Register(m)
	v.bindings = append(v.bindings, BindingInfo{Keys: m.Describe(), Action: b.Action})
	return nil
}

// matcherFor builds the matcher a binding describes, calling fn when it
// fires.
func matcherFor(b config.Binding, fn Action) (command.Matcher, error) {
	var (
		m   command.Matcher
		err error
	)
	switch b.Kind() {
	case command.KindText:
		m, err = command.TextMatcher(b.Pattern, fn)
	case command.KindCombined:
		var keys command.Command
		if keys, err = command.ParseCommand(b.Keys); err != nil {
			return m, err
		}
		m, err = command.CombinedMatcher(b.Pattern, keys, fn)
	default:
		var keys command.Command
		if keys, err = command.ParseCommand(b.Keys); err != nil {
			return m, err
		}
		m, err = command.ChordMatcher(keys, func() { fn(nil) })
	}
	if err != nil {
		return m, err
	}
	m.Label = b.Action
	return m, nil
}

// DescribeBindings lists the bindings and commands of cfg the way a viewer
// would register them, without opening a directory.
func DescribeBindings(cfg *config.Config) ([]BindingInfo, error) {
	known := make(map[string]bool)
	for _, a := range config.Actions() {
		known[a] = true
	}

	out := make([]BindingInfo, 0, len(cfg.Bindings)+len(cfg.Commands))
	for _, b := range cfg.Bindings {
		if !known[b.Action] {
			return nil, errors.NewBindingError("unknown action", b.Action, errors.UnknownAction, nil)
		}
		m, err := matcherFor(b, func([]string) {})
		if err != nil {
			return nil, err
		}
		out = append(out, BindingInfo{Keys: m.Describe(), Action: b.Action})
	}
	for _, c := range cfg.Commands {
		keys, err := command.ParseCommand(c.Keys)
		if err != nil {
			return nil, err
		}
		out = append(out, BindingInfo{Keys: keys.Notation(), Action: commandLabel(c)})
	}
	return out, nil
}

func (v *Viewer) bindCommand(spec config.CommandSpec) error {
	keys, err := command.ParseCommand(spec.Keys)
	if err != nil {
		return err
	}
	line := spec.Run
	m, err := command.ChordMatcher(keys, func() { v.runCommand(line) })
	if err != nil {
		return err
	}
	label := commandLabel(spec)
	m.Label = label
	v.commander.Register(m)
	v.bindings = append(v.bindings, BindingInfo{Keys: m.Describe(), Action: label})
	return nil
}

func commandLabel(spec config.CommandSpec) string {
	if spec.Description != "" {
		return spec.Description
	}
	return "run " + spec.Run
}

func (v *Viewer) runCommand(line string) {
	cur, ok := v.collection.Current()
	if !ok {
		v.logger.With(log.F("command", line)).Debug("No current file for command")
		return
	}
	if err := v.runner.Run(line, cur.Path); err != nil {
		v.logger.WithError(err).Warn("Command failed to start")
	}
}

func (v *Viewer) toggle(flag *bool) {
	v.mu.Lock()
	*flag = !*flag
	v.mu.Unlock()
	v.changed()
}

func (v *Viewer) quit() {
	v.quitOnce.Do(func() {
		v.logger.Debug("Quit requested")
		close(v.done)
	})
}

func (v *Viewer) rescan() {
	if err := v.collection.ReconcileWithDisk(); err != nil {
		v.logger.WithError(err).Warn("Rescan failed")
	}
}

// toggleSlideshow starts or stops advancing one file per interval.
func (v *Viewer) toggleSlideshow() {
	v.mu.Lock()
	if v.slideStop != nil {
		close(v.slideStop)
		v.slideStop = nil
		v.mu.Unlock()
		v.logger.Debug("Slideshow stopped")
		v.changed()
		return
	}
	if v.closed {
		v.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	v.slideStop = stop
	interval := v.cfg.Viewer.SlideshowInterval
	v.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				v.collection.Move(1)
			case <-stop:
				return
			}
		}
	}()
	v.logger.With(log.F("interval", interval.String())).Debug("Slideshow started")
	v.changed()
}

func (v *Viewer) startWatch() {
	var handler watch.BatchHandler
	if v.cfg.Watch.Strategy == config.StrategyIncremental {
		handler = func(batch []files.Event) {
			for _, ev := range batch {
				v.collection.OnSingleFileEvent(ev)
			}
		}
	} else {
		handler = func([]files.Event) {
			v.rescan()
		}
	}

	dw, err := watch.NewDirWatcher(v.collection.Directory(), v.cfg.Watch.Debounce, handler)
	if err == nil {
		err = dw.Start()
	}
	if err != nil {
		v.logger.WithError(err).Warn("Directory watch unavailable")
		if dw != nil {
			dw.Stop()
		}
		return
	}
	v.mu.Lock()
	v.dirWatcher = dw
	v.mu.Unlock()
}

// collectionChanged is the collection's notify hook. It runs after the
// collection has released its lock.
func (v *Viewer) collectionChanged() {
	v.follow()
	v.changed()
}

// follow moves the current-file subscription to the file under the cursor.
// The previous subscription is cancelled before the next one is made.
func (v *Viewer) follow() {
	if !v.cfg.Watch.FollowCurrent || v.noWatch || !v.cfg.Watch.Enabled {
		return
	}
	cur, ok := v.collection.Current()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if v.sub != nil && ok && v.sub.Path() == cur.Path {
		return
	}
	if v.sub != nil {
		v.sub.Cancel()
		v.sub = nil
	}
	if !ok {
		return
	}
	sub, err := watch.WatchFile(cur.Path, v.collection.OnSingleFileEvent)
	if err != nil {
		v.logger.WithError(err).Warn("Cannot follow current file")
		return
	}
	v.sub = sub
}

func (v *Viewer) changed() {
	if v.notify != nil {
		v.notify()
	}
}
