package viewer_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"sciv/internal/command"
	"sciv/internal/config"
	"sciv/internal/errors"
	"sciv/internal/files"
	"sciv/internal/viewer"
	"sciv/pkg/testutils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRunner struct {
	mu    sync.Mutex
	lines []string
	paths []string
}

func (r *recordingRunner) Run(line, path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	r.paths = append(r.paths, path)
	return nil
}

// writeImages creates the files with mtimes decreasing in list order.
func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for i, name := range names {
		testutils.WriteFile(t, dir, name, int64(1000-i*10))
	}
}

func newViewer(t *testing.T, cfg *config.Config, opts ...viewer.Option) (*viewer.Viewer, string) {
	t.Helper()
	dir := t.TempDir()
	writeImages(t, dir, "a.png", "b.png", "c.png", "d.png", "e.png", "f.png")
	if cfg == nil {
		cfg = config.New()
	}
	v, err := viewer.New(dir, cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(v.Close)
	return v, dir
}

// press feeds a key sequence written in binding notation.
func press(t *testing.T, v *viewer.Viewer, keys string) {
	t.Helper()
	cmd, err := command.ParseCommand(keys)
	require.NoError(t, err)
	for _, ch := range cmd {
		v.HandleKey(ch)
	}
}

func current(t *testing.T, v *viewer.Viewer) string {
	t.Helper()
	st := v.Status()
	require.True(t, st.HasCurrent)
	return st.Current.Name()
}

func TestDefaultNavigation(t *testing.T) {
	v, _ := newViewer(t, nil, viewer.WithoutWatch())

	st := v.Status()
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, 6, st.Count)
	assert.Equal(t, files.Insertion, st.Order)
	assert.False(t, st.Watching)

	tests := []struct {
		keys  string
		index int
	}{
		{"space", 2},
		{"3 space", 5},
		{"2 S-space", 3},
		{"backspace", 2},
		{"2 backspace", 1},
		{"G", 6},
		{"g g", 1},
		{"4 G", 4},
		{"9 9 G", 6},
		{"S-space", 5},
		{"space space space", 6},
	}
	for _, tt := range tests {
		press(t, v, tt.keys)
		st := v.Status()
		assert.Equal(t, tt.index, st.Index, tt.keys)
		assert.Empty(t, st.Pending, tt.keys)
	}
}

func TestPendingAndEscape(t *testing.T) {
	v, _ := newViewer(t, nil, viewer.WithoutWatch())

	press(t, v, "1 2")
	assert.Equal(t, "12", v.Status().Pending)

	assert.True(t, v.HandleKey(command.Escape))
	assert.Empty(t, v.Status().Pending)
	assert.Equal(t, 1, v.Status().Index)

	// an unbound key is dropped without side effects
	assert.False(t, v.HandleKey(command.Chord{Code: 'z'}))
	assert.Empty(t, v.Status().Pending)
}

func TestOrderBindings(t *testing.T) {
	v, _ := newViewer(t, nil, viewer.WithoutWatch())

	press(t, v, "space space")
	require.Equal(t, "c.png", current(t, v))

	press(t, v, "o N")
	assert.Equal(t, files.NameDesc, v.Status().Order)
	assert.Equal(t, "c.png", current(t, v), "cursor stays on the same file")
	assert.Equal(t, 4, v.Status().Index)

	press(t, v, "o m")
	assert.Equal(t, files.MtimeAsc, v.Status().Order)
	assert.Equal(t, "f.png", v.Collection().Files()[0].Name())

	press(t, v, "o M")
	assert.Equal(t, files.MtimeDesc, v.Status().Order)
	press(t, v, "o r")
	assert.Equal(t, files.Random, v.Status().Order)
	press(t, v, "o n")
	assert.Equal(t, files.NameAsc, v.Status().Order)
	press(t, v, "o i")
	assert.Equal(t, files.Insertion, v.Status().Order)
	assert.Equal(t, "c.png", current(t, v))
}

func TestToggles(t *testing.T) {
	var mu sync.Mutex
	notified := 0
	v, _ := newViewer(t, nil, viewer.WithoutWatch(), viewer.WithNotify(func() {
		mu.Lock()
		notified++
		mu.Unlock()
	}))

	press(t, v, "i")
	assert.True(t, v.Status().ShowInfo)
	press(t, v, "?")
	assert.True(t, v.Status().ShowHelp)
	press(t, v, "i ?")
	assert.False(t, v.Status().ShowInfo)
	assert.False(t, v.Status().ShowHelp)

	mu.Lock()
	assert.GreaterOrEqual(t, notified, 4)
	mu.Unlock()

	select {
	case <-v.Done():
		t.Fatal("Done closed before quit")
	default:
	}
	press(t, v, "q")
	select {
	case <-v.Done():
	default:
		t.Fatal("quit should close Done")
	}
	press(t, v, "q")
}

func TestRunAction(t *testing.T) {
	v, _ := newViewer(t, nil, viewer.WithoutWatch())

	require.NoError(t, v.Run(config.ActionGoto, []string{"3", "3"}))
	assert.Equal(t, 3, v.Status().Index)
	require.NoError(t, v.Run(config.ActionAdvance, nil))
	assert.Equal(t, 4, v.Status().Index)
	require.NoError(t, v.Run(config.ActionBack, []string{"x", "bogus"}))
	assert.Equal(t, 3, v.Status().Index)
	require.NoError(t, v.Run(config.ActionLast, nil))
	assert.Equal(t, 6, v.Status().Index)

	err := v.Run("explode", nil)
	require.Error(t, err)
	assert.True(t, errors.IsUnknownAction(err))
}

func TestExternalCommand(t *testing.T) {
	cfg := config.New()
	cfg.Commands = []config.CommandSpec{{Keys: "C-e", Run: "edit --file {}", Description: "edit"}}
	runner := &recordingRunner{}
	v, dir := newViewer(t, cfg, viewer.WithoutWatch(), viewer.WithRunner(runner))

	press(t, v, "space C-e")

	runner.mu.Lock()
	defer runner.mu.Unlock()
	assert.Equal(t, []string{"edit --file {}"}, runner.lines)
	assert.Equal(t, []string{filepath.Join(dir, "b.png")}, runner.paths)
	assert.Contains(t, v.Bindings(), viewer.BindingInfo{Keys: "C-e", Action: "edit"})
}

func TestExpand(t *testing.T) {
	args, err := viewer.Expand(`convert "{}" -resize 50% '/tmp/out {}.jpg'`, "/pics/a b.png")
	require.NoError(t, err)
	assert.Equal(t, []string{"convert", "/pics/a b.png", "-resize", "50%", "/tmp/out /pics/a b.png.jpg"}, args)

	_, err = viewer.Expand("   ", "/x")
	assert.Error(t, err)
}

func TestBindingsListing(t *testing.T) {
	v, _ := newViewer(t, nil, viewer.WithoutWatch())

	b := v.Bindings()
	require.Len(t, b, len(config.DefaultBindings()))
	assert.Equal(t, viewer.BindingInfo{Keys: "space", Action: "next"}, b[0])
	assert.Contains(t, b, viewer.BindingInfo{Keys: "g g", Action: "first"})
	assert.Contains(t, b, viewer.BindingInfo{Keys: `/(\d+)G/`, Action: "goto"})
	assert.Contains(t, b, viewer.BindingInfo{Keys: `/(\d+)/ S-space`, Action: "back"})
	assert.NotEmpty(t, v.ID())
}

func TestNewErrors(t *testing.T) {
	dir := t.TempDir()

	cfg := config.New()
	cfg.Bindings = []config.Binding{{Action: "explode", Keys: "x"}}
	_, err := viewer.New(dir, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidConfig(err))
	assert.True(t, errors.IsUnknownAction(err))

	cfg = config.New()
	cfg.Viewer.Order = "size"
	_, err = viewer.New(dir, cfg)
	assert.True(t, errors.IsInvalidConfig(err))

	_, err = viewer.New(filepath.Join(dir, "missing"), config.New())
	assert.True(t, errors.IsFileNotFound(err))
}

func TestEmptyDirectory(t *testing.T) {
	v, err := viewer.New(t.TempDir(), config.New(), viewer.WithoutWatch())
	require.NoError(t, err)
	defer v.Close()

	press(t, v, "space G g g 3 G")
	st := v.Status()
	assert.Equal(t, 0, st.Index)
	assert.Equal(t, 0, st.Count)
	assert.False(t, st.HasCurrent)
}

func TestWatchStrategies(t *testing.T) {
	for _, strategy := range []string{config.StrategyRescan, config.StrategyIncremental} {
		t.Run(strategy, func(t *testing.T) {
			cfg := config.New()
			cfg.Watch.Strategy = strategy
			cfg.Watch.Debounce = 20 * time.Millisecond
			v, dir := newViewer(t, cfg)
			require.True(t, v.Status().Watching)

			press(t, v, "space space")
			writeImages(t, dir, "0.png")
			require.NoError(t, os.Remove(filepath.Join(dir, "a.png")))

			assert.Eventually(t, func() bool {
				names := map[string]bool{}
				for _, f := range v.Collection().Files() {
					names[f.Name()] = true
				}
				return names["0.png"] && !names["a.png"]
			}, 3*time.Second, 20*time.Millisecond)
			assert.Equal(t, "c.png", current(t, v))
		})
	}
}

func TestSlideshow(t *testing.T) {
	cfg := config.New()
	cfg.Viewer.SlideshowInterval = 10 * time.Millisecond
	v, _ := newViewer(t, cfg, viewer.WithoutWatch())

	press(t, v, "s")
	assert.True(t, v.Status().Slideshow)
	assert.Eventually(t, func() bool {
		return v.Status().Index == 6
	}, 3*time.Second, 10*time.Millisecond, "slideshow should reach the last file")

	press(t, v, "s")
	assert.False(t, v.Status().Slideshow)
	press(t, v, "g g")
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, v.Status().Index)
}

func TestFollowCurrent(t *testing.T) {
	cfg := config.New()
	cfg.Watch.FollowCurrent = true
	cfg.Watch.Debounce = 20 * time.Millisecond

	var mu sync.Mutex
	notified := 0
	v, dir := newViewer(t, cfg, viewer.WithNotify(func() {
		mu.Lock()
		notified++
		mu.Unlock()
	}))

	press(t, v, "space")
	mu.Lock()
	before := notified
	mu.Unlock()

	require.NoError(t, os.Chmod(filepath.Join(dir, "b.png"), 0600))
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return notified > before
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, "b.png", current(t, v))
}

func TestDescribeBindings(t *testing.T) {
	cfg := config.New()
	cfg.Commands = []config.CommandSpec{{Keys: "C-o", Run: "open {}"}}

	got, err := viewer.DescribeBindings(cfg)
	require.NoError(t, err)
	require.Len(t, got, len(cfg.Bindings)+1)

	v, _ := newViewer(t, cfg, viewer.WithoutWatch())
	assert.Equal(t, v.Bindings(), got)
	assert.Equal(t, viewer.BindingInfo{Keys: "C-o", Action: "run open {}"}, got[len(got)-1])

	cfg.Bindings = append(cfg.Bindings, config.Binding{Action: "explode", Keys: "x"})
	_, err = viewer.DescribeBindings(cfg)
	assert.True(t, errors.IsUnknownAction(err))
}
