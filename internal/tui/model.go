// Package tui hosts a viewer in the terminal with bubbletea. It turns key
// events into chords, redraws when the viewer reports a change and renders
// the status bar, the info line and the key help.
package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"sciv/internal/analysis"
	"sciv/internal/config"
	"sciv/internal/files"
	"sciv/internal/log"
	"sciv/internal/viewer"
)

// Refresher turns change notifications from any goroutine into one pending
// redraw. Notify never blocks, so it is safe to call from inside Update.
type Refresher struct {
	ch chan struct{}
}

// NewRefresher creates a refresher with room for one pending redraw.
func NewRefresher() *Refresher {
	return &Refresher{ch: make(chan struct{}, 1)}
}

// Notify requests a redraw.
func (r *Refresher) Notify() {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

func (r *Refresher) wait() tea.Cmd {
	return func() tea.Msg {
		<-r.ch
		return refreshMsg{}
	}
}

type refreshMsg struct{}

type quitMsg struct{}

type infoMsg struct {
	key  files.Key
	info *analysis.Info
	err  error
}

// Model is the bubbletea model for one viewer.
type Model struct {
	viewer    *viewer.Viewer
	refresher *Refresher
	engine    *analysis.Engine

	styles  Styles
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	info    *analysis.Info
	infoKey files.Key
	infoErr error
	width   int
}

// New creates the model. The viewer should have been created with the
// refresher's Notify as its notify function.
func New(v *viewer.Viewer, cfg *config.Config, r *Refresher) *Model {
	if cfg == nil {
		cfg = config.New()
	}
	if r == nil {
		r = NewRefresher()
	}
	styles := NewStyles(cfg)

	h := help.New()
	h.Styles.ShortKey = styles.HelpKey
	h.Styles.ShortDesc = styles.Help
	h.Styles.FullKey = styles.HelpKey
	h.Styles.FullDesc = styles.Help

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Order

	return &Model{
		viewer:    v,
		refresher: r,
		engine:    analysis.New(),
		styles:    styles,
		keys:      defaultKeyMap(),
		help:      h,
		spinner:   s,
	}
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	done := m.viewer.Done()
	return tea.Batch(
		m.refresher.wait(),
		func() tea.Msg {
			<-done
			return quitMsg{}
		},
		m.loadInfo(),
		m.spinner.Tick,
	)
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	case refreshMsg:
		return m, tea.Batch(m.refresher.wait(), m.loadInfo())
	case quitMsg:
		return m, tea.Quit
	case infoMsg:
		if msg.key == m.currentKey() {
			m.info, m.infoKey, m.infoErr = msg.info, msg.key, msg.err
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKeyMsg gives the keystroke to the viewer first and falls back to
// the host keys when no binding took it.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	handled := false
	for _, ch := range chordsFromKey(msg) {
		if m.viewer.HandleKey(ch) {
			handled = true
		}
	}
	if handled {
		return m, nil
	}

	var action string
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		action = config.ActionNext
	case key.Matches(msg, m.keys.Previous):
		action = config.ActionPrevious
	case key.Matches(msg, m.keys.First):
		action = config.ActionFirst
	case key.Matches(msg, m.keys.Last):
		action = config.ActionLast
	default:
		return m, nil
	}
	if err := m.viewer.Run(action, nil); err != nil {
		log.LogWithError(err).Error("Fallback key failed")
	}
	return m, nil
}

func (m *Model) currentKey() files.Key {
	st := m.viewer.Status()
	if !st.HasCurrent {
		return files.Key{}
	}
	return st.Current.Key()
}

// loadInfo reads the current file's details off the UI goroutine.
func (m *Model) loadInfo() tea.Cmd {
	st := m.viewer.Status()
	if !st.HasCurrent {
		m.info, m.infoErr = nil, nil
		return nil
	}
	k := st.Current.Key()
	if m.info != nil && m.infoKey == k {
		return nil
	}
	engine := m.engine
	path := st.Current.Path
	return func() tea.Msg {
		info, err := engine.Analyze(path)
		return infoMsg{key: k, info: info, err: err}
	}
}
