// Package command turns a stream of keystrokes into bound actions. Bindings
// are fixed chord sequences ("g g"), regular expressions over the typed text
// ("(\d+)G"), or a regular expression followed by a chord ("(\d+)" then
// S-space). Keystrokes accumulate in a pending command until a binding
// matches, or until nothing could match any more.
package command

import (
	"sciv/internal/log"
)

// Commander owns the binding registry and the pending command. It is not
// safe for concurrent use; feed it from the UI goroutine.
type Commander struct {
	matchers []Matcher
	pending  Command
}

// NewCommander creates an empty dispatcher.
func NewCommander() *Commander {
	return &Commander{}
}

// Register adds m to the registry. Combined matchers go to the front so
// they are tried before any plain binding they could shadow; all others
// keep registration order.
func (c *Commander) Register(m Matcher) {
	if m.kind == KindCombined {
		c.matchers = append([]Matcher{m}, c.matchers...)
		return
	}
	c.matchers = append(c.matchers, m)
}

// RegisterChords binds a fixed chord sequence.
func (c *Commander) RegisterChords(chords Command, fn func()) error {
	m, err := ChordMatcher(chords, fn)
	if err != nil {
		return err
	}
	c.Register(m)
	return nil
}

// RegisterPattern binds a regular expression. A pattern that does not
// compile is reported and not registered.
func (c *Commander) RegisterPattern(expr string, fn func([]string)) error {
	m, err := TextMatcher(expr, fn)
	if err != nil {
		return err
	}
	c.Register(m)
	return nil
}

// RegisterCombined binds a regular expression prefix followed by chords.
func (c *Commander) RegisterCombined(expr string, chords Command, fn func([]string)) error {
	m, err := CombinedMatcher(expr, chords, fn)
	if err != nil {
		return err
	}
	c.Register(m)
	return nil
}

// Feed appends ch to the pending command and resolves it.
//
// The first binding, in registry order, that matches fully has its
// callback run and the pending command is cleared. Otherwise, if some
// binding could still match with more input, the pending command is kept.
// Either way Feed returns true. When nothing matches even partially the
// pending command is dropped and Feed returns false, so the caller can
// apply its default handling for ch.
func (c *Commander) Feed(ch Chord) bool {
	c.pending = c.pending.Append(ch)

	live := false
	for _, m := range c.matchers {
		res, caps := m.Evaluate(c.pending)
		switch res {
		case Full:
			log.LogWithFields(log.F("command", c.pending.Notation()), log.F("binding", m.Describe())).Debug("Dispatching command")
			c.pending = nil
			m.fire(caps)
			return true
		case Partial:
			live = true
		}
	}

	if !live {
		c.pending = nil
	}
	return live
}

// Cancel drops the pending command.
func (c *Commander) Cancel() {
	c.pending = nil
}

// CurrentText renders the pending command for on-screen feedback.
func (c *Commander) CurrentText() string {
	return c.pending.String()
}

// Pending returns a copy of the pending command.
func (c *Commander) Pending() Command {
	return append(Command(nil), c.pending...)
}

// Len returns the number of registered bindings.
func (c *Commander) Len() int {
	return len(c.matchers)
}

// Matchers returns the registry in evaluation order.
func (c *Commander) Matchers() []Matcher {
	return append([]Matcher(nil), c.matchers...)
}
