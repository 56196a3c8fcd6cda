package command

import (
	"fmt"
	"unicode/utf8"

	"sciv/internal/errors"
)

// Kind identifies which of the three matcher variants a Matcher is.
type Kind int

const (
	// KindChords matches a fixed chord sequence.
	KindChords Kind = iota
	// KindText matches a regular expression against the rendered command.
	KindText
	// KindCombined matches a regular expression prefix followed by a fixed
	// chord suffix.
	KindCombined
)

func (k Kind) String() string {
	switch k {
	case KindChords:
		return "chords"
	case KindText:
		return "text"
	case KindCombined:
		return "combined"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Matcher is a binding from input to a callback. It is a closed variant:
// construct it with ChordMatcher, TextMatcher or CombinedMatcher.
type Matcher struct {
	kind    Kind
	chords  Command
	pattern *Pattern
	onKeys  func()
	onText  func([]string)

	// Label is a free-form description shown in help output.
	Label string
}

// ChordMatcher binds a fixed chord sequence to fn.
func ChordMatcher(chords Command, fn func()) (Matcher, error) {
	if len(chords) == 0 {
		return Matcher{}, errors.NewBindingError("empty key sequence", "", errors.InvalidBinding, nil)
	}
	return Matcher{
		kind:   KindChords,
		chords: append(Command(nil), chords...),
		onKeys: fn,
	}, nil
}

// TextMatcher binds a regular expression over the rendered command to fn.
// fn receives the captures of the match.
func TextMatcher(expr string, fn func([]string)) (Matcher, error) {
	p, err := CompilePattern(expr)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{
		kind:    KindText,
		pattern: p,
		onText:  fn,
	}, nil
}

// CombinedMatcher binds "text matching expr, then exactly chords" to fn.
// This is what tells a count followed by S-space apart from a count
// followed by a plain space, since both render the same text.
func CombinedMatcher(expr string, chords Command, fn func([]string)) (Matcher, error) {
	if len(chords) == 0 {
		return Matcher{}, errors.NewBindingError("empty key sequence", expr, errors.InvalidBinding, nil)
	}
	p, err := CompilePrefixPattern(expr)
	if err != nil {
		return Matcher{}, err
	}
	return Matcher{
		kind:    KindCombined,
		chords:  append(Command(nil), chords...),
		pattern: p,
		onText:  fn,
	}, nil
}

// Kind returns the matcher variant.
func (m Matcher) Kind() Kind {
	return m.kind
}

// Describe renders the binding: "g g", "/(\d+)G/" or "/(\d+)/ S-space".
func (m Matcher) Describe() string {
	switch m.kind {
	case KindChords:
		return m.chords.Notation()
	case KindText:
		return "/" + m.pattern.String() + "/"
	case KindCombined:
		return "/" + m.pattern.String() + "/ " + m.chords.Notation()
	}
	return ""
}

// Evaluate tests pending against the binding without running the callback.
func (m Matcher) Evaluate(pending Command) (Result, []string) {
	switch m.kind {
	case KindChords:
		return matchChords(m.chords, pending), nil
	case KindText:
		return m.pattern.Match(pending.String())
	case KindCombined:
		return m.evaluateCombined(pending)
	}
	return NoMatch, nil
}

func (m Matcher) evaluateCombined(pending Command) (Result, []string) {
	res, caps := m.pattern.Match(pending.String())
	if res != Full {
		return res, nil
	}
	// every chord renders as exactly one rune
	rest := pending.Drop(utf8.RuneCountInString(caps[0]))
	if r := matchChords(m.chords, rest); r != Full {
		return r, nil
	}
	return Full, caps
}

func (m Matcher) fire(caps []string) {
	switch m.kind {
	case KindChords:
		if m.onKeys != nil {
			m.onKeys()
		}
	case KindText, KindCombined:
		if m.onText != nil {
			m.onText(caps)
		}
	}
}

func matchChords(fixed, pending Command) Result {
	if pending.Equal(fixed) {
		return Full
	}
	if len(pending) < len(fixed) && pending.IsPrefixOf(fixed) {
		return Partial
	}
	return NoMatch
}
