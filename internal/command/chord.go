package command

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"sciv/internal/errors"
)

// Modifier is a set of modifier keys held down with a keystroke.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModOption
	ModCommand
)

// ModNone is the empty modifier set.
const ModNone Modifier = 0

// Has reports whether m contains every modifier in mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod == mod
}

// With returns m with mod added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// prefix renders the modifiers in C-A-S-D order, e.g. "C-S-".
func (m Modifier) prefix() string {
	var sb strings.Builder
	if m.Has(ModControl) {
		sb.WriteString("C-")
	}
	if m.Has(ModOption) {
		sb.WriteString("A-")
	}
	if m.Has(ModShift) {
		sb.WriteString("S-")
	}
	if m.Has(ModCommand) {
		sb.WriteString("D-")
	}
	return sb.String()
}

// Chord is one physical keystroke: a code point plus the modifiers held
// with it. Chords are comparable values.
type Chord struct {
	Code rune
	Mods Modifier
}

// Well-known chords.
var (
	Escape    = Chord{Code: 0x1b}
	Space     = Chord{Code: ' '}
	Enter     = Chord{Code: '\r'}
	Tab       = Chord{Code: '\t'}
	Backspace = Chord{Code: 0x7f}
)

// NewChord builds a chord from a code point and modifiers.
func NewChord(code rune, mods ...Modifier) Chord {
	ch := Chord{Code: code}
	for _, m := range mods {
		ch.Mods = ch.Mods.With(m)
	}
	return ch
}

var keyNames = map[rune]string{
	' ':  "space",
	0x1b: "esc",
	'\r': "enter",
	'\t': "tab",
	0x7f: "backspace",
}

var namedKeys = map[string]rune{
	"space":     ' ',
	"spc":       ' ',
	"esc":       0x1b,
	"escape":    0x1b,
	"enter":     '\r',
	"return":    '\r',
	"cr":        '\r',
	"tab":       '\t',
	"backspace": 0x7f,
	"bs":        0x7f,
	"lt":        '<',
}

var modifierLetters = map[byte]Modifier{
	'C': ModControl,
	'A': ModOption,
	'O': ModOption,
	'S': ModShift,
	'D': ModCommand,
	'M': ModCommand,
}

// String renders the chord as the single character it types. Modifiers are
// not part of the rendering.
func (c Chord) String() string {
	return string(c.Code)
}

// Notation renders the chord in the form accepted by ParseChord, e.g.
// "S-space" or "g".
func (c Chord) Notation() string {
	name, ok := keyNames[c.Code]
	if !ok {
		name = string(c.Code)
	}
	return c.Mods.prefix() + name
}

// ParseChord parses a single chord such as "g", "G", "space", "S-space" or
// "C-x". Modifier prefixes are C (control), A or O (option), S (shift) and
// D or M (command).
func ParseChord(s string) (Chord, error) {
	if s == "" {
		return Chord{}, errors.NewBindingError("empty chord", s, errors.InvalidBinding, nil)
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ := utf8.DecodeRuneInString(s)
		return Chord{Code: r}, nil
	}

	rest := s
	var mods Modifier
	for len(rest) > 2 && rest[1] == '-' {
		mod, ok := modifierLetters[rest[0]]
		if !ok {
			break
		}
		mods = mods.With(mod)
		rest = rest[2:]
	}

	if code, ok := namedKeys[strings.ToLower(rest)]; ok {
		return Chord{Code: code, Mods: mods}, nil
	}
	if utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		return Chord{Code: r, Mods: mods}, nil
	}
	return Chord{}, errors.NewBindingError("invalid chord", s, errors.InvalidBinding,
		fmt.Errorf("unknown key %q", rest))
}

// ParseCommand parses a whitespace separated list of chords, e.g. "g g" or
// "o S-n".
func ParseCommand(s string) (Command, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, errors.NewBindingError("empty key sequence", s, errors.InvalidBinding, nil)
	}
	cmd := make(Command, 0, len(fields))
	for _, f := range fields {
		ch, err := ParseChord(f)
		if err != nil {
			return nil, err
		}
		cmd = append(cmd, ch)
	}
	return cmd, nil
}
