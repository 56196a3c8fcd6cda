package command

import "strings"

// Command is an ordered sequence of chords, either in progress or bound to
// an action. Order matters: "g o" and "o g" are different commands.
type Command []Chord

// Len returns the number of chords.
func (c Command) Len() int {
	return len(c)
}

// Equal reports whether both commands hold the same chords in the same order.
func (c Command) Equal(other Command) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether c matches the first len(c) chords of other.
// This is a partial-match test, not an ordering.
func (c Command) IsPrefixOf(other Command) bool {
	if len(c) > len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// Append returns a new command with ch added at the end. c is not modified.
func (c Command) Append(ch Chord) Command {
	out := make(Command, len(c), len(c)+1)
	copy(out, c)
	return append(out, ch)
}

// Drop returns the chords after the first n.
func (c Command) Drop(n int) Command {
	if n >= len(c) {
		return Command{}
	}
	if n < 0 {
		n = 0
	}
	return c[n:]
}

// String renders the command as the text it types, one character per
// chord. Regular expression bindings are matched against this rendering.
func (c Command) String() string {
	var sb strings.Builder
	for _, ch := range c {
		sb.WriteRune(ch.Code)
	}
	return sb.String()
}

// Notation renders the command in the form accepted by ParseCommand.
func (c Command) Notation() string {
	parts := make([]string, len(c))
	for i, ch := range c {
		parts[i] = ch.Notation()
	}
	return strings.Join(parts, " ")
}
