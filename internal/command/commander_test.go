package command_test

import (
	"testing"

	"sciv/internal/command"
	"sciv/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chords(t *testing.T, notation string) command.Command {
	t.Helper()
	cmd, err := command.ParseCommand(notation)
	require.NoError(t, err)
	return cmd
}

func feedAll(c *command.Commander, cmd command.Command) []bool {
	out := make([]bool, len(cmd))
	for i, ch := range cmd {
		out[i] = c.Feed(ch)
	}
	return out
}

func TestChordMatcherDispatch(t *testing.T) {
	c := command.NewCommander()
	calls := 0
	require.NoError(t, c.RegisterChords(chords(t, "g o t o"), func() { calls++ }))

	seq := chords(t, "g o t o")
	for i, ch := range seq {
		assert.True(t, c.Feed(ch), "feed %d", i)
		if i < len(seq)-1 {
			assert.Equal(t, 0, calls)
			assert.Equal(t, seq[:i+1].String(), c.CurrentText())
		}
	}
	assert.Equal(t, 1, calls)
	assert.Empty(t, c.CurrentText())
	assert.Empty(t, c.Pending())
}

func TestStrictPrefixIsPartial(t *testing.T) {
	c := command.NewCommander()
	fired := false
	require.NoError(t, c.RegisterChords(chords(t, "g g"), func() { fired = true }))
	require.NoError(t, c.RegisterChords(chords(t, "g t"), func() { fired = true }))

	assert.True(t, c.Feed(command.Chord{Code: 'g'}))
	assert.False(t, fired)
	assert.Equal(t, "g", c.CurrentText())
}

func TestUnmatchedInputResets(t *testing.T) {
	c := command.NewCommander()
	fired := false
	require.NoError(t, c.RegisterChords(chords(t, "g g"), func() { fired = true }))

	assert.True(t, c.Feed(command.Chord{Code: 'g'}))
	assert.False(t, c.Feed(command.Chord{Code: 'x'}))
	assert.Empty(t, c.CurrentText())
	assert.False(t, fired)

	// the dropped prefix does not leak into the next command
	feedAll(c, chords(t, "g g"))
	assert.True(t, fired)
}

func TestEmptyRegistryNotHandled(t *testing.T) {
	c := command.NewCommander()
	assert.False(t, c.Feed(command.Space))
	assert.Empty(t, c.CurrentText())
}

func TestFirstFullMatchWins(t *testing.T) {
	c := command.NewCommander()
	var got []string
	require.NoError(t, c.RegisterChords(chords(t, "G"), func() { got = append(got, "chords") }))
	require.NoError(t, c.RegisterPattern(`G`, func([]string) { got = append(got, "text") }))

	assert.True(t, c.Feed(command.Chord{Code: 'G'}))
	assert.Equal(t, []string{"chords"}, got)
}

func TestPartialKeepsPendingWhenAnotherMatcherFails(t *testing.T) {
	c := command.NewCommander()
	var n string
	require.NoError(t, c.RegisterChords(chords(t, "g g"), func() {}))
	require.NoError(t, c.RegisterPattern(`(\d+)G`, func(caps []string) { n = caps[1] }))

	assert.Equal(t, []bool{true, true, true}, feedAll(c, chords(t, "4 2 G")))
	assert.Equal(t, "42", n)
}

func TestTextMatcherCaptures(t *testing.T) {
	c := command.NewCommander()
	var caps []string
	require.NoError(t, c.RegisterPattern(`(\d+) `, func(got []string) { caps = got }))

	res := feedAll(c, command.Command{{Code: '1'}, {Code: '5'}, command.Space})
	assert.Equal(t, []bool{true, true, true}, res)
	assert.Equal(t, []string{"15 ", "15"}, caps)
	assert.Empty(t, c.CurrentText())
}

func TestCombinedMatcherPrecedence(t *testing.T) {
	c := command.NewCommander()
	var text, combined []string
	textCalls := 0

	require.NoError(t, c.RegisterPattern(` `, func(caps []string) {
		textCalls++
		text = caps
	}))
	require.NoError(t, c.RegisterCombined(`(\d+)`, command.Command{command.NewChord(' ', command.ModShift)}, func(caps []string) {
		combined = caps
	}))

	// combined bindings are evaluated first regardless of registration order
	require.Equal(t, command.KindCombined, c.Matchers()[0].Kind())

	res := feedAll(c, command.Command{{Code: '1'}, {Code: '2'}, command.NewChord(' ', command.ModShift)})
	assert.Equal(t, []bool{true, true, true}, res)
	assert.Equal(t, []string{"12", "12"}, combined)
	assert.Zero(t, textCalls)
	assert.Nil(t, text)
	assert.Empty(t, c.CurrentText())
}

func TestCombinedMatcherDistinguishesModifiers(t *testing.T) {
	c := command.NewCommander()
	var forward, back []string
	require.NoError(t, c.RegisterPattern(`(\d+) `, func(caps []string) { forward = caps }))
	require.NoError(t, c.RegisterCombined(`(\d+)`, chords(t, "S-space"), func(caps []string) { back = caps }))

	feedAll(c, command.Command{{Code: '3'}, command.Space})
	assert.Equal(t, []string{"3 ", "3"}, forward)
	assert.Nil(t, back)

	feedAll(c, command.Command{{Code: '7'}, command.NewChord(' ', command.ModShift)})
	assert.Equal(t, []string{"7", "7"}, back)
}

func TestCombinedMatcherMultiChordSuffix(t *testing.T) {
	c := command.NewCommander()
	var caps []string
	require.NoError(t, c.RegisterCombined(`(\d+)`, chords(t, "g g"), func(got []string) { caps = got }))

	assert.True(t, c.Feed(command.Chord{Code: '5'}))
	assert.True(t, c.Feed(command.Chord{Code: 'g'}))
	assert.Nil(t, caps)
	assert.Equal(t, "5g", c.CurrentText())
	assert.True(t, c.Feed(command.Chord{Code: 'g'}))
	assert.Equal(t, []string{"5", "5"}, caps)
}

func TestCancel(t *testing.T) {
	c := command.NewCommander()
	fired := false
	require.NoError(t, c.RegisterChords(chords(t, "g g"), func() { fired = true }))

	c.Feed(command.Chord{Code: 'g'})
	c.Cancel()
	assert.Empty(t, c.CurrentText())

	assert.True(t, c.Feed(command.Chord{Code: 'g'}))
	assert.False(t, fired)
}

func TestCallbackMayFeedAgain(t *testing.T) {
	c := command.NewCommander()
	seen := ""
	require.NoError(t, c.RegisterChords(chords(t, "a"), func() {
		seen = c.CurrentText()
	}))

	assert.True(t, c.Feed(command.Chord{Code: 'a'}))
	assert.Empty(t, seen)
}

func TestRegisterErrors(t *testing.T) {
	c := command.NewCommander()

	err := c.RegisterPattern(`([`, func([]string) {})
	assert.True(t, errors.IsInvalidBinding(err))

	err = c.RegisterCombined(`(\d+`, chords(t, "space"), func([]string) {})
	assert.True(t, errors.IsInvalidBinding(err))

	err = c.RegisterCombined(`\d`, nil, func([]string) {})
	assert.True(t, errors.IsInvalidBinding(err))

	err = c.RegisterChords(nil, func() {})
	assert.True(t, errors.IsInvalidBinding(err))

	assert.Zero(t, c.Len())
}

func TestDescribe(t *testing.T) {
	m, err := command.ChordMatcher(chords(t, "g g"), nil)
	require.NoError(t, err)
	assert.Equal(t, "g g", m.Describe())
	assert.Equal(t, "chords", m.Kind().String())

	m, err = command.TextMatcher(`(\d+)G`, nil)
	require.NoError(t, err)
	assert.Equal(t, `/(\d+)G/`, m.Describe())

	m, err = command.CombinedMatcher(`(\d+)`, chords(t, "S-space"), nil)
	require.NoError(t, err)
	assert.Equal(t, `/(\d+)/ S-space`, m.Describe())
}

func TestRegistrationOrder(t *testing.T) {
	c := command.NewCommander()
	require.NoError(t, c.RegisterChords(chords(t, "a"), func() {}))
	require.NoError(t, c.RegisterPattern(`b`, func([]string) {}))
	require.NoError(t, c.RegisterCombined(`c`, chords(t, "d"), func([]string) {}))
	require.NoError(t, c.RegisterCombined(`e`, chords(t, "f"), func([]string) {}))

	var kinds []command.Kind
	for _, m := range c.Matchers() {
		kinds = append(kinds, m.Kind())
	}
	assert.Equal(t, []command.Kind{command.KindCombined, command.KindCombined, command.KindChords, command.KindText}, kinds)
	assert.Equal(t, "/e/ f", c.Matchers()[0].Describe())
	assert.Equal(t, 4, c.Len())
}
