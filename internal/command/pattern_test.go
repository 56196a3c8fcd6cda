package command_test

import (
	"testing"

	"sciv/internal/command"
	"sciv/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatternWhole(t *testing.T) {
	tests := []struct {
		expr string
		text string
		want command.Result
		caps []string
	}{
		{`(\d+) `, "", command.Partial, nil},
		{`(\d+) `, "1", command.Partial, nil},
		{`(\d+) `, "12", command.Partial, nil},
		{`(\d+) `, "12 ", command.Full, []string{"12 ", "12"}},
		{`(\d+) `, "12x", command.NoMatch, nil},
		{`(\d+) `, "12 3", command.NoMatch, nil},
		{`(\d+) `, "x", command.NoMatch, nil},
		{`(\d+)G`, "40G", command.Full, []string{"40G", "40"}},
		{`G`, "G", command.Full, []string{"G"}},
		{`G`, "g", command.NoMatch, nil},
		{` `, " ", command.Full, []string{" "}},
		{`(a)|(b)`, "b", command.Full, []string{"b", "", "b"}},
		{`(?i)q`, "Q", command.Full, []string{"Q"}},
		// a match that could still grow is not final
		{`\d+`, "12", command.Partial, nil},
		{`.`, "é", command.Full, []string{"é"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr+"/"+tt.text, func(t *testing.T) {
			p, err := command.CompilePattern(tt.expr)
			require.NoError(t, err)

			got, caps := p.Match(tt.text)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.caps, caps)
		})
	}
}

func TestPatternPrefix(t *testing.T) {
	p, err := command.CompilePrefixPattern(`(\d+)`)
	require.NoError(t, err)

	res, caps := p.Match("12")
	assert.Equal(t, command.Partial, res)
	assert.Nil(t, caps)

	res, caps = p.Match("12 ")
	assert.Equal(t, command.Full, res)
	assert.Equal(t, []string{"12", "12"}, caps)

	res, caps = p.Match("123G")
	assert.Equal(t, command.Full, res)
	assert.Equal(t, []string{"123", "123"}, caps)

	res, _ = p.Match("G")
	assert.Equal(t, command.NoMatch, res)
}

func TestPatternAnchoredAtStart(t *testing.T) {
	p, err := command.CompilePattern(`G`)
	require.NoError(t, err)

	res, _ := p.Match("xG")
	assert.Equal(t, command.NoMatch, res)
}

func TestPatternLeftmostFirst(t *testing.T) {
	p, err := command.CompilePattern(`(a*)(a*)`)
	require.NoError(t, err)

	// more input could extend the first group
	res, _ := p.Match("aa")
	assert.Equal(t, command.Partial, res)

	p, err = command.CompilePattern(`(a|ab)(c|bcd)`)
	require.NoError(t, err)
	res, caps := p.Match("abcd")
	assert.Equal(t, command.Full, res)
	assert.Equal(t, []string{"abcd", "a", "bcd"}, caps)
}

func TestCompilePatternError(t *testing.T) {
	_, err := command.CompilePattern(`(\d+`)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidBinding(err))

	var bindingErr *errors.BindingError
	require.True(t, errors.As(err, &bindingErr))
	assert.Equal(t, `(\d+`, bindingErr.Pattern())
}

func TestResultString(t *testing.T) {
	assert.Equal(t, "none", command.NoMatch.String())
	assert.Equal(t, "partial", command.Partial.String())
	assert.Equal(t, "full", command.Full.String())
}
