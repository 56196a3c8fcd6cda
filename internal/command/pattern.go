package command

import (
	"regexp/syntax"

	"sciv/internal/errors"
)

// Result is the outcome of testing an input against a binding.
type Result int

const (
	// NoMatch means no continuation of the input can match.
	NoMatch Result = iota
	// Partial means the input is a live prefix: more input could still
	// complete a match, or extend one already found.
	Partial
	// Full means the input matched and cannot be extended any further.
	Full
)

func (r Result) String() string {
	switch r {
	case Partial:
		return "partial"
	case Full:
		return "full"
	default:
		return "none"
	}
}

// Pattern is a regular expression evaluated incrementally against the
// rendered text of a command. Matching is anchored at the start of the text
// and reports a three-way Result: a plain regexp cannot tell "no match"
// from "not yet".
//
// A whole pattern must consume the entire text. A prefix pattern may stop
// early, leaving the remaining characters for a chord suffix.
type Pattern struct {
	expr  string
	prog  *syntax.Prog
	slots int
	whole bool
}

// CompilePattern compiles expr for whole-text matching.
func CompilePattern(expr string) (*Pattern, error) {
	return compile(expr, true)
}

// CompilePrefixPattern compiles expr for prefix matching.
func CompilePrefixPattern(expr string) (*Pattern, error) {
	return compile(expr, false)
}

func compile(expr string, whole bool) (*Pattern, error) {
	src := expr
	if whole {
		src = `(?:` + expr + `)\z`
	}
	re, err := syntax.Parse(src, syntax.Perl)
	if err != nil {
		return nil, errors.NewBindingError("invalid pattern", expr, errors.InvalidBinding, err)
	}
	maxCap := re.MaxCap()
	prog, err := syntax.Compile(re.Simplify())
	if err != nil {
		return nil, errors.NewBindingError("invalid pattern", expr, errors.InvalidBinding, err)
	}
	return &Pattern{
		expr:  expr,
		prog:  prog,
		slots: 2 * (maxCap + 1),
		whole: whole,
	}, nil
}

// String returns the source expression.
func (p *Pattern) String() string {
	return p.expr
}

// Match tests text against the pattern. On a Full result the captures are
// returned as [whole match, group 1, group 2, ...]; groups that did not
// participate are "".
//
// Partial takes precedence over a recorded match: as long as some thread
// could still consume input the match is not final, so "1" against
// `(\d+) ` and "12" against `(\d+)` are both Partial.
func (p *Pattern) Match(text string) (Result, []string) {
	input := []rune(text)
	m := &machine{
		prog:  p.prog,
		input: input,
		seen:  make([]bool, len(p.prog.Inst)),
	}
	matched, caps, alive := m.run(p.slots)
	switch {
	case alive:
		return Partial, nil
	case !matched:
		return NoMatch, nil
	}

	out := make([]string, p.slots/2)
	for i := range out {
		start, end := caps[2*i], caps[2*i+1]
		if start >= 0 && end >= start {
			out[i] = string(input[start:end])
		}
	}
	return Full, out
}

// thread is one NFA state in the Pike VM together with its capture slots.
type thread struct {
	pc  uint32
	cap []int
}

// machine simulates the compiled program over the whole input in a single
// left-to-right pass. Threads are kept in priority order so the recorded
// match follows leftmost-first (Perl) semantics.
type machine struct {
	prog  *syntax.Prog
	input []rune
	seen  []bool
}

func (m *machine) reset() {
	for i := range m.seen {
		m.seen[i] = false
	}
}

func (m *machine) context(pos int) syntax.EmptyOp {
	before, after := rune(-1), rune(-1)
	if pos > 0 {
		before = m.input[pos-1]
	}
	if pos < len(m.input) {
		after = m.input[pos]
	}
	return syntax.EmptyOpContext(before, after)
}

// add follows empty transitions from pc and appends the resulting
// rune-consuming or matching threads to list.
func (m *machine) add(list []thread, pc uint32, pos int, cap []int) []thread {
	if m.seen[pc] {
		return list
	}
	m.seen[pc] = true

	inst := &m.prog.Inst[pc]
	switch inst.Op {
	case syntax.InstFail:
	case syntax.InstAlt, syntax.InstAltMatch:
		list = m.add(list, inst.Out, pos, cap)
		list = m.add(list, inst.Arg, pos, cap)
	case syntax.InstEmptyWidth:
		if syntax.EmptyOp(inst.Arg)&^m.context(pos) == 0 {
			list = m.add(list, inst.Out, pos, cap)
		}
	case syntax.InstNop:
		list = m.add(list, inst.Out, pos, cap)
	case syntax.InstCapture:
		if int(inst.Arg) < len(cap) {
			saved := cap[inst.Arg]
			cap[inst.Arg] = pos
			list = m.add(list, inst.Out, pos, cap)
			cap[inst.Arg] = saved
		} else {
			list = m.add(list, inst.Out, pos, cap)
		}
	default:
		c := make([]int, len(cap))
		copy(c, cap)
		list = append(list, thread{pc: pc, cap: c})
	}
	return list
}

// run reports whether a match was recorded, its capture slots, and whether
// any higher-priority thread was still waiting for input when the input
// ran out.
func (m *machine) run(slots int) (matched bool, caps []int, alive bool) {
	start := make([]int, slots)
	for i := range start {
		start[i] = -1
	}
	if slots > 0 {
		start[0] = 0
	}

	m.reset()
	clist := m.add(nil, uint32(m.prog.Start), 0, start)

	for pos := 0; len(clist) > 0; pos++ {
		m.reset()
		var nlist []thread
		for _, t := range clist {
			inst := &m.prog.Inst[t.pc]
			if inst.Op == syntax.InstMatch {
				if slots > 1 {
					t.cap[1] = pos
				}
				matched, caps = true, t.cap
				// lower-priority threads lose to this match
				break
			}
			if pos == len(m.input) {
				alive = true
				continue
			}
			if consumes(inst, m.input[pos]) {
				nlist = m.add(nlist, inst.Out, pos+1, t.cap)
			}
		}
		if pos == len(m.input) {
			break
		}
		clist = nlist
	}
	return matched, caps, alive
}

func consumes(inst *syntax.Inst, r rune) bool {
	switch inst.Op {
	case syntax.InstRune, syntax.InstRune1:
		return inst.MatchRune(r)
	case syntax.InstRuneAny:
		return true
	case syntax.InstRuneAnyNotNL:
		return r != '\n'
	}
	return false
}
