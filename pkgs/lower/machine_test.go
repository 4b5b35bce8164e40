package lower

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/aledsdavies/scrapile/pkgs/scratch"
)

// machine runs an Assembly with the value rules of the Scratch VM: values
// are strings or numbers, comparisons are numeric when both sides look like
// numbers and case-insensitive text otherwise, and out-of-range list reads
// give "".
type machine struct {
	procs   map[string][]scratch.Statement
	vars    map[string]any
	lists   map[string][]any
	inputs  []string
	answer  string
	stopped bool
	steps   int
}

const maxSteps = 100000

func newMachine(asm *scratch.Assembly, inputs ...string) *machine {
	m := &machine{
		procs:  make(map[string][]scratch.Statement),
		vars:   make(map[string]any),
		lists:  make(map[string][]any),
		inputs: inputs,
	}
	for _, p := range asm.Procedures {
		m.procs[p.Name] = p.Body
	}
	for _, v := range asm.Variables {
		m.vars[v] = ""
	}
	return m
}

func (m *machine) run(asm *scratch.Assembly) {
	m.exec(asm.Stmts)
}

func (m *machine) console(name string) []string {
	out := make([]string, len(m.lists[name]))
	for i, v := range m.lists[name] {
		out[i] = text(v)
	}
	return out
}

func (m *machine) exec(stmts []scratch.Statement) {
	for _, s := range stmts {
		if m.stopped {
			return
		}
		m.steps++
		if m.steps > maxSteps {
			panic("machine: step limit exceeded")
		}
		m.stmt(s)
	}
}

func (m *machine) stmt(s scratch.Statement) {
	switch s.Kind {
	case scratch.StmtSetVar:
		m.vars[s.Name] = m.eval(s.Value)
	case scratch.StmtPushList:
		m.lists[s.Name] = append(m.lists[s.Name], m.eval(s.Value))
	case scratch.StmtInsertList:
		list := m.lists[s.Name]
		i := index(m.eval(s.Index))
		v := m.eval(s.Value)
		if i >= 1 && i <= len(list)+1 {
			list = append(list[:i-1], append([]any{v}, list[i-1:]...)...)
			m.lists[s.Name] = list
		}
	case scratch.StmtReplaceList:
		list := m.lists[s.Name]
		if i := index(m.eval(s.Index)); i >= 1 && i <= len(list) {
			list[i-1] = m.eval(s.Value)
		}
	case scratch.StmtRemoveList:
		list := m.lists[s.Name]
		if i := index(m.eval(s.Index)); i >= 1 && i <= len(list) {
			m.lists[s.Name] = append(list[:i-1], list[i:]...)
		}
	case scratch.StmtClearList:
		m.lists[s.Name] = nil
	case scratch.StmtIf:
		if m.cond(s.Cond) {
			m.exec(s.Body)
		}
	case scratch.StmtIfElse:
		if m.cond(s.Cond) {
			m.exec(s.Body)
		} else {
			m.exec(s.Else)
		}
	case scratch.StmtRepeatUntil:
		for !m.stopped && !m.cond(s.Cond) {
			m.steps++
			if m.steps > maxSteps {
				panic("machine: step limit exceeded")
			}
			m.exec(s.Body)
		}
	case scratch.StmtCall:
		body, ok := m.procs[s.Name]
		if !ok {
			panic("machine: unknown procedure " + s.Name)
		}
		m.exec(body)
	case scratch.StmtAsk:
		m.eval(s.Value)
		m.answer = ""
		if len(m.inputs) > 0 {
			m.answer, m.inputs = m.inputs[0], m.inputs[1:]
		}
	case scratch.StmtStopAll:
		m.stopped = true
	}
}

func (m *machine) eval(e scratch.Expr) any {
	switch e.Kind {
	case scratch.ExprString:
		return e.Str
	case scratch.ExprNumber, scratch.ExprPosNumber, scratch.ExprPosInteger, scratch.ExprInteger:
		return e.Num
	case scratch.ExprVariable:
		return m.vars[e.Name]
	case scratch.ExprList:
		return contents(m.lists[e.Name])
	case scratch.ExprListElement:
		list := m.lists[e.Name]
		if i := index(m.eval(e.Args[0])); i >= 1 && i <= len(list) {
			return list[i-1]
		}
		return ""
	case scratch.ExprListLength:
		return float64(len(m.lists[e.Name]))
	case scratch.ExprAdd:
		return number(m.eval(e.Args[0])) + number(m.eval(e.Args[1]))
	case scratch.ExprSub:
		return number(m.eval(e.Args[0])) - number(m.eval(e.Args[1]))
	case scratch.ExprMul:
		return number(m.eval(e.Args[0])) * number(m.eval(e.Args[1]))
	case scratch.ExprDiv:
		return number(m.eval(e.Args[0])) / number(m.eval(e.Args[1]))
	case scratch.ExprMod:
		n, mod := number(m.eval(e.Args[0])), number(m.eval(e.Args[1]))
		r := math.Mod(n, mod)
		if r/mod < 0 {
			r += mod
		}
		return r
	case scratch.ExprJoin:
		return text(m.eval(e.Args[0])) + text(m.eval(e.Args[1]))
	case scratch.ExprStrLength:
		return float64(utf8.RuneCountInString(text(m.eval(e.Args[0]))))
	case scratch.ExprLetterOf:
		i := int(number(m.eval(e.Args[0]))) - 1
		runes := []rune(text(m.eval(e.Args[1])))
		if i < 0 || i >= len(runes) {
			return ""
		}
		return string(runes[i])
	case scratch.ExprAnswer:
		return m.answer
	case scratch.ExprTimer:
		return 0.0
	case scratch.ExprCondition:
		return strconv.FormatBool(m.cond(e.Cond))
	}
	panic("machine: unknown expression " + e.Kind.String())
}

func (m *machine) cond(c *scratch.Condition) bool {
	switch c.Kind {
	case scratch.CondEqual:
		return compare(m.eval(c.Lhs), m.eval(c.Rhs)) == 0
	case scratch.CondGreater:
		return compare(m.eval(c.Lhs), m.eval(c.Rhs)) > 0
	case scratch.CondLess:
		return compare(m.eval(c.Lhs), m.eval(c.Rhs)) < 0
	case scratch.CondAnd:
		return m.cond(c.Left) && m.cond(c.Right)
	case scratch.CondOr:
		return m.cond(c.Left) || m.cond(c.Right)
	case scratch.CondNot:
		return !m.cond(c.Left)
	}
	panic("machine: unknown condition " + c.Kind.String())
}

func text(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		if math.IsInf(v, 1) {
			return "Infinity"
		}
		if math.IsInf(v, -1) {
			return "-Infinity"
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// numeric reports v as a number when it reads as one
func numeric(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(s, 64)
		return n, err == nil
	}
	return 0, false
}

func number(v any) float64 {
	n, _ := numeric(v)
	return n
}

func index(v any) int {
	return int(math.Floor(number(v)))
}

func compare(a, b any) int {
	x, okA := numeric(a)
	y, okB := numeric(b)
	if okA && okB {
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(text(a)), strings.ToLower(text(b)))
}

// contents joins a list the way the list reporter does: without separators
// when every item is a single character, with spaces otherwise
func contents(list []any) string {
	items := make([]string, len(list))
	sep := ""
	for i, v := range list {
		items[i] = text(v)
		if utf8.RuneCountInString(items[i]) != 1 {
			sep = " "
		}
	}
	return strings.Join(items, sep)
}
