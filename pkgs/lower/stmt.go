package lower

import (
	"github.com/aledsdavies/scrapile/internal/invariant"
	"github.com/aledsdavies/scrapile/pkgs/scratch"
	"github.com/aledsdavies/scrapile/pkgs/typed"
)

func (l *lowerer) stmt(s typed.Stmt) {
	switch s := s.(type) {
	case *typed.ExprStmt:
		l.value(s.Expr)
	case *typed.VarDeclare:
		l.assign(s.Name, s.Value)
	case *typed.VarMutate:
		l.assign(s.Name, s.Value)
	case *typed.If:
		l.ifStmt(s)
	case *typed.While:
		l.while(s)
	default:
		invariant.Unreachable("statement %T", s)
	}
}

func (l *lowerer) ifStmt(s *typed.If) {
	cond := l.cond(s.Cond)
	body := l.capture(func() { l.stmt(s.Body) })
	if s.Else == nil {
		l.emit(scratch.If(cond, body...))
		return
	}
	otherwise := l.capture(func() { l.stmt(s.Else) })
	l.emit(scratch.IfElse(cond, body, otherwise))
}

// while becomes repeat-until over the negated condition. Statements the
// condition needs run before the loop and again at the end of every pass.
func (l *lowerer) while(s *typed.While) {
	var cond scratch.Condition
	pre := l.capture(func() { cond = l.cond(s.Cond) })
	body := l.capture(func() { l.stmt(s.Body) })

	l.emit(pre...)
	l.emit(scratch.RepeatUntil(scratch.Not(cond), append(body, pre...)...))
}

// block emits b's statements and returns its value
func (l *lowerer) block(b *typed.Block) scratch.Expr {
	for _, s := range b.Stmts {
		l.stmt(s)
	}
	if b.Tail == nil {
		return scratch.Str(NilText)
	}
	if tail, ok := b.Tail.(*typed.ExprStmt); ok {
		return l.value(tail.Expr)
	}
	l.stmt(b.Tail)
	return scratch.Str(NilText)
}

func (l *lowerer) assign(name string, value typed.Expr) {
	if value.Type.IsList() {
		l.assignList(name, value)
		return
	}
	l.emit(scratch.SetVar(name, l.value(value)))
}

// assignList replaces the contents of dst. A literal is inserted element by
// element, anything else is copied from the list holding it.
func (l *lowerer) assignList(dst string, value typed.Expr) {
	if value.Kind != typed.ExprList {
		if src := l.listOf(value); src != dst {
			l.copyList(dst, src)
		}
		return
	}

	mark := len(l.held)
	elems := l.operands(value.Args)
	for i, e := range elems {
		if readsList(e, dst) {
			elems[i] = l.hold(e)
		}
	}
	l.held = l.held[:mark]

	l.emit(scratch.ClearList(dst))
	for i, e := range elems {
		l.emit(scratch.InsertList(dst, ordinal(i), e))
	}
}

// copyList makes dst an element-wise copy of src with a counting loop
func (l *lowerer) copyList(dst, src string) {
	invariant.Precondition(dst != src, "copying list %q onto itself", dst)
	i := l.tempVar()
	l.emit(
		scratch.ClearList(dst),
		scratch.SetVar(i, scratch.Int(1)),
		scratch.RepeatUntil(scratch.Greater(scratch.Var(i), scratch.Length(src)),
			scratch.PushList(dst, scratch.Item(src, scratch.Var(i))),
			scratch.SetVar(i, scratch.Add(scratch.Var(i), scratch.Int(1))),
		),
	)
}

// ordinal is the 1-based index of the i-th element
func ordinal(i int) scratch.Expr {
	return scratch.Expr{Kind: scratch.ExprPosInteger, Num: float64(i + 1)}
}

// readsList reports whether evaluating e reads list name
func readsList(e scratch.Expr, name string) bool {
	switch e.Kind {
	case scratch.ExprList, scratch.ExprListElement, scratch.ExprListLength:
		if e.Name == name {
			return true
		}
	case scratch.ExprCondition:
		return condReadsList(e.Cond, name)
	}
	for _, a := range e.Args {
		if readsList(a, name) {
			return true
		}
	}
	return false
}

func condReadsList(c *scratch.Condition, name string) bool {
	if c == nil {
		return false
	}
	return readsList(c.Lhs, name) || readsList(c.Rhs, name) ||
		condReadsList(c.Left, name) || condReadsList(c.Right, name)
}
