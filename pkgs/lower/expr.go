package lower

import (
	"math"
	"slices"

	"github.com/aledsdavies/scrapile/internal/invariant"
	"github.com/aledsdavies/scrapile/pkgs/ast"
	"github.com/aledsdavies/scrapile/pkgs/scratch"
	"github.com/aledsdavies/scrapile/pkgs/typed"
)

var trueText = scratch.Str("true")

// value lowers e for a value slot, emitting whatever statements computing it
// needs first. List values read as the list's contents.
func (l *lowerer) value(e typed.Expr) scratch.Expr {
	if e.Type.IsList() {
		return scratch.List(l.listOf(e))
	}

	switch e.Kind {
	case typed.ExprNumber:
		return scratch.Num(e.Num)
	case typed.ExprString:
		return scratch.Str(e.Str)
	case typed.ExprBool:
		return boolText(e.Bool)
	case typed.ExprNil:
		return scratch.Str(NilText)
	case typed.ExprVar:
		return scratch.Var(e.Name)
	case typed.ExprTuple:
		return l.tuple(e)
	case typed.ExprBlock:
		return l.block(e.Block)
	case typed.ExprCall:
		return l.call(e)
	case typed.ExprBuiltin:
		return l.builtin(e)
	case typed.ExprUnary:
		if e.Op == ast.OpNot {
			return scratch.Value(l.cond(e))
		}
		operand := l.value(e.Args[0])
		if operand.Kind == scratch.ExprNumber {
			return scratch.Num(-operand.Num)
		}
		return scratch.Mul(operand, scratch.Int(-1))
	case typed.ExprBinary:
		return l.binary(e)
	}
	invariant.Unreachable("expression kind %d of type %s", e.Kind, e.Type)
	return scratch.Expr{}
}

func (l *lowerer) binary(e typed.Expr) scratch.Expr {
	switch e.Op {
	case ast.OpEq, ast.OpNe, ast.OpGt, ast.OpLt, ast.OpGte, ast.OpLte, ast.OpAnd, ast.OpOr:
		return scratch.Value(l.cond(e))
	}

	args := l.operands(e.Args)
	a, b := args[0], args[1]
	switch e.Op {
	case ast.OpAdd:
		return scratch.Add(a, b)
	case ast.OpSub:
		return scratch.Sub(a, b)
	case ast.OpMul:
		return scratch.Mul(a, b)
	case ast.OpDiv:
		return scratch.Div(a, b)
	case ast.OpMod:
		return scratch.Mod(a, b)
	case ast.OpConcat:
		return join(a, b)
	}
	invariant.Unreachable("binary operator %s", e.Op.Symbol())
	return scratch.Expr{}
}

// tuple renders a tuple as its text, e.g. "(1, a)"
func (l *lowerer) tuple(e typed.Expr) scratch.Expr {
	text := scratch.Str("(")
	for i, member := range l.operands(e.Args) {
		if i > 0 {
			text = join(text, scratch.Str(", "))
		}
		text = join(text, member)
	}
	return join(text, scratch.Str(")"))
}

// listOf returns the name of a list holding e's value
func (l *lowerer) listOf(e typed.Expr) string {
	invariant.Precondition(e.Type.IsList(), "listOf on %s", e.Type)

	switch e.Kind {
	case typed.ExprVar:
		return e.Name
	case typed.ExprList:
		tmp := l.tempList()
		l.assignList(tmp, e)
		return tmp
	case typed.ExprBlock:
		b := e.Block
		for _, s := range b.Stmts {
			l.stmt(s)
		}
		tail, ok := b.Tail.(*typed.ExprStmt)
		invariant.Invariant(ok, "list-typed block without a tail expression")
		return l.listOf(tail.Expr)
	case typed.ExprCall:
		return l.call(e).Name
	}
	invariant.Unreachable("list-valued expression kind %d", e.Kind)
	return ""
}

// cond lowers a bool-typed expression for a boolean slot
func (l *lowerer) cond(e typed.Expr) scratch.Condition {
	switch e.Kind {
	case typed.ExprBool:
		return scratch.Equal(boolText(e.Bool), trueText)
	case typed.ExprVar:
		return scratch.Equal(scratch.Var(e.Name), trueText)
	case typed.ExprUnary:
		if e.Op == ast.OpNot {
			return scratch.Not(l.cond(e.Args[0]))
		}
	case typed.ExprBinary:
		switch e.Op {
		case ast.OpAnd, ast.OpOr:
			return l.logical(e)
		case ast.OpEq, ast.OpNe, ast.OpGt, ast.OpLt, ast.OpGte, ast.OpLte:
			return l.comparison(e)
		}
	}
	return scratch.Equal(l.value(e), trueText)
}

func (l *lowerer) comparison(e typed.Expr) scratch.Condition {
	args := l.operands(e.Args)
	a, b := args[0], args[1]
	switch e.Op {
	case ast.OpEq:
		return scratch.Equal(a, b)
	case ast.OpNe:
		return scratch.Not(scratch.Equal(a, b))
	case ast.OpGt:
		return scratch.Greater(a, b)
	case ast.OpLt:
		return scratch.Less(a, b)
	case ast.OpGte:
		return scratch.Or(scratch.Greater(a, b), scratch.Equal(a, b))
	default:
		return scratch.Or(scratch.Less(a, b), scratch.Equal(a, b))
	}
}

// logical lowers && and ||. Scratch evaluates both operands of its and/or
// blocks, so a right operand with side effects runs under an explicit if.
func (l *lowerer) logical(e typed.Expr) scratch.Condition {
	lhs := l.cond(e.Args[0])
	if !effectful(e.Args[1]) {
		rhs := l.cond(e.Args[1])
		if e.Op == ast.OpAnd {
			return scratch.And(lhs, rhs)
		}
		return scratch.Or(lhs, rhs)
	}

	tmp := l.tempVar()
	l.emit(scratch.SetVar(tmp, scratch.Value(lhs)))
	result := scratch.Equal(scratch.Var(tmp), trueText)
	undecided := result
	if e.Op == ast.OpOr {
		undecided = scratch.Not(result)
	}
	rhs := l.capture(func() {
		c := l.cond(e.Args[1])
		l.emit(scratch.SetVar(tmp, scratch.Value(c)))
	})
	l.emit(scratch.If(undecided, rhs...))
	return result
}

// operands lowers es left to right. When a later operand has side effects,
// the earlier values are pinned in temporaries first so they keep the value
// they had when evaluated.
func (l *lowerer) operands(es []typed.Expr) []scratch.Expr {
	mark := len(l.held)
	defer func() { l.held = l.held[:mark] }()

	vals := make([]scratch.Expr, len(es))
	for i, e := range es {
		if i > 0 && effectful(e) {
			for j := 0; j < i; j++ {
				vals[j] = l.hold(vals[j])
			}
		}
		vals[i] = l.value(e)
	}
	return vals
}

// hold pins v in a temporary and marks it live until the caller truncates
// l.held again
func (l *lowerer) hold(v scratch.Expr) scratch.Expr {
	switch {
	case v.IsLiteral():
		return v
	case (v.Kind == scratch.ExprVariable || v.Kind == scratch.ExprList) && l.temps[v.Name]:
	case v.Kind == scratch.ExprList:
		tmp := l.tempList()
		l.copyList(tmp, v.Name)
		v = scratch.List(tmp)
	default:
		tmp := l.tempVar()
		l.emit(scratch.SetVar(tmp, v))
		v = scratch.Var(tmp)
	}
	if !slices.Contains(l.held, v.Name) {
		l.held = append(l.held, v.Name)
	}
	return v
}

// stable returns an expression that can be evaluated several times in a row
// with the same result
func (l *lowerer) stable(v scratch.Expr) scratch.Expr {
	if v.IsLiteral() || v.Kind == scratch.ExprVariable {
		return v
	}
	tmp := l.tempVar()
	l.emit(scratch.SetVar(tmp, v))
	return scratch.Var(tmp)
}

// effectful reports whether lowering e emits statements that can change
// values already computed: calls, console and list writes, input and
// statements inside blocks.
func effectful(e typed.Expr) bool {
	switch e.Kind {
	case typed.ExprCall:
		return true
	case typed.ExprBlock:
		b := e.Block
		if len(b.Stmts) > 0 {
			return true
		}
		if b.Tail == nil {
			return false
		}
		tail, ok := b.Tail.(*typed.ExprStmt)
		return !ok || effectful(tail.Expr)
	case typed.ExprBuiltin:
		switch e.Builtin {
		case typed.BuiltinPrintln, typed.BuiltinInput, typed.BuiltinPanic,
			typed.BuiltinListPush, typed.BuiltinListInsert:
			return true
		}
	}
	return slices.ContainsFunc(e.Args, effectful)
}

func boolText(b bool) scratch.Expr {
	if b {
		return trueText
	}
	return scratch.Str("false")
}

// join concatenates two values, folding adjacent string literals
func join(a, b scratch.Expr) scratch.Expr {
	if a.Kind == scratch.ExprString && b.Kind == scratch.ExprString {
		return scratch.Str(a.Str + b.Str)
	}
	if b.Kind == scratch.ExprString && b.Str == "" {
		return a
	}
	if a.Kind == scratch.ExprString && a.Str == "" {
		return b
	}
	// left-nested joins of literals fold into the right operand
	if b.Kind == scratch.ExprString && a.Kind == scratch.ExprJoin && a.Args[1].Kind == scratch.ExprString {
		return scratch.Join(a.Args[0], scratch.Str(a.Args[1].Str+b.Str))
	}
	return scratch.Join(a, b)
}

// shift converts a 0-based index into Scratch's 1-based one
func shift(index scratch.Expr) scratch.Expr {
	if index.Kind == scratch.ExprNumber && index.Num == math.Trunc(index.Num) {
		return scratch.Int(int(index.Num) + 1)
	}
	return scratch.Add(index, scratch.Int(1))
}
