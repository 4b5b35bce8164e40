package lower

import (
	"github.com/aledsdavies/scrapile/internal/invariant"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
	"github.com/aledsdavies/scrapile/pkgs/scratch"
	"github.com/aledsdavies/scrapile/pkgs/typed"
)

const explicitPanic = "explicit panic"

func (l *lowerer) builtin(e typed.Expr) scratch.Expr {
	args := e.Args
	nilValue := scratch.Str(NilText)

	switch e.Builtin {
	case typed.BuiltinPrintln:
		line := scratch.Str("")
		if len(args) == 1 {
			line = l.value(args[0])
		}
		l.emit(scratch.PushList(l.config.console, line))
		return nilValue

	case typed.BuiltinAsStr:
		return l.value(args[0])

	case typed.BuiltinInput:
		prompt := scratch.Str("")
		if len(args) == 1 {
			prompt = l.value(args[0])
		}
		answer := l.tempVar()
		l.emit(scratch.Ask(prompt), scratch.SetVar(answer, scratch.Answer()))
		return scratch.Var(answer)

	case typed.BuiltinTimer:
		return scratch.Timer()

	case typed.BuiltinPanic:
		msg := scratch.Str(explicitPanic)
		if len(args) == 1 {
			msg = l.value(args[0])
		}
		l.emit(l.panicWith(e.Span, msg)...)
		return nilValue

	case typed.BuiltinListLen:
		return scratch.Length(l.listOf(args[0]))

	case typed.BuiltinListGet:
		vals := l.operands(args)
		list := vals[0].Name
		index := l.stable(vals[1])
		l.guard(e.Span, index, scratch.Length(list), false)
		return scratch.Item(list, shift(index))

	case typed.BuiltinListPush:
		list := args[0].Name
		l.emit(scratch.PushList(list, l.value(args[1])))
		return nilValue

	case typed.BuiltinListInsert:
		list := args[0].Name
		vals := l.operands(args[1:])
		index := l.stable(vals[0])
		l.guard(e.Span, index, scratch.Length(list), true)
		l.emit(scratch.InsertList(list, shift(index), vals[1]))
		return nilValue

	case typed.BuiltinStrLen:
		return scratch.StrLength(l.value(args[0]))

	case typed.BuiltinStrGet:
		vals := l.operands(args)
		text := l.stable(vals[0])
		index := l.stable(vals[1])
		l.guard(e.Span, index, scratch.StrLength(text), false)
		return scratch.LetterOf(shift(index), text)
	}

	invariant.Unreachable("builtin %s", e.Builtin)
	return scratch.Expr{}
}

// guard emits the two bounds checks for a 0-based index: negative, and past
// the end. An insert may also target the position right after the last
// element.
func (l *lowerer) guard(span lexer.Span, index, length scratch.Expr, allowEnd bool) {
	l.emit(scratch.If(scratch.Less(index, scratch.Int(0)),
		l.panicWith(span, outOfBounds(index, length))...))

	past := scratch.Not(scratch.Less(index, length))
	if allowEnd {
		past = scratch.Greater(index, length)
	}
	l.emit(scratch.If(past, l.panicWith(span, outOfBounds(index, length))...))
}

func outOfBounds(index, length scratch.Expr) scratch.Expr {
	msg := join(scratch.Str("index out of bounds: the len is "), length)
	msg = join(msg, scratch.Str(" but the index is "))
	return join(msg, index)
}
