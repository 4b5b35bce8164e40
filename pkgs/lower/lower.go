// Package lower translates a checked program into the Scratch instruction
// vocabulary of package scratch.
//
// Scratch has no local scope, no return values and only "repeat until", so
// lowering flattens everything onto stage-global variables and lists:
//
//   - variables keep the unique flattened names the checker gave them
//   - `while (c)` becomes `repeat until not c`
//   - functions become argument-less custom blocks; parameters and the
//     result travel through `fn:<name>/...` globals
//   - calls that may re-enter the calling function save its frame on the
//     `$stack` list and restore it afterwards
//   - list reads and inserts are guarded by bounds checks that call the
//     shared `$panic` procedure
//
// Values that must survive later side effects are spilled into temporaries
// named `<scope>/$t<N>` (lists `<scope>/$l<N>`), which cannot collide with
// source identifiers.
package lower

import (
	"fmt"

	"github.com/aledsdavies/scrapile/pkgs/diag"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
	"github.com/aledsdavies/scrapile/pkgs/scratch"
	"github.com/aledsdavies/scrapile/pkgs/typed"
)

// Names of the runtime support objects
const (
	DefaultConsole = "console"
	PanicProc      = "$panic"
	PanicMessage   = "$panic$msg"
	StackList      = "$stack"
	NilText        = "<nil>"

	stackIndex   = "$stack$i"
	stackCount   = "$stack$n"
	returnSuffix = "/$return"
	mainScope    = "main"
)

// LowerOpt configures Lower
type LowerOpt func(*LowerConfig)

// LowerConfig holds lowering configuration
type LowerConfig struct {
	source  string
	console string
}

// WithSource gives lowering the program text so panic messages can carry
// line:column positions instead of byte offsets.
func WithSource(src string) LowerOpt {
	return func(c *LowerConfig) {
		c.source = src
	}
}

// WithConsole renames the list println writes to
func WithConsole(list string) LowerOpt {
	return func(c *LowerConfig) {
		c.console = list
	}
}

// counters hands out the numeric suffixes of synthesized names
type counters struct {
	temp int
}

func (c *counters) next() int {
	c.temp++
	return c.temp
}

type lowerer struct {
	config *LowerConfig

	funcs  map[string]*typed.Func
	frames map[string][]string // function -> its parameters and locals
	calls  *callGraph

	counters counters
	owner    string // function being lowered, "" for main
	out      []scratch.Statement
	held     []string // temporaries that must survive the statements being emitted

	temps    map[string]bool
	lists    map[string]bool // every list name
	declared map[string]bool
	asm      *scratch.Assembly
}

// Lower translates prog. prog must come from a successful typed.Check.
func Lower(prog *typed.Program, opts ...LowerOpt) *scratch.Assembly {
	config := &LowerConfig{console: DefaultConsole}
	for _, opt := range opts {
		opt(config)
	}

	l := &lowerer{
		config:   config,
		funcs:    make(map[string]*typed.Func, len(prog.Funcs)),
		frames:   make(map[string][]string),
		calls:    newCallGraph(prog),
		temps:    make(map[string]bool),
		lists:    make(map[string]bool),
		declared: make(map[string]bool),
		asm:      &scratch.Assembly{},
	}
	for _, fn := range prog.Funcs {
		l.funcs[fn.Name] = fn
	}

	l.declareList(config.console)
	l.declareVar(PanicMessage)
	for _, v := range prog.Vars {
		l.declareTyped(v.Name, v.Type)
		if v.Owner != "" {
			l.frames[v.Owner] = append(l.frames[v.Owner], v.Name)
		}
	}
	for _, fn := range prog.Funcs {
		if fn.Return.Kind != typed.KindNil {
			l.declareTyped(returnSlot(fn.Name), fn.Return)
		}
	}

	l.emit(scratch.ClearList(config.console))
	l.block(prog.Main)
	l.asm.Stmts = l.out

	l.asm.Procedures = append(l.asm.Procedures, scratch.Procedure{
		Name: PanicProc,
		Body: []scratch.Statement{
			scratch.PushList(config.console, scratch.Var(PanicMessage)),
			scratch.StopAll(),
		},
	})
	for _, fn := range prog.Funcs {
		l.asm.Procedures = append(l.asm.Procedures, l.function(fn))
	}
	return l.asm
}

// ProcName is the custom block a function lowers to
func ProcName(fn string) string {
	return typed.FuncPrefix(fn)
}

func returnSlot(fn string) string {
	return typed.FuncPrefix(fn) + returnSuffix
}

func (l *lowerer) emit(stmts ...scratch.Statement) {
	l.out = append(l.out, stmts...)
}

// capture runs fn against an empty statement buffer and returns what it
// emitted
func (l *lowerer) capture(fn func()) []scratch.Statement {
	saved := l.out
	l.out = nil
	fn()
	body := l.out
	l.out = saved
	return body
}

func (l *lowerer) declareTyped(name string, t typed.Type) {
	if t.IsList() {
		l.declareList(name)
	} else {
		l.declareVar(name)
	}
}

func (l *lowerer) declareVar(name string) {
	if !l.declared[name] {
		l.declared[name] = true
		l.asm.Variables = append(l.asm.Variables, name)
	}
}

func (l *lowerer) declareList(name string) {
	if !l.declared[name] {
		l.declared[name] = true
		l.lists[name] = true
		l.asm.Lists = append(l.asm.Lists, name)
	}
}

func (l *lowerer) scope() string {
	if l.owner == "" {
		return mainScope
	}
	return typed.FuncPrefix(l.owner)
}

func (l *lowerer) tempVar() string {
	name := fmt.Sprintf("%s/$t%d", l.scope(), l.counters.next())
	l.temps[name] = true
	l.declareVar(name)
	return name
}

func (l *lowerer) tempList() string {
	name := fmt.Sprintf("%s/$l%d", l.scope(), l.counters.next())
	l.temps[name] = true
	l.declareList(name)
	return name
}

// position renders a source span for panic messages
func (l *lowerer) position(span lexer.Span) string {
	if l.config.source == "" {
		return fmt.Sprintf("offset %d", span.Start)
	}
	line, col := diag.LineCol(l.config.source, span.Start)
	return fmt.Sprintf("%d:%d", line, col)
}

// panicWith returns the statements that report msg and stop the project
func (l *lowerer) panicWith(span lexer.Span, msg scratch.Expr) []scratch.Statement {
	prefix := scratch.Str("panic at " + l.position(span) + ": ")
	return []scratch.Statement{
		scratch.SetVar(PanicMessage, join(prefix, msg)),
		scratch.Call(PanicProc),
	}
}
