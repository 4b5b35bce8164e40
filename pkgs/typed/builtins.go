package typed

import (
	"github.com/aledsdavies/scrapile/pkgs/ast"
)

// Builtin identifies a compiler-provided function
type Builtin int

const (
	BuiltinPrintln Builtin = iota
	BuiltinAsStr
	BuiltinInput
	BuiltinTimer
	BuiltinPanic
	BuiltinListLen
	BuiltinListGet
	BuiltinListPush
	BuiltinListInsert
	BuiltinStrLen
	BuiltinStrGet
)

type builtinInfo struct {
	name     string
	min, max int
}

var builtins = [...]builtinInfo{
	BuiltinPrintln:    {"println", 0, 1},
	BuiltinAsStr:      {"as_str", 1, 1},
	BuiltinInput:      {"input", 0, 1},
	BuiltinTimer:      {"timer", 0, 0},
	BuiltinPanic:      {"panic", 0, 1},
	BuiltinListLen:    {"list_len", 1, 1},
	BuiltinListGet:    {"list_get", 2, 2},
	BuiltinListPush:   {"list_push", 2, 2},
	BuiltinListInsert: {"list_insert", 3, 3},
	BuiltinStrLen:     {"str_len", 1, 1},
	BuiltinStrGet:     {"str_get", 2, 2},
}

func (b Builtin) String() string {
	return builtins[b].name
}

// LookupBuiltin resolves a builtin by name (without the `!`)
func LookupBuiltin(name string) (Builtin, bool) {
	for i, info := range builtins {
		if info.name == name {
			return Builtin(i), true
		}
	}
	return 0, false
}

// BuiltinNames returns the valid builtin names
func BuiltinNames() []string {
	names := make([]string, len(builtins))
	for i, info := range builtins {
		names[i] = info.name
	}
	return names
}

// builtin checks a `name!(args)` call against the builtin's contract
func (c *checker) builtin(n ast.Node) (Expr, error) {
	o := n.Oper
	b, ok := LookupBuiltin(o.Ident)
	if !ok {
		return Expr{}, &Error{Kind: BuiltinNotFound, Span: o.Name, Ctx: n.Span, Name: o.Ident, Hint: builtinHint(o.Ident)}
	}
	info := builtins[b]
	label := info.name + "!"

	if len(o.Args) < info.min || len(o.Args) > info.max {
		return Expr{}, &Error{Kind: ArityMismatch, Span: n.Span, Ctx: o.Name, Name: label, Min: info.min, Max: info.max, Count: len(o.Args)}
	}

	args := make([]Expr, len(o.Args))
	for i, a := range o.Args {
		arg, err := c.expr(a)
		if err != nil {
			return Expr{}, err
		}
		args[i] = arg
	}

	want := func(i int, t Type) error {
		if !args[i].Type.Equal(t) {
			return &Error{Kind: ArgTypeMismatch, Span: args[i].Span, Ctx: o.Name, Name: label, Want: t, Got: args[i].Type}
		}
		return nil
	}
	wantList := func(i int) error {
		if !args[i].Type.IsList() {
			return &Error{Kind: ArgTypeMismatch, Span: args[i].Span, Ctx: o.Name, Name: label, Want: Type{Kind: KindList}, Got: args[i].Type}
		}
		return nil
	}

	out := Expr{Kind: ExprBuiltin, Builtin: b, Name: info.name, Args: args, Span: n.Span}
	var err error
	switch b {
	case BuiltinPrintln, BuiltinPanic:
		out.Type = Nil
		if b == BuiltinPanic && len(args) == 1 {
			err = want(0, Str)
		}
	case BuiltinAsStr:
		out.Type = Str
	case BuiltinInput:
		out.Type = Str
		if len(args) == 1 {
			err = want(0, Str)
		}
	case BuiltinTimer:
		out.Type = Num
	case BuiltinListLen:
		out.Type = Num
		err = wantList(0)
	case BuiltinListGet:
		if err = wantList(0); err != nil {
			break
		}
		if args[0].Type.Elem == nil {
			err = &Error{Kind: CannotInferType, Span: args[0].Span, Ctx: n.Span}
			break
		}
		out.Type = *args[0].Type.Elem
		err = want(1, Num)
	case BuiltinListPush, BuiltinListInsert:
		out.Type = Nil
		if err = c.mutableList(label, args[0], n); err != nil {
			break
		}
		value := 1
		if b == BuiltinListInsert {
			if err = want(1, Num); err != nil {
				break
			}
			value = 2
		}
		err = want(value, *args[0].Type.Elem)
	case BuiltinStrLen:
		out.Type = Num
		err = want(0, Str)
	case BuiltinStrGet:
		out.Type = Str
		if err = want(0, Str); err == nil {
			err = want(1, Num)
		}
	}
	if err != nil {
		return Expr{}, err
	}
	return out, nil
}

// mutableList requires arg to name a mutable list variable
func (c *checker) mutableList(label string, arg Expr, call ast.Node) error {
	if arg.Kind != ExprVar {
		return &Error{Kind: ExpectedListVar, Span: arg.Span, Ctx: call.Span, Name: label[:len(label)-1]}
	}
	entry := c.byFlat[arg.Name]
	if !entry.Type.IsList() {
		return &Error{Kind: ArgTypeMismatch, Span: arg.Span, Ctx: call.Oper.Name, Name: label, Want: Type{Kind: KindList}, Got: entry.Type}
	}
	if !entry.Mutable {
		return &Error{Kind: AssignToImmutable, Span: arg.Span, Ctx: entry.Span, Name: entry.Ident}
	}
	return nil
}
