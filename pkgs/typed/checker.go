// Package typed type-checks a parsed program and rewrites every variable into
// a globally unique flattened name.
//
// Checking happens in two passes. The first collects every function
// signature so calls may refer forward and recurse; the second checks main
// and then each function body in a fresh scope seeded with its parameters.
// The first error found aborts the whole check.
package typed

import (
	"strings"

	"github.com/aledsdavies/scrapile/internal/invariant"
	"github.com/aledsdavies/scrapile/pkgs/ast"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
	"github.com/aledsdavies/scrapile/pkgs/opseq"
)

const (
	mainPrefix = "main"
	funcPrefix = "fn:"
)

// FuncPrefix returns the scope prefix used for a function's variables
func FuncPrefix(name string) string {
	return funcPrefix + name
}

type checker struct {
	types  *TypeTable
	funcs  *FuncTable
	vars   *VarTable
	owner  string
	byFlat map[string]VarEntry
	order  []Var
}

// Check type-checks prog
func Check(prog *ast.Program) (*Program, error) {
	return CheckWith(prog, NewTypeTable())
}

// CheckWith type-checks prog against a prepared type table
func CheckWith(prog *ast.Program, types *TypeTable) (*Program, error) {
	if err := checkMains(prog.Mains); err != nil {
		return nil, err
	}

	c := &checker{
		types:  types,
		funcs:  NewFuncTable(),
		byFlat: make(map[string]VarEntry),
	}
	for _, fn := range prog.Funcs {
		sig, err := c.signature(fn)
		if err != nil {
			return nil, err
		}
		if err := c.funcs.Add(sig); err != nil {
			return nil, err
		}
	}

	c.vars = NewVarTable(mainPrefix)
	main, err := c.block(prog.Mains[0].Body)
	if err != nil {
		return nil, err
	}

	out := &Program{Main: main}
	for _, fn := range prog.Funcs {
		f, err := c.function(fn)
		if err != nil {
			return nil, err
		}
		out.Funcs = append(out.Funcs, f)
	}
	out.Vars = c.order
	return out, nil
}

func keyword(m *ast.Main) lexer.Span {
	return lexer.Span{Start: m.Src.Start, End: m.Src.Start + len("main")}
}

func checkMains(mains []*ast.Main) error {
	switch len(mains) {
	case 0:
		return &Error{Kind: NoMain}
	case 1:
		return nil
	}
	return &Error{Kind: MultipleMain, Span: keyword(mains[1]), Ctx: keyword(mains[0])}
}

func (c *checker) signature(fn *ast.FuncDef) (*FuncSig, error) {
	sig := &FuncSig{
		Name:       fn.Ident.Name,
		NameSpan:   fn.Ident.Span,
		ReturnSpan: fn.Return.Span,
		Span:       fn.Src,
	}
	for _, p := range fn.Params {
		t, err := c.types.Resolve(p.Type)
		if err != nil {
			return nil, err
		}
		sig.Params = append(sig.Params, Param{Name: p.Ident.Name, Type: t, Span: p.Src})
	}
	ret, err := c.types.Resolve(fn.Return)
	if err != nil {
		return nil, err
	}
	sig.Return = ret
	return sig, nil
}

func (c *checker) function(fn *ast.FuncDef) (*Func, error) {
	sig, _ := c.funcs.Get(fn.Ident.Name)
	c.vars = NewVarTable(FuncPrefix(sig.Name))
	c.owner = sig.Name
	defer func() { c.owner = "" }()

	f := &Func{Name: sig.Name, Return: sig.Return, Span: fn.Src}
	for _, p := range sig.Params {
		entry := c.declare(p.Name, VarEntry{Type: p.Type, Span: p.Span})
		f.Params = append(f.Params, Var{Name: entry.Flat, Type: p.Type, Owner: c.owner})
	}

	body, err := c.block(fn.Body)
	if err != nil {
		return nil, err
	}
	if !body.Type.Equal(sig.Return) {
		span := body.Src
		if body.Tail != nil {
			span = body.Tail.Span()
		}
		return nil, &Error{Kind: ReturnTypeMismatch, Span: span, Ctx: sig.ReturnSpan, Name: sig.Name, Want: sig.Return, Got: body.Type}
	}
	f.Body = body
	return f, nil
}

func (c *checker) declare(ident string, entry VarEntry) VarEntry {
	entry = c.vars.Declare(ident, entry)
	c.byFlat[entry.Flat] = entry
	c.order = append(c.order, Var{Name: entry.Flat, Type: entry.Type, Owner: c.owner})
	return entry
}

// block checks b in the current scope
func (c *checker) block(b *ast.Block) (*Block, error) {
	out := &Block{Type: Nil, Src: b.Src}
	for _, s := range b.Stmts {
		stmt, err := c.stmt(s)
		if err != nil {
			return nil, err
		}
		out.Stmts = append(out.Stmts, stmt)
	}
	if b.Tail != nil {
		tail, err := c.stmt(b.Tail)
		if err != nil {
			return nil, err
		}
		out.Tail = tail
		out.Type = tail.Type()
	}
	return out, nil
}

// scopedBlock checks b inside a fresh nested scope
func (c *checker) scopedBlock(b *ast.Block) (*Block, error) {
	c.vars.Push()
	defer c.vars.Pop()
	return c.block(b)
}

// branch checks an if/while body. Bodies that are not blocks still get their
// own scope so declarations cannot leak past the statement.
func (c *checker) branch(s ast.Stmt) (Stmt, error) {
	if es, ok := s.(*ast.ExprStmt); ok && len(es.Expr.Seq) == 1 && es.Expr.Seq[0].Oper.Kind == ast.OpBlock {
		return c.stmt(s)
	}
	c.vars.Push()
	defer c.vars.Pop()
	return c.stmt(s)
}

func (c *checker) stmt(s ast.Stmt) (Stmt, error) {
	switch s := s.(type) {
	case *ast.ExprStmt:
		e, err := c.expr(s.Expr)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{Expr: e}, nil
	case *ast.VarDeclare:
		return c.varDeclare(s)
	case *ast.VarMutate:
		return c.varMutate(s)
	case *ast.If:
		cond, err := c.condition(s.Cond, s.Src)
		if err != nil {
			return nil, err
		}
		body, err := c.branch(s.Body)
		if err != nil {
			return nil, err
		}
		out := &If{Cond: cond, Body: body, Src: s.Src}
		if s.Else != nil {
			if out.Else, err = c.branch(s.Else); err != nil {
				return nil, err
			}
		}
		return out, nil
	case *ast.While:
		cond, err := c.condition(s.Cond, s.Src)
		if err != nil {
			return nil, err
		}
		body, err := c.branch(s.Body)
		if err != nil {
			return nil, err
		}
		return &While{Cond: cond, Body: body, Src: s.Src}, nil
	}
	invariant.Unreachable("statement %T inside a block", s)
	return nil, nil
}

func (c *checker) condition(e ast.Expr, stmt lexer.Span) (Expr, error) {
	cond, err := c.expr(e)
	if err != nil {
		return Expr{}, err
	}
	if !cond.Type.Equal(Bool) {
		return Expr{}, &Error{Kind: NonBoolCond, Span: cond.Span, Ctx: stmt, Got: cond.Type}
	}
	return cond, nil
}

func (c *checker) varDeclare(s *ast.VarDeclare) (Stmt, error) {
	value, err := c.expr(s.Value)
	if err != nil {
		return nil, err
	}

	declared := value.Type
	if s.Annotation != nil {
		want, err := c.types.Resolve(*s.Annotation)
		if err != nil {
			return nil, err
		}
		if !want.Equal(value.Type) {
			return nil, &Error{Kind: VarTypeMismatch, Span: value.Span, Ctx: s.Annotation.Span, Want: want, Got: value.Type}
		}
		declared = want
	}
	if !declared.Inferred() {
		return nil, &Error{Kind: CannotInferType, Span: value.Span, Ctx: s.Ident.Span}
	}

	entry := c.declare(s.Ident.Name, VarEntry{Type: declared, Mutable: s.Mutable, Span: s.Src})
	return &VarDeclare{Name: entry.Flat, Value: value, Src: s.Src}, nil
}

func (c *checker) varMutate(s *ast.VarMutate) (Stmt, error) {
	entry, ok := c.vars.Lookup(s.Ident.Name)
	if !ok {
		return nil, c.varNotFound(s.Ident.Name, s.Ident.Span, s.Src)
	}
	if !entry.Mutable {
		return nil, &Error{Kind: AssignToImmutable, Span: s.Src, Ctx: entry.Span, Name: s.Ident.Name}
	}

	value, err := c.expr(s.Value)
	if err != nil {
		return nil, err
	}
	if op, ok := s.Op.Binary(); ok {
		current := Expr{Kind: ExprVar, Name: entry.Flat, Type: entry.Type, Span: s.Ident.Span}
		if value, err = c.binary(op, s.OpSpan, current, value); err != nil {
			return nil, err
		}
	}
	if !entry.Type.Equal(value.Type) {
		return nil, &Error{Kind: VarTypeMismatch, Span: value.Span, Ctx: entry.Span, Want: entry.Type, Got: value.Type}
	}
	return &VarMutate{Name: entry.Flat, Value: value, Src: s.Src}, nil
}

func (c *checker) varNotFound(name string, span, ctx lexer.Span) error {
	return &Error{Kind: VarNotFound, Span: span, Ctx: ctx, Name: name, Hint: suggest(name, c.vars.Visible())}
}

// expr checks an operator sequence, reading it in prefix order
func (c *checker) expr(e ast.Expr) (Expr, error) {
	return c.node(opseq.NewCursor(e.Seq))
}

func (c *checker) node(cur *opseq.Cursor[ast.Oper]) (Expr, error) {
	n := cur.Next()
	switch n.Space {
	case opseq.Single:
		operand, err := c.node(cur)
		if err != nil {
			return Expr{}, err
		}
		return c.unary(n, operand)
	case opseq.Double:
		lhs, err := c.node(cur)
		if err != nil {
			return Expr{}, err
		}
		rhs, err := c.node(cur)
		if err != nil {
			return Expr{}, err
		}
		return c.binary(n.Oper.Kind, n.Span, lhs, rhs)
	}
	return c.operand(n)
}

func (c *checker) unary(n ast.Node, operand Expr) (Expr, error) {
	span := n.Span.To(operand.Span)
	switch n.Oper.Kind {
	case ast.OpNeg, ast.OpPos:
		if !operand.Type.Equal(Num) {
			kind := CanOnlyNegNumber
			if n.Oper.Kind == ast.OpPos {
				kind = CanOnlyPosNumber
			}
			return Expr{}, &Error{Kind: kind, Span: n.Span, Ctx: operand.Span, Got: operand.Type}
		}
		if n.Oper.Kind == ast.OpPos {
			operand.Span = span
			return operand, nil
		}
	case ast.OpNot:
		if !operand.Type.Equal(Bool) {
			return Expr{}, &Error{Kind: CanOnlyNotBool, Span: n.Span, Ctx: operand.Span, Got: operand.Type}
		}
	}
	return Expr{Kind: ExprUnary, Op: n.Oper.Kind, Type: operand.Type, Args: []Expr{operand}, Span: span}, nil
}

func (c *checker) binary(op ast.OperKind, opSpan lexer.Span, lhs, rhs Expr) (Expr, error) {
	out := Expr{Kind: ExprBinary, Op: op, Args: []Expr{lhs, rhs}, Span: lhs.Span.To(rhs.Span)}

	var want Type
	switch op {
	case ast.OpAdd, ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		want = Num
	case ast.OpConcat:
		want = Str
	case ast.OpAnd, ast.OpOr:
		want = Bool
	default:
		if !lhs.Type.Equal(rhs.Type) {
			return Expr{}, &Error{Kind: ComparisonMismatch, Span: rhs.Span, Ctx: lhs.Span, Want: lhs.Type, Got: rhs.Type}
		}
		out.Type = Bool
		return out, nil
	}

	for _, side := range []Expr{lhs, rhs} {
		if !side.Type.Equal(want) {
			return Expr{}, &Error{Kind: OperandTypeMismatch, Span: side.Span, Ctx: opSpan, Op: op.Symbol(), Want: want, Got: side.Type}
		}
	}
	out.Type = want
	return out, nil
}

func (c *checker) operand(n ast.Node) (Expr, error) {
	o := n.Oper
	switch o.Kind {
	case ast.OpNumber:
		return Expr{Kind: ExprNumber, Num: o.Num, Type: Num, Span: n.Span}, nil
	case ast.OpString:
		return Expr{Kind: ExprString, Str: o.Str, Type: Str, Span: n.Span}, nil
	case ast.OpBool:
		return Expr{Kind: ExprBool, Bool: o.Bool, Type: Bool, Span: n.Span}, nil
	case ast.OpNil:
		return Expr{Kind: ExprNil, Type: Nil, Span: n.Span}, nil

	case ast.OpIdent:
		name := strings.Join(append([]string{o.Ident}, o.Path...), ".")
		entry, ok := c.vars.Lookup(name)
		if !ok {
			return Expr{}, c.varNotFound(name, n.Span, n.Span)
		}
		return Expr{Kind: ExprVar, Name: entry.Flat, Type: entry.Type, Span: n.Span}, nil

	case ast.OpGroup:
		inner, err := c.expr(o.Args[0])
		if err != nil {
			return Expr{}, err
		}
		inner.Span = n.Span
		return inner, nil

	case ast.OpTuple:
		out := Expr{Kind: ExprTuple, Span: n.Span}
		types := make([]Type, len(o.Args))
		for i, a := range o.Args {
			e, err := c.expr(a)
			if err != nil {
				return Expr{}, err
			}
			out.Args = append(out.Args, e)
			types[i] = e.Type
		}
		out.Type = TupleOf(types...)
		return out, nil

	case ast.OpList:
		return c.list(n)

	case ast.OpBlock:
		b, err := c.scopedBlock(o.Block)
		if err != nil {
			return Expr{}, err
		}
		return Expr{Kind: ExprBlock, Block: b, Type: b.Type, Span: n.Span}, nil

	case ast.OpCall:
		return c.call(n)

	case ast.OpBuiltin:
		return c.builtin(n)
	}
	invariant.Unreachable("operator %d in operand position", o.Kind)
	return Expr{}, nil
}

// list types a list literal by its first element
func (c *checker) list(n ast.Node) (Expr, error) {
	out := Expr{Kind: ExprList, Type: Type{Kind: KindList}, Span: n.Span}
	for i, a := range n.Oper.Args {
		e, err := c.expr(a)
		if err != nil {
			return Expr{}, err
		}
		if e.Type.IsList() {
			return Expr{}, &Error{Kind: NestedList, Span: e.Span, Ctx: n.Span, Got: e.Type}
		}
		if i == 0 {
			out.Type = ListOf(e.Type)
		} else if first := out.Args[0]; !first.Type.Equal(e.Type) {
			return Expr{}, &Error{Kind: ListTypeMismatch, Span: e.Span, Ctx: first.Span, Want: first.Type, Got: e.Type}
		}
		out.Args = append(out.Args, e)
	}
	return out, nil
}

func (c *checker) call(n ast.Node) (Expr, error) {
	o := n.Oper
	sig, ok := c.funcs.Get(o.Ident)
	if !ok {
		return Expr{}, &Error{Kind: FuncNotFound, Span: o.Name, Ctx: n.Span, Name: o.Ident, Hint: suggest(o.Ident, c.funcs.Names())}
	}
	if len(o.Args) != len(sig.Params) {
		return Expr{}, &Error{Kind: ArityMismatch, Span: n.Span, Ctx: sig.NameSpan, Name: sig.Name, Min: len(sig.Params), Max: len(sig.Params), Count: len(o.Args)}
	}

	out := Expr{Kind: ExprCall, Name: sig.Name, Type: sig.Return, Span: n.Span}
	for i, a := range o.Args {
		arg, err := c.expr(a)
		if err != nil {
			return Expr{}, err
		}
		if p := sig.Params[i]; !p.Type.Equal(arg.Type) {
			return Expr{}, &Error{Kind: ArgTypeMismatch, Span: arg.Span, Ctx: p.Span, Def: sig.NameSpan, Name: sig.Name, Want: p.Type, Got: arg.Type}
		}
		out.Args = append(out.Args, arg)
	}
	return out, nil
}
