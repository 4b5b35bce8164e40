package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aledsdavies/scrapile/pkgs/lexer"
	"github.com/aledsdavies/scrapile/pkgs/opseq"
)

// OperKind tags the payload carried by an Oper
type OperKind int

const (
	// Operands (opseq.None)
	OpNumber OperKind = iota
	OpString
	OpBool
	OpNil   // ()
	OpIdent // variable reference, possibly a dotted path
	OpCall  // user function call
	OpBuiltin
	OpGroup // (expr)
	OpTuple // (a, b, ...)
	OpList  // [a, b, ...]
	OpBlock // { ... }

	// Prefix operators (opseq.Single)
	OpNeg
	OpPos
	OpNot

	// Infix operators (opseq.Double)
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpConcat
	OpEq
	OpNe
	OpGt
	OpLt
	OpGte
	OpLte
	OpAnd
	OpOr
)

var operSymbols = map[OperKind]string{
	OpNeg:    "-",
	OpPos:    "+",
	OpNot:    "!",
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpMod:    "%",
	OpConcat: "<>",
	OpEq:     "==",
	OpNe:     "!=",
	OpGt:     ">",
	OpLt:     "<",
	OpGte:    ">=",
	OpLte:    "<=",
	OpAnd:    "&&",
	OpOr:     "||",
}

// Symbol returns the source spelling of an operator kind
func (k OperKind) Symbol() string {
	return operSymbols[k]
}

// Precedence ladder, tighter binds higher
const (
	PrecLogic   = 1 // && ||
	PrecCompare = 2 // == != > < >= <=
	PrecConcat  = 3 // <>
	PrecSum     = 4 // + -
	PrecProduct = 5 // * / %
	PrecUnary   = 6 // prefix - + !
	PrecDot     = 7 // a.b, folded into identifiers by the grammar
)

// Oper is the payload of one operator-sequence node. Only the fields for its
// Kind are set.
type Oper struct {
	Kind  OperKind
	Num   float64
	Str   string
	Bool  bool
	Ident string     // identifier, call or builtin name
	Path  []string   // dotted segments after Ident
	Name  lexer.Span // span of the name for calls and builtins
	Args  []Expr     // call/builtin arguments, group/tuple/list elements
	Block *Block
}

// Node is one entry in an expression's operator sequence
type Node = opseq.Node[Oper]

// Expr is an untyped expression
type Expr struct {
	Seq  opseq.Sequence[Oper]
	Span lexer.Span
}

// NewExpr wraps a parsed sequence
func NewExpr(seq opseq.Sequence[Oper]) Expr {
	return Expr{Seq: seq, Span: seq.Span()}
}

// String renders the expression as an S-expression, e.g. (+ 1 (* 2 3))
func (e Expr) String() string {
	if len(e.Seq) == 0 {
		return "<empty>"
	}
	c := opseq.NewCursor(e.Seq)
	var b strings.Builder
	writeNode(&b, c)
	return b.String()
}

func writeNode(b *strings.Builder, c *opseq.Cursor[Oper]) {
	n := c.Next()
	switch n.Space {
	case opseq.Single:
		fmt.Fprintf(b, "(%s", n.Oper.Kind.Symbol())
		b.WriteByte(' ')
		writeNode(b, c)
		b.WriteByte(')')
		return
	case opseq.Double:
		fmt.Fprintf(b, "(%s ", n.Oper.Kind.Symbol())
		writeNode(b, c)
		b.WriteByte(' ')
		writeNode(b, c)
		b.WriteByte(')')
		return
	}

	o := n.Oper
	switch o.Kind {
	case OpNumber:
		b.WriteString(strconv.FormatFloat(o.Num, 'g', -1, 64))
	case OpString:
		b.WriteString(strconv.Quote(o.Str))
	case OpBool:
		b.WriteString(strconv.FormatBool(o.Bool))
	case OpNil:
		b.WriteString("()")
	case OpIdent:
		b.WriteString(strings.Join(append([]string{o.Ident}, o.Path...), "."))
	case OpCall:
		fmt.Fprintf(b, "%s(%s)", o.Ident, joinExprs(o.Args))
	case OpBuiltin:
		fmt.Fprintf(b, "%s!(%s)", o.Ident, joinExprs(o.Args))
	case OpGroup:
		fmt.Fprintf(b, "(group %s)", joinExprs(o.Args))
	case OpTuple:
		fmt.Fprintf(b, "(tuple %s)", joinExprs(o.Args))
	case OpList:
		fmt.Fprintf(b, "[%s]", joinExprs(o.Args))
	case OpBlock:
		b.WriteString(o.Block.String())
	}
}

func joinExprs(exprs []Expr) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// Ident is a name with its span
type Ident struct {
	Name string
	Span lexer.Span
}

// Stmt is implemented by every statement
type Stmt interface {
	fmt.Stringer
	Span() lexer.Span
	stmtNode()
}

// ExprStmt is a bare expression
type ExprStmt struct {
	Expr Expr
}

// VarDeclare is `let [mut] ident [: Type] = value`
type VarDeclare struct {
	Mutable    bool
	Ident      Ident
	Annotation *Type // nil when omitted
	Value      Expr
	Src        lexer.Span
}

// MutateOp is the assignment operator of a mutation
type MutateOp int

const (
	Assign MutateOp = iota
	AddAssign
	SubAssign
	MulAssign
	DivAssign
	ModAssign
)

var mutateSymbols = [...]string{"=", "+=", "-=", "*=", "/=", "%="}

func (op MutateOp) String() string {
	return mutateSymbols[op]
}

// Binary returns the infix operator a compound assignment applies
func (op MutateOp) Binary() (OperKind, bool) {
	switch op {
	case AddAssign:
		return OpAdd, true
	case SubAssign:
		return OpSub, true
	case MulAssign:
		return OpMul, true
	case DivAssign:
		return OpDiv, true
	case ModAssign:
		return OpMod, true
	}
	return 0, false
}

// VarMutate is `mut ident op value`
type VarMutate struct {
	Ident  Ident
	Op     MutateOp
	OpSpan lexer.Span
	Value  Expr
	Src    lexer.Span
}

// If is `if (cond) body [else otherwise]`
type If struct {
	Cond Expr
	Body Stmt
	Else Stmt // nil without an else branch
	Src  lexer.Span
}

// While is `while (cond) body`
type While struct {
	Cond Expr
	Body Stmt
	Src  lexer.Span
}

// Param is one function parameter
type Param struct {
	Ident Ident
	Type  Type
	Src   lexer.Span
}

// FuncDef is `fn ident(params) -> Return { body }`
type FuncDef struct {
	Ident  Ident
	Params []Param
	Return Type
	Body   *Block
	Src    lexer.Span
}

func (*ExprStmt) stmtNode()   {}
func (*VarDeclare) stmtNode() {}
func (*VarMutate) stmtNode()  {}
func (*If) stmtNode()         {}
func (*While) stmtNode()      {}
func (*FuncDef) stmtNode()    {}

func (s *ExprStmt) Span() lexer.Span   { return s.Expr.Span }
func (s *VarDeclare) Span() lexer.Span { return s.Src }
func (s *VarMutate) Span() lexer.Span  { return s.Src }
func (s *If) Span() lexer.Span         { return s.Src }
func (s *While) Span() lexer.Span      { return s.Src }
func (s *FuncDef) Span() lexer.Span    { return s.Src }

func (s *ExprStmt) String() string {
	return s.Expr.String()
}

func (s *VarDeclare) String() string {
	var b strings.Builder
	b.WriteString("let ")
	if s.Mutable {
		b.WriteString("mut ")
	}
	b.WriteString(s.Ident.Name)
	if s.Annotation != nil {
		b.WriteString(": " + s.Annotation.String())
	}
	b.WriteString(" = " + s.Value.String())
	return b.String()
}

func (s *VarMutate) String() string {
	return fmt.Sprintf("mut %s %s %s", s.Ident.Name, s.Op, s.Value)
}

func (s *If) String() string {
	out := fmt.Sprintf("if (%s) %s", s.Cond, s.Body)
	if s.Else != nil {
		out += " else " + s.Else.String()
	}
	return out
}

func (s *While) String() string {
	return fmt.Sprintf("while (%s) %s", s.Cond, s.Body)
}

func (s *FuncDef) String() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.Ident.Name + ": " + p.Type.String()
	}
	return fmt.Sprintf("fn %s(%s) -> %s %s", s.Ident.Name, strings.Join(params, ", "), s.Return, s.Body)
}

// Block is a braced statement list; Tail is the unterminated last statement
// whose value becomes the block's value.
type Block struct {
	Stmts []Stmt
	Tail  Stmt // nil when the block ends with `;` or is empty
	Src   lexer.Span
}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString("{")
	for _, s := range b.Stmts {
		sb.WriteString(" " + s.String() + ";")
	}
	if b.Tail != nil {
		sb.WriteString(" " + b.Tail.String())
	}
	sb.WriteString(" }")
	return sb.String()
}

// Main is a `main { ... }` root
type Main struct {
	Body *Block
	Src  lexer.Span // span of the `main` keyword through the closing brace
}

// Program is a parsed source file
type Program struct {
	Mains []*Main
	Funcs []*FuncDef
}

func (p *Program) String() string {
	var parts []string
	for _, m := range p.Mains {
		parts = append(parts, "main "+m.Body.String())
	}
	for _, f := range p.Funcs {
		parts = append(parts, f.String())
	}
	return strings.Join(parts, "\n")
}
