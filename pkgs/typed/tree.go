package typed

import (
	"github.com/aledsdavies/scrapile/pkgs/ast"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

// ExprKind tags a typed expression
type ExprKind int

const (
	ExprNumber ExprKind = iota
	ExprString
	ExprBool
	ExprNil
	ExprVar     // Name is the flattened variable name
	ExprTuple   // Args are the members
	ExprList    // Args are the elements
	ExprBlock   // Block
	ExprCall    // Name is the function, Args the arguments
	ExprBuiltin // Builtin, Args
	ExprUnary   // Op is OpNeg or OpNot, Args[0] the operand
	ExprBinary  // Op, Args[0] and Args[1]
)

// Expr is a type-checked expression tree
type Expr struct {
	Kind    ExprKind
	Type    Type
	Span    lexer.Span
	Num     float64
	Str     string
	Bool    bool
	Name    string
	Op      ast.OperKind
	Builtin Builtin
	Args    []Expr
	Block   *Block
}

// Stmt is a type-checked statement
type Stmt interface {
	Span() lexer.Span
	// Type is the statement's value when used as a block tail
	Type() Type
	stmtNode()
}

// ExprStmt is an expression evaluated for its effects or as a tail value
type ExprStmt struct {
	Expr Expr
}

// VarDeclare stores a value into a newly declared variable
type VarDeclare struct {
	Name  string
	Value Expr
	Src   lexer.Span
}

// VarMutate stores a value into an existing variable. Compound assignments
// arrive already expanded into the binary operation.
type VarMutate struct {
	Name  string
	Value Expr
	Src   lexer.Span
}

type If struct {
	Cond Expr
	Body Stmt
	Else Stmt
	Src  lexer.Span
}

type While struct {
	Cond Expr
	Body Stmt
	Src  lexer.Span
}

func (*ExprStmt) stmtNode()   {}
func (*VarDeclare) stmtNode() {}
func (*VarMutate) stmtNode()  {}
func (*If) stmtNode()         {}
func (*While) stmtNode()      {}

func (s *ExprStmt) Span() lexer.Span   { return s.Expr.Span }
func (s *VarDeclare) Span() lexer.Span { return s.Src }
func (s *VarMutate) Span() lexer.Span  { return s.Src }
func (s *If) Span() lexer.Span         { return s.Src }
func (s *While) Span() lexer.Span      { return s.Src }

func (s *ExprStmt) Type() Type { return s.Expr.Type }
func (*VarDeclare) Type() Type { return Nil }
func (*VarMutate) Type() Type  { return Nil }
func (*If) Type() Type         { return Nil }
func (*While) Type() Type      { return Nil }

// Block is a checked statement list. Type is the tail's type, or Nil.
type Block struct {
	Stmts []Stmt
	Tail  Stmt
	Type  Type
	Src   lexer.Span
}

// Var is a flattened variable. Owner is the function that declares it, or
// "" for main.
type Var struct {
	Name  string
	Type  Type
	Owner string
}

// Func is a checked function definition
type Func struct {
	Name   string
	Params []Var
	Return Type
	Body   *Block
	Span   lexer.Span
}

// Program is the checked compilation unit
type Program struct {
	Main  *Block
	Funcs []*Func
	Vars  []Var // every declared variable and parameter, in declaration order
}
