// Package scratch holds the lowered instruction vocabulary of a Scratch 3
// stage and turns it into a project document.
//
// The IR is deliberately close to Scratch: every Statement kind becomes one
// stack block, every non-literal Expr kind one reporter block and every
// Condition kind one boolean block. Assemble performs that mapping.
package scratch

// StmtKind tags a Statement
type StmtKind uint8

const (
	StmtSetVar      StmtKind = iota // Name = Value
	StmtShowVar                     // Name
	StmtHideVar                     // Name
	StmtPushList                    // append Value to list Name
	StmtInsertList                  // insert Value at Index (1-based) of Name
	StmtReplaceList                 // replace item Index of Name with Value
	StmtRemoveList                  // delete item Index of Name
	StmtClearList                   // delete all of Name
	StmtShowList                    // Name
	StmtHideList                    // Name
	StmtIf                          // Cond, Body
	StmtIfElse                      // Cond, Body, Else
	StmtRepeatUntil                 // Cond, Body
	StmtCall                        // procedure Name
	StmtAsk                         // Value is the prompt
	StmtStopAll
)

var stmtNames = [...]string{
	StmtSetVar:      "SetVar",
	StmtShowVar:     "ShowVar",
	StmtHideVar:     "HideVar",
	StmtPushList:    "PushList",
	StmtInsertList:  "InsertList",
	StmtReplaceList: "ReplaceList",
	StmtRemoveList:  "RemoveList",
	StmtClearList:   "ClearList",
	StmtShowList:    "ShowList",
	StmtHideList:    "HideList",
	StmtIf:          "If",
	StmtIfElse:      "IfElse",
	StmtRepeatUntil: "RepeatUntil",
	StmtCall:        "Call",
	StmtAsk:         "Ask",
	StmtStopAll:     "StopAll",
}

func (k StmtKind) String() string {
	if int(k) < len(stmtNames) {
		return stmtNames[k]
	}
	return "Stmt(?)"
}

// Statement is one stack block. Only the fields its Kind names are set.
type Statement struct {
	Kind  StmtKind    `cbor:"1,keyasint"`
	Name  string      `cbor:"2,keyasint,omitempty"`
	Value Expr        `cbor:"3,keyasint"`
	Index Expr        `cbor:"4,keyasint"`
	Cond  *Condition  `cbor:"5,keyasint,omitempty"`
	Body  []Statement `cbor:"6,keyasint,omitempty"`
	Else  []Statement `cbor:"7,keyasint,omitempty"`
}

// ExprKind tags an Expr
type ExprKind uint8

const (
	ExprString      ExprKind = iota // Str
	ExprNumber                      // Num
	ExprPosNumber                   // Num
	ExprPosInteger                  // Num
	ExprInteger                     // Num
	ExprVariable                    // Name
	ExprList                        // Name, the list's contents as text
	ExprListElement                 // item Args[0] of list Name
	ExprListLength                  // Name
	ExprAdd                         // Args[0] + Args[1]
	ExprSub
	ExprMul
	ExprDiv
	ExprMod
	ExprJoin      // Args[0] joined with Args[1]
	ExprStrLength // Args[0]
	ExprLetterOf  // letter Args[0] of Args[1]
	ExprAnswer
	ExprTimer
	ExprCondition // Cond as "true"/"false"
)

var exprNames = [...]string{
	ExprString:      "String",
	ExprNumber:      "Number",
	ExprPosNumber:   "PosNumber",
	ExprPosInteger:  "PosInteger",
	ExprInteger:     "Integer",
	ExprVariable:    "Variable",
	ExprList:        "List",
	ExprListElement: "ListElement",
	ExprListLength:  "ListLength",
	ExprAdd:         "Add",
	ExprSub:         "Sub",
	ExprMul:         "Mul",
	ExprDiv:         "Div",
	ExprMod:         "Mod",
	ExprJoin:        "Join",
	ExprStrLength:   "StrLength",
	ExprLetterOf:    "LetterOf",
	ExprAnswer:      "Answer",
	ExprTimer:       "Timer",
	ExprCondition:   "Condition",
}

func (k ExprKind) String() string {
	if int(k) < len(exprNames) {
		return exprNames[k]
	}
	return "Expr(?)"
}

// Expr is a value: a literal, a variable read or a reporter block
type Expr struct {
	Kind ExprKind   `cbor:"1,keyasint"`
	Str  string     `cbor:"2,keyasint,omitempty"`
	Num  float64    `cbor:"3,keyasint,omitempty"`
	Name string     `cbor:"4,keyasint,omitempty"`
	Args []Expr     `cbor:"5,keyasint,omitempty"`
	Cond *Condition `cbor:"6,keyasint,omitempty"`
}

// IsLiteral reports whether e is written inline rather than as a block
func (e Expr) IsLiteral() bool {
	return e.Kind <= ExprInteger
}

// CondKind tags a Condition
type CondKind uint8

const (
	CondEqual   CondKind = iota // Lhs = Rhs
	CondGreater                 // Lhs > Rhs
	CondLess                    // Lhs < Rhs
	CondAnd                     // Left and Right
	CondOr                      // Left or Right
	CondNot                     // not Left
)

var condNames = [...]string{
	CondEqual:   "Equal",
	CondGreater: "Greater",
	CondLess:    "Less",
	CondAnd:     "And",
	CondOr:      "Or",
	CondNot:     "Not",
}

func (k CondKind) String() string {
	if int(k) < len(condNames) {
		return condNames[k]
	}
	return "Cond(?)"
}

// Condition is a boolean block. It only fits boolean slots; wrap it in an
// ExprCondition to use it as a value.
type Condition struct {
	Kind  CondKind   `cbor:"1,keyasint"`
	Lhs   Expr       `cbor:"2,keyasint"`
	Rhs   Expr       `cbor:"3,keyasint"`
	Left  *Condition `cbor:"4,keyasint,omitempty"`
	Right *Condition `cbor:"5,keyasint,omitempty"`
}

// Procedure is a named, argument-less custom block
type Procedure struct {
	Name string      `cbor:"1,keyasint"`
	Body []Statement `cbor:"2,keyasint,omitempty"`
}

// Assembly is the whole lowered program
type Assembly struct {
	Stmts      []Statement `cbor:"1,keyasint,omitempty"`
	Variables  []string    `cbor:"2,keyasint,omitempty"`
	Lists      []string    `cbor:"3,keyasint,omitempty"`
	Procedures []Procedure `cbor:"4,keyasint,omitempty"`
}

// Constructors keep lowering code readable.

func Str(s string) Expr     { return Expr{Kind: ExprString, Str: s} }
func Num(n float64) Expr    { return Expr{Kind: ExprNumber, Num: n} }
func Int(n int) Expr        { return Expr{Kind: ExprInteger, Num: float64(n)} }
func Var(name string) Expr  { return Expr{Kind: ExprVariable, Name: name} }
func List(name string) Expr { return Expr{Kind: ExprList, Name: name} }

func Item(list string, index Expr) Expr {
	return Expr{Kind: ExprListElement, Name: list, Args: []Expr{index}}
}

func Length(list string) Expr { return Expr{Kind: ExprListLength, Name: list} }

func binary(k ExprKind, a, b Expr) Expr { return Expr{Kind: k, Args: []Expr{a, b}} }

func Add(a, b Expr) Expr  { return binary(ExprAdd, a, b) }
func Sub(a, b Expr) Expr  { return binary(ExprSub, a, b) }
func Mul(a, b Expr) Expr  { return binary(ExprMul, a, b) }
func Div(a, b Expr) Expr  { return binary(ExprDiv, a, b) }
func Mod(a, b Expr) Expr  { return binary(ExprMod, a, b) }
func Join(a, b Expr) Expr { return binary(ExprJoin, a, b) }

func StrLength(s Expr) Expr { return Expr{Kind: ExprStrLength, Args: []Expr{s}} }

func LetterOf(index, s Expr) Expr { return binary(ExprLetterOf, index, s) }

func Answer() Expr { return Expr{Kind: ExprAnswer} }
func Timer() Expr  { return Expr{Kind: ExprTimer} }

// Value wraps a condition for a value slot
func Value(c Condition) Expr { return Expr{Kind: ExprCondition, Cond: &c} }

func Equal(a, b Expr) Condition   { return Condition{Kind: CondEqual, Lhs: a, Rhs: b} }
func Greater(a, b Expr) Condition { return Condition{Kind: CondGreater, Lhs: a, Rhs: b} }
func Less(a, b Expr) Condition    { return Condition{Kind: CondLess, Lhs: a, Rhs: b} }

func And(a, b Condition) Condition { return Condition{Kind: CondAnd, Left: &a, Right: &b} }
func Or(a, b Condition) Condition  { return Condition{Kind: CondOr, Left: &a, Right: &b} }
func Not(c Condition) Condition    { return Condition{Kind: CondNot, Left: &c} }

func SetVar(name string, v Expr) Statement { return Statement{Kind: StmtSetVar, Name: name, Value: v} }
func PushList(name string, v Expr) Statement {
	return Statement{Kind: StmtPushList, Name: name, Value: v}
}

func InsertList(name string, index, v Expr) Statement {
	return Statement{Kind: StmtInsertList, Name: name, Index: index, Value: v}
}

func ReplaceList(name string, index, v Expr) Statement {
	return Statement{Kind: StmtReplaceList, Name: name, Index: index, Value: v}
}

func RemoveList(name string, index Expr) Statement {
	return Statement{Kind: StmtRemoveList, Name: name, Index: index}
}

func ClearList(name string) Statement { return Statement{Kind: StmtClearList, Name: name} }

func If(c Condition, body ...Statement) Statement {
	return Statement{Kind: StmtIf, Cond: &c, Body: body}
}

func IfElse(c Condition, body, otherwise []Statement) Statement {
	return Statement{Kind: StmtIfElse, Cond: &c, Body: body, Else: otherwise}
}

func RepeatUntil(c Condition, body ...Statement) Statement {
	return Statement{Kind: StmtRepeatUntil, Cond: &c, Body: body}
}

func Call(proc string) Statement     { return Statement{Kind: StmtCall, Name: proc} }
func Ask(prompt Expr) Statement      { return Statement{Kind: StmtAsk, Value: prompt} }
func StopAll() Statement             { return Statement{Kind: StmtStopAll} }
func ShowList(name string) Statement { return Statement{Kind: StmtShowList, Name: name} }
func HideList(name string) Statement { return Statement{Kind: StmtHideList, Name: name} }
func ShowVar(name string) Statement  { return Statement{Kind: StmtShowVar, Name: name} }
func HideVar(name string) Statement  { return Statement{Kind: StmtHideVar, Name: name} }
