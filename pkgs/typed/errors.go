package typed

import (
	"fmt"

	"github.com/aledsdavies/scrapile/pkgs/diag"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

// ErrorKind identifies a type error
type ErrorKind int

const (
	NoMain ErrorKind = iota
	MultipleMain
	DuplicateFunc
	FuncNotFound
	BuiltinNotFound
	VarNotFound
	UnknownType
	AssignToImmutable
	VarTypeMismatch
	NonBoolCond
	CanOnlyNegNumber
	CanOnlyPosNumber
	CanOnlyNotBool
	OperandTypeMismatch
	ComparisonMismatch
	ListTypeMismatch
	NestedList
	CannotInferType
	ArityMismatch
	ArgTypeMismatch
	ReturnTypeMismatch
	ExpectedListVar
)

var errorKindNames = [...]string{
	NoMain:              "NoMain",
	MultipleMain:        "MultipleMain",
	DuplicateFunc:       "DuplicateFunc",
	FuncNotFound:        "FuncNotFound",
	BuiltinNotFound:     "BuiltinNotFound",
	VarNotFound:         "VarNotFound",
	UnknownType:         "UnknownType",
	AssignToImmutable:   "AssignToImmutable",
	VarTypeMismatch:     "VarTypeMismatch",
	NonBoolCond:         "NonBoolCond",
	CanOnlyNegNumber:    "CanOnlyNegNumber",
	CanOnlyPosNumber:    "CanOnlyPosNumber",
	CanOnlyNotBool:      "CanOnlyNotBool",
	OperandTypeMismatch: "OperandTypeMismatch",
	ComparisonMismatch:  "ComparisonMismatch",
	ListTypeMismatch:    "ListTypeMismatch",
	NestedList:          "NestedList",
	CannotInferType:     "CannotInferType",
	ArityMismatch:       "ArityMismatch",
	ArgTypeMismatch:     "ArgTypeMismatch",
	ReturnTypeMismatch:  "ReturnTypeMismatch",
	ExpectedListVar:     "ExpectedListVar",
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a type error. Which fields are set depends on Kind:
//
//   - Span is always the offending construct, Ctx what it conflicts with
//     (a declaration, the first `main`, the operator, the first list element).
//   - Def is the function definition cited by call errors.
//   - Want and Got are the expected and actual types of mismatch kinds.
//   - Min, Max and Count describe arity errors.
//   - Name is the unresolved identifier; Hint an optional suggestion.
type Error struct {
	Kind  ErrorKind
	Span  lexer.Span
	Ctx   lexer.Span
	Def   lexer.Span
	Name  string
	Op    string
	Want  Type
	Got   Type
	Min   int
	Max   int
	Count int
	Hint  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("type error at %d: %s", e.Span.Start, e.Report().Message)
}

// Report implements diag.Reportable
func (e *Error) Report() diag.Report {
	r := diag.Report{Hint: e.Hint}
	primary := func(msg string) { r.Primary = diag.Label{Span: e.Span, Message: msg} }
	context := func(span lexer.Span, msg string) {
		r.Context = append(r.Context, diag.Label{Span: span, Message: msg})
	}

	switch e.Kind {
	case NoMain:
		r.Message = "no main procedure found"
		primary("expected a `main { ... }` block in this file")
		if r.Hint == "" {
			r.Hint = "add a `main { ... }` block; it is where the program starts"
		}
	case MultipleMain:
		r.Message = "multiple main procedures found"
		primary("additional main procedure defined here")
		context(e.Ctx, "first main procedure defined here")
	case DuplicateFunc:
		r.Message = fmt.Sprintf("function `%s` is defined more than once", e.Name)
		primary("redefined here")
		context(e.Ctx, "first defined here")
	case FuncNotFound:
		r.Message = fmt.Sprintf("function `%s` not found", e.Name)
		primary("not found in this program")
		context(e.Ctx, "in this call")
	case BuiltinNotFound:
		r.Message = fmt.Sprintf("builtin function `%s!` not found", e.Name)
		primary("unknown builtin")
		context(e.Ctx, "in this call")
	case VarNotFound:
		r.Message = fmt.Sprintf("variable `%s` not found in this scope", e.Name)
		primary("not found in this scope")
		context(e.Ctx, "referenced here")
	case UnknownType:
		r.Message = fmt.Sprintf("type `%s` not found", e.Name)
		primary("unknown type")
		context(e.Ctx, "in this annotation")
	case AssignToImmutable:
		r.Message = fmt.Sprintf("cannot mutate immutable variable `%s`", e.Name)
		primary("cannot mutate this")
		context(e.Ctx, "variable declared here; consider declaring it with `let mut`")
	case VarTypeMismatch:
		r.Message = fmt.Sprintf("expected a value of type '%s', found '%s'", e.Want, e.Got)
		primary(fmt.Sprintf("this is of type '%s'", e.Got))
		context(e.Ctx, fmt.Sprintf("expected '%s' because of this", e.Want))
	case NonBoolCond:
		r.Message = fmt.Sprintf("conditions must be of type 'bool', found '%s'", e.Got)
		primary(fmt.Sprintf("this is of type '%s'", e.Got))
		context(e.Ctx, "in this statement")
	case CanOnlyNegNumber:
		r.Message = fmt.Sprintf("cannot negate value of type '%s'", e.Got)
		primary("expected a number to negate")
		context(e.Ctx, fmt.Sprintf("instead found value of type '%s'", e.Got))
	case CanOnlyPosNumber:
		r.Message = fmt.Sprintf("cannot pos value of type '%s'", e.Got)
		primary("expected a number to pos")
		context(e.Ctx, fmt.Sprintf("instead found value of type '%s'", e.Got))
	case CanOnlyNotBool:
		r.Message = fmt.Sprintf("cannot invert value of type '%s'", e.Got)
		primary("expected a bool to invert")
		context(e.Ctx, fmt.Sprintf("instead found value of type '%s'", e.Got))
	case OperandTypeMismatch:
		r.Message = fmt.Sprintf("operator `%s` expects operands of type '%s', found '%s'", e.Op, e.Want, e.Got)
		primary(fmt.Sprintf("this is of type '%s'", e.Got))
		context(e.Ctx, fmt.Sprintf("`%s` needs '%s' on both sides", e.Op, e.Want))
	case ComparisonMismatch:
		r.Message = fmt.Sprintf("cannot compare '%s' with '%s'", e.Want, e.Got)
		primary(fmt.Sprintf("this is of type '%s'", e.Got))
		context(e.Ctx, fmt.Sprintf("this is of type '%s'", e.Want))
	case ListTypeMismatch:
		r.Message = "list element type mismatch"
		primary(fmt.Sprintf("this element is of type '%s'", e.Got))
		context(e.Ctx, fmt.Sprintf("the list's type is set to '%s' by its first element", e.Want))
	case NestedList:
		r.Message = fmt.Sprintf("lists cannot contain lists, found '%s'", e.Got)
		primary("nested list")
		context(e.Ctx, "in this list")
	case CannotInferType:
		r.Message = "cannot infer the element type of an empty list"
		primary("element type unknown")
		context(e.Ctx, "consider adding a type annotation like `[num]`")
	case ArityMismatch:
		r.Message = fmt.Sprintf("`%s` expects %s, found %d", e.Name, arity(e.Min, e.Max), e.Count)
		primary(fmt.Sprintf("%d argument(s) supplied", e.Count))
		context(e.Ctx, "defined here")
	case ArgTypeMismatch:
		r.Message = fmt.Sprintf("argument of `%s` expects type '%s', found '%s'", e.Name, e.Want, e.Got)
		primary(fmt.Sprintf("this is of type '%s'", e.Got))
		context(e.Ctx, fmt.Sprintf("parameter declared as '%s'", e.Want))
		if e.Def != (lexer.Span{}) {
			context(e.Def, "in this function")
		}
	case ReturnTypeMismatch:
		r.Message = fmt.Sprintf("function `%s` returns '%s', found '%s'", e.Name, e.Want, e.Got)
		primary(fmt.Sprintf("this evaluates to '%s'", e.Got))
		context(e.Ctx, "return type declared here")
	case ExpectedListVar:
		r.Message = fmt.Sprintf("`%s!` mutates its list, expected a list variable", e.Name)
		primary("not a variable")
		context(e.Ctx, "in this call")
	default:
		r.Message = e.Kind.String()
		primary("")
	}
	return r
}

func arity(lo, hi int) string {
	switch {
	case lo == hi && lo == 1:
		return "1 argument"
	case lo == hi:
		return fmt.Sprintf("%d arguments", lo)
	}
	return fmt.Sprintf("%d to %d arguments", lo, hi)
}
