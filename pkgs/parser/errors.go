package parser

import (
	"fmt"

	"github.com/aledsdavies/scrapile/pkgs/diag"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

// ErrorKind identifies a syntax error
type ErrorKind int

const (
	UnexpectedCharacter ErrorKind = iota
	UnterminatedString
	InvalidEscape
	ExpectedStmt
	ExpectedExpr
	ExpectedRoot
	ExpectedType
	UnclosedParentheses
	UnclosedBracket
	UnclosedBrace
	ExpectedCommaOrRParen
	ExpectedCommaOrRBracket
	ExpectedSemiOrRBrace
	ExpectedCallLParen
	ExpectedCondLParen
	ExpectedBlockForMain
	ExpectedMutOrIdent
	ExpectedColonOrEQ
	ExpectedEQ
	ExpectedIdent
	ExpectedMutationOp
	ExpectedFnParams
	ExpectedFnParamColon
	ExpectedFnRetrnType
	ExpectedFnBody
	ExpectedOperand
	UnexpectedOperand
)

var errorKindNames = [...]string{
	UnexpectedCharacter:     "UnexpectedCharacter",
	UnterminatedString:      "UnterminatedString",
	InvalidEscape:           "InvalidEscape",
	ExpectedStmt:            "ExpectedStmt",
	ExpectedExpr:            "ExpectedExpr",
	ExpectedRoot:            "ExpectedRoot",
	ExpectedType:            "ExpectedType",
	UnclosedParentheses:     "UnclosedParentheses",
	UnclosedBracket:         "UnclosedBracket",
	UnclosedBrace:           "UnclosedBrace",
	ExpectedCommaOrRParen:   "ExpectedCommaOrRParen",
	ExpectedCommaOrRBracket: "ExpectedCommaOrRBracket",
	ExpectedSemiOrRBrace:    "ExpectedSemiOrRBrace",
	ExpectedCallLParen:      "ExpectedCallLParen",
	ExpectedCondLParen:      "ExpectedCondLParen",
	ExpectedBlockForMain:    "ExpectedBlockForMain",
	ExpectedMutOrIdent:      "ExpectedMutOrIdent",
	ExpectedColonOrEQ:       "ExpectedColonOrEQ",
	ExpectedEQ:              "ExpectedEQ",
	ExpectedIdent:           "ExpectedIdent",
	ExpectedMutationOp:      "ExpectedMutationOp",
	ExpectedFnParams:        "ExpectedFnParams",
	ExpectedFnParamColon:    "ExpectedFnParamColon",
	ExpectedFnRetrnType:     "ExpectedFnRetrnType",
	ExpectedFnBody:          "ExpectedFnBody",
	ExpectedOperand:         "ExpectedOperand",
	UnexpectedOperand:       "UnexpectedOperand",
}

func (k ErrorKind) String() string {
	if k >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a syntax error. Span is the offending token; Ctx points at the
// construct that made it an error (the opening delimiter, the `let`, the
// operator missing an operand). Kinds without a natural context set Ctx to
// Span.
type Error struct {
	Kind ErrorKind
	Span lexer.Span
	Ctx  lexer.Span
}

func newError(kind ErrorKind, span, ctx lexer.Span) *Error {
	return &Error{Kind: kind, Span: span, Ctx: ctx}
}

func (e *Error) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Span.Start, e.Report().Message)
}

// Report implements diag.Reportable
func (e *Error) Report() diag.Report {
	msg, label, ctxLabel := e.describe()
	return diag.Report{
		Message: msg,
		Primary: diag.Label{Span: e.Span, Message: label},
		Context: []diag.Label{{Span: e.Ctx, Message: ctxLabel}},
	}
}

func (e *Error) describe() (msg, label, ctx string) {
	switch e.Kind {
	case UnexpectedCharacter:
		return "unexpected or invalid character", "unexpected character", "consider removing this"
	case UnterminatedString:
		return "unterminated string literal", "string starts here", "add a closing `\"`"
	case InvalidEscape:
		return "invalid escape sequence in string", "in this string", "valid escapes are \\\" \\\\ \\b \\f \\n \\r \\t \\uXXXX"
	case ExpectedStmt:
		return "expected statement", "found this instead", "consider removing this or inserting a statement"
	case ExpectedExpr:
		return "expected an expression", "found this instead", "consider removing this or inserting an expression"
	case ExpectedRoot:
		return "expected root token", "expected a root token like `main` or `fn ...`", "consider wrapping this in a `main { ... }` or function"
	case ExpectedType:
		return "expected a type annotation", "expected a type annotation", "consider adding a type annotation here, like `str` or `num`"
	case UnclosedParentheses:
		return "unclosed parentheses", "expected `)`", "to complete this"
	case UnclosedBracket:
		return "unclosed bracket", "expected `]`", "to complete this list"
	case UnclosedBrace:
		return "unclosed brace", "expected `}`", "to complete this block"
	case ExpectedCommaOrRParen:
		return "expected comma or right parenthesis", "expected `,` or `)`", "to continue or complete this"
	case ExpectedCommaOrRBracket:
		return "expected comma or right bracket", "expected `,` or `]`", "to continue or complete this list"
	case ExpectedSemiOrRBrace:
		return "expected semi-colon or right brace", "expected `;` or `}`", "to continue or complete this block"
	case ExpectedCallLParen:
		return "expected arguments for this function call", "expected arguments `(`", "this call expected arguments"
	case ExpectedCondLParen:
		return "expected a parenthesized condition", "expected `(`", "conditions are written `(cond)`"
	case ExpectedBlockForMain:
		return "expected a body for the main procedure", "expected body `{`", "expected due to the `main` keyword"
	case ExpectedMutOrIdent:
		return "expected either a `mut` keyword or identifier in `let` statement", "found this instead", "in this let statement"
	case ExpectedColonOrEQ:
		return "expected either a `:` (for type annotations) or a `=` (for value definition) in let statement", "found this instead", "in this let statement"
	case ExpectedEQ:
		return "expected a `=` to define a value in let statement", "found this instead", "in this let statement"
	case ExpectedIdent:
		return "expected an identifier", "found this instead", "in this declaration"
	case ExpectedMutationOp:
		return "expected an assignment operator", "expected one of `=`, `+=`, `-=`, `*=`, `/=`, `%=`", "in this mutation"
	case ExpectedFnParams:
		return "expected a parameter list", "expected `(`", "in this function definition"
	case ExpectedFnParamColon:
		return "expected `:` and a type after the parameter name", "expected `:`", "in this parameter"
	case ExpectedFnRetrnType:
		return "expected a return type", "expected `-> Type`", "in this function definition"
	case ExpectedFnBody:
		return "expected a function body", "expected body `{`", "in this function definition"
	case ExpectedOperand:
		return "expected an expression", "found this instead", "expected an operand after this"
	case UnexpectedOperand:
		return "unexpected operand", "unexpected operand", "did not expect an operand after this (binary `+` and `-` need spaces on both sides)"
	}
	return e.Kind.String(), "", ""
}
