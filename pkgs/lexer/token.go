package lexer

import "fmt"

// TokenType represents lexical tokens of the scrapile language
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	NUMBER  // 42, 3.14
	STRING  // "hello"
	BOOLEAN // true, false

	// Identifiers
	IDENTIFIER // variable, function and type names
	BUILTIN    // println! - builtin function call

	// Keywords
	MAIN  // main
	LET   // let
	MUT   // mut
	IF    // if
	ELSE  // else
	WHILE // while
	FN    // fn

	// Punctuation
	DOT       // .
	COLON     // :
	SEMICOLON // ;
	COMMA     // ,
	ARROW     // ->

	// Logical operators
	AND_AND // &&
	OR_OR   // ||
	NOT     // !

	// Arithmetic and string operators
	PLUS            // +
	MINUS           // -
	MULTIPLY        // *
	DIVIDE          // /
	MODULO          // %
	CONCAT          // <>
	PLUS_ASSIGN     // +=
	MINUS_ASSIGN    // -=
	MULTIPLY_ASSIGN // *=
	DIVIDE_ASSIGN   // /=
	MODULO_ASSIGN   // %=

	// Comparison and assignment
	EQUALS // =
	EQ_EQ  // ==
	NOT_EQ // !=
	LT     // <
	LT_EQ  // <=
	GT     // >
	GT_EQ  // >=

	// Brackets and braces
	LPAREN  // (
	RPAREN  // )
	LSQUARE // [
	RSQUARE // ]
	LBRACE  // {
	RBRACE  // }
)

var tokenNames = [...]string{
	EOF:             "EOF",
	ILLEGAL:         "ILLEGAL",
	NUMBER:          "NUMBER",
	STRING:          "STRING",
	BOOLEAN:         "BOOLEAN",
	IDENTIFIER:      "IDENTIFIER",
	BUILTIN:         "BUILTIN",
	MAIN:            "MAIN",
	LET:             "LET",
	MUT:             "MUT",
	IF:              "IF",
	ELSE:            "ELSE",
	WHILE:           "WHILE",
	FN:              "FN",
	DOT:             "DOT",
	COLON:           "COLON",
	SEMICOLON:       "SEMICOLON",
	COMMA:           "COMMA",
	ARROW:           "ARROW",
	AND_AND:         "AND_AND",
	OR_OR:           "OR_OR",
	NOT:             "NOT",
	PLUS:            "PLUS",
	MINUS:           "MINUS",
	MULTIPLY:        "MULTIPLY",
	DIVIDE:          "DIVIDE",
	MODULO:          "MODULO",
	CONCAT:          "CONCAT",
	PLUS_ASSIGN:     "PLUS_ASSIGN",
	MINUS_ASSIGN:    "MINUS_ASSIGN",
	MULTIPLY_ASSIGN: "MULTIPLY_ASSIGN",
	DIVIDE_ASSIGN:   "DIVIDE_ASSIGN",
	MODULO_ASSIGN:   "MODULO_ASSIGN",
	EQUALS:          "EQUALS",
	EQ_EQ:           "EQ_EQ",
	NOT_EQ:          "NOT_EQ",
	LT:              "LT",
	LT_EQ:           "LT_EQ",
	GT:              "GT",
	GT_EQ:           "GT_EQ",
	LPAREN:          "LPAREN",
	RPAREN:          "RPAREN",
	LSQUARE:         "LSQUARE",
	RSQUARE:         "RSQUARE",
	LBRACE:          "LBRACE",
	RBRACE:          "RBRACE",
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Keywords maps reserved words to their token types
var Keywords = map[string]TokenType{
	"main":  MAIN,
	"let":   LET,
	"mut":   MUT,
	"if":    IF,
	"else":  ELSE,
	"while": WHILE,
	"fn":    FN,
	"true":  BOOLEAN,
	"false": BOOLEAN,
}

// IllegalReason explains why the lexer produced an ILLEGAL token
type IllegalReason int

const (
	IllegalNone IllegalReason = iota
	IllegalCharacter
	IllegalUnterminatedString
	IllegalEscape
)

// Span is a half-open byte range [Start, End) into the source
type Span struct {
	Start int
	End   int
}

// To returns the span covering s through other
func (s Span) To(other Span) Span {
	return Span{Start: s.Start, End: other.End}
}

// Len returns the number of bytes covered by the span
func (s Span) Len() int {
	return s.End - s.Start
}

// Position represents a position in the source code
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// Token represents a lexical token
type Token struct {
	Type     TokenType
	Text     string   // Raw source text of the token
	Value    string   // Decoded string contents, identifier or builtin name
	Number   float64  // Parsed value for NUMBER tokens
	Bool     bool     // Parsed value for BOOLEAN tokens
	Span     Span     // Byte span in the source
	Position Position // Start position in the source

	// Spacing decides whether +/- are prefix or infix operators.
	// Start and end of input count as whitespace.
	SpaceBefore bool
	SpaceAfter  bool

	Reason IllegalReason // Set for ILLEGAL tokens
}

// DoubleSpaced reports whether the token has whitespace on both sides
func (t Token) DoubleSpaced() bool {
	return t.SpaceBefore && t.SpaceAfter
}

// Is reports whether the token has one of the given types
func (t Token) Is(types ...TokenType) bool {
	for _, typ := range types {
		if t.Type == typ {
			return true
		}
	}
	return false
}

func (t Token) String() string {
	if t.Type == EOF {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.Type, t.Text)
}
