package ast

import (
	"strings"

	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

// TypeKind tags a type annotation
type TypeKind int

const (
	TypeString TypeKind = iota
	TypeNumber
	TypeBool
	TypeNil
	TypeTuple
	TypeList
	TypeCustom
)

// Type is a type annotation as written in source: `str`, `num`, `bool`,
// `()`, `(T, U)`, `[T]` or a custom name.
type Type struct {
	Kind  TypeKind
	Elems []Type // tuple members
	Elem  *Type  // list element
	Name  string // custom type name
	Span  lexer.Span
}

func (t Type) String() string {
	switch t.Kind {
	case TypeString:
		return "str"
	case TypeNumber:
		return "num"
	case TypeBool:
		return "bool"
	case TypeNil:
		return "()"
	case TypeTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case TypeList:
		return "[" + t.Elem.String() + "]"
	}
	return t.Name
}
