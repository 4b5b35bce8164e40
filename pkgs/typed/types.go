package typed

import "strings"

// Kind tags a resolved type
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindNil
	KindTuple
	KindList
)

// Type is a fully resolved type. A list with a nil Elem is the element-less
// type of `[]`, written `[?]`, and matches every list type.
type Type struct {
	Kind  Kind
	Elems []Type
	Elem  *Type
}

var (
	Str  = Type{Kind: KindString}
	Num  = Type{Kind: KindNumber}
	Bool = Type{Kind: KindBool}
	Nil  = Type{Kind: KindNil}
)

// ListOf returns the list type with the given element
func ListOf(elem Type) Type {
	return Type{Kind: KindList, Elem: &elem}
}

// TupleOf returns a tuple type; fewer than two members collapse the same way
// tuple expressions do.
func TupleOf(elems ...Type) Type {
	switch len(elems) {
	case 0:
		return Nil
	case 1:
		return elems[0]
	}
	return Type{Kind: KindTuple, Elems: elems}
}

// IsList reports whether t is any list type
func (t Type) IsList() bool {
	return t.Kind == KindList
}

// Inferred reports whether every list inside t has a known element type
func (t Type) Inferred() bool {
	switch t.Kind {
	case KindList:
		return t.Elem != nil && t.Elem.Inferred()
	case KindTuple:
		for _, e := range t.Elems {
			if !e.Inferred() {
				return false
			}
		}
	}
	return true
}

// Equal reports whether two types are interchangeable. `[?]` equals any list.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindList:
		if t.Elem == nil || o.Elem == nil {
			return true
		}
		return t.Elem.Equal(*o.Elem)
	case KindTuple:
		if len(t.Elems) != len(o.Elems) {
			return false
		}
		for i := range t.Elems {
			if !t.Elems[i].Equal(o.Elems[i]) {
				return false
			}
		}
	}
	return true
}

func (t Type) String() string {
	switch t.Kind {
	case KindString:
		return "str"
	case KindNumber:
		return "num"
	case KindBool:
		return "bool"
	case KindNil:
		return "()"
	case KindTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = e.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindList:
		if t.Elem == nil {
			return "[?]"
		}
		return "[" + t.Elem.String() + "]"
	}
	return "<invalid>"
}
