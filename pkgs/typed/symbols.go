package typed

import (
	"fmt"
	"slices"

	"github.com/aledsdavies/scrapile/internal/invariant"
	"github.com/aledsdavies/scrapile/pkgs/ast"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

// TypeTable holds named custom types and their property types. The language
// has no way to declare one yet, so annotations naming a custom type are only
// validated against it.
type TypeTable struct {
	types map[string]map[string]Type
}

// NewTypeTable returns an empty table
func NewTypeTable() *TypeTable {
	return &TypeTable{types: make(map[string]map[string]Type)}
}

// Define registers a custom type
func (t *TypeTable) Define(name string, props map[string]Type) {
	t.types[name] = props
}

// Resolve turns a source annotation into a Type
func (t *TypeTable) Resolve(a ast.Type) (Type, error) {
	switch a.Kind {
	case ast.TypeString:
		return Str, nil
	case ast.TypeNumber:
		return Num, nil
	case ast.TypeBool:
		return Bool, nil
	case ast.TypeNil:
		return Nil, nil
	case ast.TypeTuple:
		elems := make([]Type, len(a.Elems))
		for i, e := range a.Elems {
			r, err := t.Resolve(e)
			if err != nil {
				return Type{}, err
			}
			elems[i] = r
		}
		return TupleOf(elems...), nil
	case ast.TypeList:
		elem, err := t.Resolve(*a.Elem)
		if err != nil {
			return Type{}, err
		}
		if elem.IsList() {
			return Type{}, &Error{Kind: NestedList, Span: a.Elem.Span, Ctx: a.Span, Got: elem}
		}
		return ListOf(elem), nil
	}

	if _, ok := t.types[a.Name]; !ok {
		names := make([]string, 0, len(t.types)+3)
		names = append(names, "str", "num", "bool")
		for name := range t.types {
			names = append(names, name)
		}
		return Type{}, &Error{Kind: UnknownType, Span: a.Span, Ctx: a.Span, Name: a.Name, Hint: suggest(a.Name, names)}
	}
	// Values of a custom type are carried as text.
	return Str, nil
}

// VarEntry is a declared variable
type VarEntry struct {
	Ident   string
	Type    Type
	Mutable bool
	Span    lexer.Span // the declaring `let` or parameter
	Flat    string     // globally unique name
}

type frame struct {
	prefix   string
	vars     map[string]VarEntry
	children int            // nested scopes opened so far
	versions map[string]int // redeclarations per ident in this frame
}

// VarTable is a stack of scope frames. Lookups search from the innermost
// frame outwards; child frames never modify their parents' entries.
type VarTable struct {
	frames []*frame
}

// NewVarTable returns a table with a single root frame
func NewVarTable(prefix string) *VarTable {
	return &VarTable{frames: []*frame{newFrame(prefix)}}
}

func newFrame(prefix string) *frame {
	return &frame{prefix: prefix, vars: make(map[string]VarEntry), versions: make(map[string]int)}
}

func (t *VarTable) top() *frame {
	return t.frames[len(t.frames)-1]
}

// Prefix is the name prefix of the innermost frame
func (t *VarTable) Prefix() string {
	return t.top().prefix
}

// Push opens a nested scope named `<parent>$<n>`
func (t *VarTable) Push() {
	parent := t.top()
	parent.children++
	t.frames = append(t.frames, newFrame(fmt.Sprintf("%s$%d", parent.prefix, parent.children)))
}

// Pop closes the innermost scope
func (t *VarTable) Pop() {
	invariant.Precondition(len(t.frames) > 1, "cannot pop the root scope %q", t.frames[0].prefix)
	t.frames = t.frames[:len(t.frames)-1]
}

// Declare adds ident to the innermost scope and returns the stored entry
// with its flattened name. Redeclaring an ident in the same scope shadows it
// under a fresh name.
func (t *VarTable) Declare(ident string, entry VarEntry) VarEntry {
	f := t.top()
	flat := f.prefix + "/" + ident
	if n := f.versions[ident]; n > 0 {
		flat = fmt.Sprintf("%s@%d", flat, n+1)
	}
	f.versions[ident]++

	entry.Ident = ident
	entry.Flat = flat
	f.vars[ident] = entry
	return entry
}

// Lookup finds ident in the innermost scope that declares it
func (t *VarTable) Lookup(ident string) (VarEntry, bool) {
	for i := len(t.frames) - 1; i >= 0; i-- {
		if e, ok := t.frames[i].vars[ident]; ok {
			return e, true
		}
	}
	return VarEntry{}, false
}

// Visible returns every ident in scope, for suggestions
func (t *VarTable) Visible() []string {
	var names []string
	for _, f := range t.frames {
		for name := range f.vars {
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}
	slices.Sort(names)
	return names
}

// Param is a resolved function parameter
type Param struct {
	Name string
	Type Type
	Span lexer.Span
}

// FuncSig is a function signature collected before any body is checked
type FuncSig struct {
	Name       string
	Params     []Param
	Return     Type
	ReturnSpan lexer.Span
	NameSpan   lexer.Span
	Span       lexer.Span
}

// FuncTable maps function names to signatures
type FuncTable struct {
	funcs map[string]*FuncSig
	order []string
}

// NewFuncTable returns an empty table
func NewFuncTable() *FuncTable {
	return &FuncTable{funcs: make(map[string]*FuncSig)}
}

// Add registers a signature, rejecting duplicate names
func (t *FuncTable) Add(sig *FuncSig) error {
	if prev, ok := t.funcs[sig.Name]; ok {
		return &Error{Kind: DuplicateFunc, Span: sig.NameSpan, Ctx: prev.NameSpan, Name: sig.Name}
	}
	t.funcs[sig.Name] = sig
	t.order = append(t.order, sig.Name)
	return nil
}

// Get returns the signature for name
func (t *FuncTable) Get(name string) (*FuncSig, bool) {
	sig, ok := t.funcs[name]
	return sig, ok
}

// Names returns function names in definition order
func (t *FuncTable) Names() []string {
	return slices.Clone(t.order)
}
