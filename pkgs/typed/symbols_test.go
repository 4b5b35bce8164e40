package typed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/scrapile/pkgs/ast"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

func TestVarTableScopes(t *testing.T) {
	vars := NewVarTable("main")
	outer := vars.Declare("x", VarEntry{Type: Num})
	assert.Equal(t, "main/x", outer.Flat)

	vars.Push()
	assert.Equal(t, "main$1", vars.Prefix())
	inner := vars.Declare("x", VarEntry{Type: Str})
	assert.Equal(t, "main$1/x", inner.Flat)

	got, ok := vars.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, Str, got.Type)
	vars.Pop()

	got, ok = vars.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, "main/x", got.Flat)

	vars.Push()
	assert.Equal(t, "main$2", vars.Prefix())
	vars.Push()
	assert.Equal(t, "main$2$1", vars.Prefix())
}

func TestVarTableRedeclarationGetsFreshName(t *testing.T) {
	vars := NewVarTable("fn:f")
	assert.Equal(t, "fn:f/a", vars.Declare("a", VarEntry{Type: Num}).Flat)
	assert.Equal(t, "fn:f/a@2", vars.Declare("a", VarEntry{Type: Bool}).Flat)
	assert.Equal(t, "fn:f/a@3", vars.Declare("a", VarEntry{Type: Str}).Flat)

	got, _ := vars.Lookup("a")
	assert.Equal(t, Str, got.Type)
}

func TestVarTablePopRootPanics(t *testing.T) {
	vars := NewVarTable("main")
	assert.PanicsWithError(t, `precondition violated: cannot pop the root scope "main"`, func() {
		vars.Pop()
	})
}

func TestFuncTableRejectsDuplicates(t *testing.T) {
	funcs := NewFuncTable()
	require.NoError(t, funcs.Add(&FuncSig{Name: "f", NameSpan: lexer.Span{Start: 3, End: 4}}))
	require.NoError(t, funcs.Add(&FuncSig{Name: "g"}))

	err := funcs.Add(&FuncSig{Name: "f", NameSpan: lexer.Span{Start: 20, End: 21}})
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, DuplicateFunc, terr.Kind)
	assert.Equal(t, lexer.Span{Start: 3, End: 4}, terr.Ctx)
	assert.Equal(t, []string{"f", "g"}, funcs.Names())
}

func TestTypeTableResolve(t *testing.T) {
	types := NewTypeTable()
	types.Define("point", map[string]Type{"x": Num, "y": Num})

	num := ast.Type{Kind: ast.TypeNumber}
	tests := []struct {
		in   ast.Type
		want string
	}{
		{num, "num"},
		{ast.Type{Kind: ast.TypeNil}, "()"},
		{ast.Type{Kind: ast.TypeList, Elem: &num}, "[num]"},
		{ast.Type{Kind: ast.TypeTuple, Elems: []ast.Type{num, {Kind: ast.TypeBool}}}, "(num, bool)"},
		{ast.Type{Kind: ast.TypeCustom, Name: "point"}, "str"},
	}
	for _, tt := range tests {
		got, err := types.Resolve(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got.String())
	}

	_, err := types.Resolve(ast.Type{Kind: ast.TypeCustom, Name: "pointt"})
	var terr *Error
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, UnknownType, terr.Kind)
	assert.Equal(t, "did you mean `point`?", terr.Hint)
}

func TestTypeEquality(t *testing.T) {
	unknown := Type{Kind: KindList}
	assert.True(t, unknown.Equal(ListOf(Num)))
	assert.True(t, ListOf(Str).Equal(unknown))
	assert.False(t, ListOf(Str).Equal(ListOf(Num)))
	assert.False(t, TupleOf(Num, Str).Equal(TupleOf(Str, Num)))
	assert.True(t, TupleOf(Num).Equal(Num))
	assert.False(t, unknown.Inferred())
	assert.True(t, ListOf(Bool).Inferred())
	assert.Equal(t, "[?]", unknown.String())
}
