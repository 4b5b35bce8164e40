package diag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

func TestLineCol(t *testing.T) {
	src := "ab\ncd\n\nef"
	tests := []struct {
		offset    int
		line, col int
	}{
		{0, 1, 1},
		{1, 1, 2},
		{3, 2, 1},
		{4, 2, 2},
		{6, 3, 1},
		{7, 4, 1},
		{99, 4, 3},
		{-5, 1, 1},
	}
	for _, tt := range tests {
		line, col := LineCol(src, tt.offset)
		assert.Equal(t, tt.line, line, "line for offset %d", tt.offset)
		assert.Equal(t, tt.col, col, "col for offset %d", tt.offset)
	}
}

func TestRenderPlain(t *testing.T) {
	src := "main {\n    let x = 1;\n    mut x = 2;\n}"
	r := Report{
		Message: "cannot assign to immutable variable `x`",
		Primary: Label{Span: lexer.Span{Start: 26, End: 35}, Message: "assignment here"},
		Context: []Label{{Span: lexer.Span{Start: 11, End: 20}, Message: "declared immutable here"}},
		Hint:    "declare it with `let mut`",
	}

	want := strings.Join([]string{
		"error: cannot assign to immutable variable `x`",
		" --> main.scp:3:5",
		"  |",
		"3 |     mut x = 2;",
		"  |     ^^^^^^^^^ assignment here",
		" --> main.scp:2:5",
		"  |",
		"2 |     let x = 1;",
		"  |     --------- declared immutable here",
		"  = help: declare it with `let mut`",
		"",
	}, "\n")
	assert.Equal(t, want, String("main.scp", src, r))
}

func TestRenderColor(t *testing.T) {
	var b strings.Builder
	r := Report{Message: "boom", Primary: Label{Span: lexer.Span{Start: 0, End: 1}}}
	err := Render(&b, "x", "a", r, WithColor(true))
	assert.NoError(t, err)
	assert.Contains(t, b.String(), ansiRed)
	assert.Contains(t, b.String(), ansiReset)
}

func TestRenderClampsWideSpan(t *testing.T) {
	src := "ab\ncd"
	out := String("f", src, Report{Message: "m", Primary: Label{Span: lexer.Span{Start: 1, End: 5}}})
	assert.Contains(t, out, "  |  ^\n")
}

func TestRenderEmptySpanAtEOF(t *testing.T) {
	src := "main {"
	out := String("f", src, Report{Message: "unclosed", Primary: Label{Span: lexer.Span{Start: 6, End: 6}, Message: "expected `}`"}})
	assert.Contains(t, out, "1:7")
	assert.Contains(t, out, "  |       ^ expected `}`")
}
