package opseq

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

// calcGrammar is a minimal grammar: numbers, identifiers, spaced +,-,*
// infix operators and prefix - or !.
func calcGrammar(tok lexer.Token, doubleSpace bool) (Node[string], bool, error) {
	switch tok.Type {
	case lexer.NUMBER, lexer.IDENTIFIER:
		return Node[string]{Oper: tok.Text, Space: None, Span: tok.Span}, true, nil
	case lexer.PLUS, lexer.MINUS:
		if doubleSpace {
			return Node[string]{Oper: tok.Text, Prec: 4, Space: Double, Span: tok.Span}, true, nil
		}
		return Node[string]{Oper: "neg" + tok.Text, Prec: 6, Space: Single, Span: tok.Span}, true, nil
	case lexer.MULTIPLY:
		return Node[string]{Oper: "*", Prec: 5, Space: Double, Span: tok.Span}, true, nil
	case lexer.NOT:
		return Node[string]{Oper: "!", Prec: 6, Space: Single, Span: tok.Span}, true, nil
	}
	return Node[string]{}, false, nil
}

func parseCalc(t *testing.T, src string) (Sequence[string], lexer.Token, error) {
	t.Helper()
	return Parse(NewStream(lexer.Tokenize(src)), calcGrammar)
}

func opers(seq Sequence[string]) []string {
	out := make([]string, len(seq))
	for i, n := range seq {
		out[i] = n.Oper
	}
	return out
}

func TestPrefixOrder(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []string
	}{
		{"literal", "42", []string{"42"}},
		{"binary", "1 + 2", []string{"+", "1", "2"}},
		{"precedence", "1 + 2 * 3", []string{"+", "1", "*", "2", "3"}},
		{"left associative", "1 - 2 - 3", []string{"-", "-", "1", "2", "3"}},
		{"tighter on left", "1 * 2 + 3", []string{"+", "*", "1", "2", "3"}},
		{"prefix binds tight", "-a * b", []string{"*", "neg-", "a", "b"}},
		{"prefix operand", "2 * -3", []string{"*", "2", "neg-", "3"}},
		{"double prefix", "!!x", []string{"!", "!", "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, trailing, err := parseCalc(t, tt.src)
			require.NoError(t, err)
			assert.Equal(t, lexer.EOF, trailing.Type)
			if diff := cmp.Diff(tt.want, opers(seq)); diff != "" {
				t.Errorf("sequence mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLiteralSpanCoversText(t *testing.T) {
	seq, _, err := parseCalc(t, "  1234 ")
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, lexer.Span{Start: 2, End: 6}, seq[0].Span)
	assert.Equal(t, lexer.Span{Start: 2, End: 6}, seq.Span())
}

func TestTrailingTokenLeftUnconsumed(t *testing.T) {
	s := NewStream(lexer.Tokenize("1 + 2; x"))
	seq, trailing, err := Parse(s, calcGrammar)
	require.NoError(t, err)
	assert.Len(t, seq, 3)
	assert.Equal(t, lexer.SEMICOLON, trailing.Type)
	assert.Equal(t, lexer.SEMICOLON, s.Peek().Type)
}

func TestEmptyExpression(t *testing.T) {
	seq, trailing, err := parseCalc(t, ";")
	require.NoError(t, err)
	assert.Empty(t, seq)
	assert.Equal(t, lexer.SEMICOLON, trailing.Type)
}

func TestEngineErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind ErrorKind
		span lexer.Span
		ctx  lexer.Span
	}{
		{"missing rhs", "1 + ;", ExpectedOperand, lexer.Span{Start: 4, End: 5}, lexer.Span{Start: 2, End: 3}},
		{"missing prefix operand", "!;", ExpectedOperand, lexer.Span{Start: 1, End: 2}, lexer.Span{Start: 0, End: 1}},
		{"leading infix", "* 2", ExpectedOperand, lexer.Span{Start: 0, End: 1}, lexer.Span{Start: 0, End: 1}},
		{"unspaced minus after operand", "1 -2", UnexpectedOperand, lexer.Span{Start: 2, End: 3}, lexer.Span{Start: 0, End: 1}},
		{"two operands", "a b", UnexpectedOperand, lexer.Span{Start: 2, End: 3}, lexer.Span{Start: 0, End: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseCalc(t, tt.src)
			var engErr *Error
			require.ErrorAs(t, err, &engErr)
			assert.Equal(t, tt.kind, engErr.Kind)
			assert.Equal(t, tt.span, engErr.Span)
			assert.Equal(t, tt.ctx, engErr.Ctx)
		})
	}
}

func TestCursorSkip(t *testing.T) {
	seq, _, err := parseCalc(t, "1 + 2 * 3")
	require.NoError(t, err)

	c := NewCursor(seq)
	root := c.Next()
	assert.Equal(t, Double, root.Space)
	assert.Equal(t, lexer.Span{Start: 0, End: 1}, c.Skip())
	assert.Equal(t, lexer.Span{Start: 4, End: 9}, c.Skip())
	assert.True(t, c.Done())
}

func TestStreamBackupAtEOF(t *testing.T) {
	s := NewStream(lexer.Tokenize("a"))
	assert.Equal(t, lexer.IDENTIFIER, s.Next().Type)
	assert.Equal(t, lexer.EOF, s.Next().Type)
	s.Backup()
	assert.Equal(t, lexer.EOF, s.Peek().Type)
}
