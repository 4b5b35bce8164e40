// Package opseq is a grammar-independent precedence engine. A grammar supplies
// a Generator that classifies one token at a time; the engine resolves
// precedence and associativity and returns the expression as a flat operator
// sequence in prefix order: every node is immediately followed by its
// operands.
package opseq

import (
	"fmt"

	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

// Space is the arity class of a node
type Space int

const (
	None   Space = iota // operand (literal, identifier, compound form)
	Single              // prefix operator with one operand
	Double              // infix operator with two operands
)

func (s Space) String() string {
	switch s {
	case None:
		return "none"
	case Single:
		return "single"
	case Double:
		return "double"
	}
	return fmt.Sprintf("Space(%d)", int(s))
}

// Node is one entry of an operator sequence
type Node[O any] struct {
	Oper  O
	Prec  int
	Space Space
	Span  lexer.Span
}

// Sequence is an expression in prefix order
type Sequence[O any] []Node[O]

// Generator classifies tok. doubleSpace reports whether tok has whitespace on
// both sides. It returns ok=false when tok cannot continue the expression; in
// that case it must not have consumed any further tokens.
type Generator[O any] func(tok lexer.Token, doubleSpace bool) (node Node[O], ok bool, err error)

// ErrorKind identifies engine-level syntax errors
type ErrorKind int

const (
	// ExpectedOperand: an operator needed an operand but the token cannot start one.
	// Ctx is the operator.
	ExpectedOperand ErrorKind = iota
	// UnexpectedOperand: an operand followed another operand with no infix
	// operator between them. Ctx is the previous operand.
	UnexpectedOperand
)

func (k ErrorKind) String() string {
	if k == ExpectedOperand {
		return "expected operand"
	}
	return "unexpected operand"
}

// Error is a syntax error raised by the engine itself
type Error struct {
	Kind ErrorKind
	Span lexer.Span
	Ctx  lexer.Span
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at %d..%d", e.Kind, e.Span.Start, e.Span.End)
}

// Parse reads one expression from s. It returns the sequence and the first
// token that is not part of the expression, which is left unconsumed in s.
// An empty sequence with a nil error means the first token cannot start an
// expression.
func Parse[O any](s *Stream, gen Generator[O]) (Sequence[O], lexer.Token, error) {
	e := &engine[O]{s: s, gen: gen}

	tok := s.Peek()
	first, ok, err := e.classify()
	if err != nil {
		return nil, tok, err
	}
	if !ok {
		return nil, tok, nil
	}

	seq, err := e.parse(first, 0, first.Span)
	if err != nil {
		return nil, s.Peek(), err
	}
	return seq, s.Peek(), nil
}

type engine[O any] struct {
	s   *Stream
	gen Generator[O]
}

// classify consumes the next token and hands it to the generator, putting it
// back when the generator does not recognize it.
func (e *engine[O]) classify() (Node[O], bool, error) {
	tok := e.s.Next()
	node, ok, err := e.gen(tok, tok.DoubleSpaced())
	if err != nil {
		return node, false, err
	}
	if !ok {
		e.s.Backup()
	}
	return node, ok, nil
}

// operand parses the operand required by the operator spanning ctx
func (e *engine[O]) operand(minPrec int, ctx lexer.Span) (Sequence[O], error) {
	tok := e.s.Peek()
	node, ok, err := e.classify()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &Error{Kind: ExpectedOperand, Span: tok.Span, Ctx: ctx}
	}
	return e.parse(node, minPrec, ctx)
}

// parse continues an expression whose first node has already been classified
func (e *engine[O]) parse(first Node[O], minPrec int, ctx lexer.Span) (Sequence[O], error) {
	var lhs Sequence[O]
	lhsSpan := first.Span

	switch first.Space {
	case None:
		lhs = Sequence[O]{first}
	case Single:
		operand, err := e.operand(first.Prec+1, first.Span)
		if err != nil {
			return nil, err
		}
		lhs = append(Sequence[O]{first}, operand...)
		lhsSpan = first.Span.To(operand.Span())
	case Double:
		return nil, &Error{Kind: ExpectedOperand, Span: first.Span, Ctx: ctx}
	}

	for {
		node, ok, err := e.classify()
		if err != nil {
			return nil, err
		}
		if !ok {
			return lhs, nil
		}

		if node.Space != Double {
			return nil, &Error{Kind: UnexpectedOperand, Span: node.Span, Ctx: lhsSpan}
		}
		if node.Prec < minPrec {
			e.s.Backup()
			return lhs, nil
		}

		// Left associative: the right operand only takes tighter operators.
		rhs, err := e.operand(node.Prec+1, node.Span)
		if err != nil {
			return nil, err
		}
		seq := make(Sequence[O], 0, 1+len(lhs)+len(rhs))
		seq = append(seq, node)
		seq = append(seq, lhs...)
		seq = append(seq, rhs...)
		lhs = seq
		lhsSpan = lhsSpan.To(rhs.Span())
	}
}

func maxSpan(a, b lexer.Span) lexer.Span {
	if b.End > a.End {
		return b
	}
	return a
}

// Span returns the source range covered by the whole sequence
func (seq Sequence[O]) Span() lexer.Span {
	if len(seq) == 0 {
		return lexer.Span{}
	}
	span := seq[0].Span
	for _, n := range seq[1:] {
		if n.Span.Start < span.Start {
			span.Start = n.Span.Start
		}
		if n.Span.End > span.End {
			span.End = n.Span.End
		}
	}
	return span
}

// Cursor walks a sequence in prefix order
type Cursor[O any] struct {
	seq Sequence[O]
	pos int
}

// NewCursor returns a cursor at the start of seq
func NewCursor[O any](seq Sequence[O]) *Cursor[O] {
	return &Cursor[O]{seq: seq}
}

// Next returns the next node. Callers read a node's operands by calling Next
// again, once for Single and twice for Double.
func (c *Cursor[O]) Next() Node[O] {
	n := c.seq[c.pos]
	c.pos++
	return n
}

// Done reports whether every node has been read
func (c *Cursor[O]) Done() bool {
	return c.pos >= len(c.seq)
}

// Skip advances past one complete subtree and returns its span
func (c *Cursor[O]) Skip() lexer.Span {
	n := c.Next()
	span := n.Span
	switch n.Space {
	case Single:
		span = span.To(maxSpan(span, c.Skip()))
	case Double:
		lhs := c.Skip()
		rhs := c.Skip()
		span = lexer.Span{Start: min(lhs.Start, span.Start), End: max(rhs.End, span.End)}
	}
	return span
}
