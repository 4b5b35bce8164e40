package parser

import (
	"github.com/aledsdavies/scrapile/pkgs/ast"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
	"github.com/aledsdavies/scrapile/pkgs/opseq"
)

type infixOp struct {
	kind ast.OperKind
	prec int
}

var infixOps = map[lexer.TokenType]infixOp{
	lexer.MULTIPLY: {ast.OpMul, ast.PrecProduct},
	lexer.DIVIDE:   {ast.OpDiv, ast.PrecProduct},
	lexer.MODULO:   {ast.OpMod, ast.PrecProduct},
	lexer.CONCAT:   {ast.OpConcat, ast.PrecConcat},
	lexer.EQ_EQ:    {ast.OpEq, ast.PrecCompare},
	lexer.NOT_EQ:   {ast.OpNe, ast.PrecCompare},
	lexer.GT:       {ast.OpGt, ast.PrecCompare},
	lexer.LT:       {ast.OpLt, ast.PrecCompare},
	lexer.GT_EQ:    {ast.OpGte, ast.PrecCompare},
	lexer.LT_EQ:    {ast.OpLte, ast.PrecCompare},
	lexer.AND_AND:  {ast.OpAnd, ast.PrecLogic},
	lexer.OR_OR:    {ast.OpOr, ast.PrecLogic},
}

func operand(o ast.Oper, span lexer.Span) ast.Node {
	return ast.Node{Oper: o, Space: opseq.None, Span: span}
}

// grammar classifies one token for the precedence engine. Compound forms
// (calls, tuples, lists, blocks) are parsed here in full and returned as a
// single operand node.
func (p *parser) grammar(tok lexer.Token, doubleSpace bool) (ast.Node, bool, error) {
	switch tok.Type {
	case lexer.NUMBER:
		return operand(ast.Oper{Kind: ast.OpNumber, Num: tok.Number}, tok.Span), true, nil
	case lexer.STRING:
		return operand(ast.Oper{Kind: ast.OpString, Str: tok.Value}, tok.Span), true, nil
	case lexer.BOOLEAN:
		return operand(ast.Oper{Kind: ast.OpBool, Bool: tok.Bool}, tok.Span), true, nil
	case lexer.IDENTIFIER:
		return p.identifier(tok)
	case lexer.BUILTIN:
		return p.builtinCall(tok)
	case lexer.LPAREN:
		return p.tuple(tok)
	case lexer.LSQUARE:
		return p.list(tok)
	case lexer.LBRACE:
		block, err := p.block(tok)
		if err != nil {
			return ast.Node{}, false, err
		}
		return operand(ast.Oper{Kind: ast.OpBlock, Block: block}, block.Src), true, nil

	// `+` and `-` are infix only with whitespace on both sides
	case lexer.PLUS, lexer.MINUS:
		if doubleSpace {
			kind := ast.OpAdd
			if tok.Type == lexer.MINUS {
				kind = ast.OpSub
			}
			return ast.Node{Oper: ast.Oper{Kind: kind}, Prec: ast.PrecSum, Space: opseq.Double, Span: tok.Span}, true, nil
		}
		kind := ast.OpPos
		if tok.Type == lexer.MINUS {
			kind = ast.OpNeg
		}
		return ast.Node{Oper: ast.Oper{Kind: kind}, Prec: ast.PrecUnary, Space: opseq.Single, Span: tok.Span}, true, nil
	case lexer.NOT:
		return ast.Node{Oper: ast.Oper{Kind: ast.OpNot}, Prec: ast.PrecUnary, Space: opseq.Single, Span: tok.Span}, true, nil
	}

	if op, ok := infixOps[tok.Type]; ok {
		return ast.Node{Oper: ast.Oper{Kind: op.kind}, Prec: op.prec, Space: opseq.Double, Span: tok.Span}, true, nil
	}
	return ast.Node{}, false, nil
}

// identifier parses `a`, `a.b.c` or a call `f(args)`
func (p *parser) identifier(tok lexer.Token) (ast.Node, bool, error) {
	o := ast.Oper{Kind: ast.OpIdent, Ident: tok.Value, Name: tok.Span}
	span := tok.Span

	for p.at(lexer.DOT) {
		p.advance()
		seg := p.advance()
		if seg.Type != lexer.IDENTIFIER {
			return ast.Node{}, false, newError(ExpectedIdent, seg.Span, span)
		}
		o.Path = append(o.Path, seg.Value)
		span = span.To(seg.Span)
	}
	o.Name = span

	if len(o.Path) == 0 && p.at(lexer.LPAREN) {
		open := p.advance()
		args, end, err := p.commaList(open, lexer.RPAREN)
		if err != nil {
			return ast.Node{}, false, err
		}
		o.Kind = ast.OpCall
		o.Args = args
		span = span.To(end)
	}
	return operand(o, span), true, nil
}

// builtinCall parses `name!(args)`
func (p *parser) builtinCall(tok lexer.Token) (ast.Node, bool, error) {
	open := p.peek()
	if open.Type != lexer.LPAREN {
		return ast.Node{}, false, newError(ExpectedCallLParen, open.Span, tok.Span)
	}
	p.advance()
	args, end, err := p.commaList(open, lexer.RPAREN)
	if err != nil {
		return ast.Node{}, false, err
	}
	o := ast.Oper{Kind: ast.OpBuiltin, Ident: tok.Value, Name: tok.Span, Args: args}
	return operand(o, tok.Span.To(end)), true, nil
}

// tuple parses `()`, `(x)` or `(a, b, ...)`
func (p *parser) tuple(open lexer.Token) (ast.Node, bool, error) {
	elems, end, err := p.commaList(open, lexer.RPAREN)
	if err != nil {
		return ast.Node{}, false, err
	}
	span := open.Span.To(end)
	switch len(elems) {
	case 0:
		return operand(ast.Oper{Kind: ast.OpNil}, span), true, nil
	case 1:
		return operand(ast.Oper{Kind: ast.OpGroup, Args: elems}, span), true, nil
	}
	return operand(ast.Oper{Kind: ast.OpTuple, Args: elems}, span), true, nil
}

// list parses `[a, b, ...]`; a single element is still a list
func (p *parser) list(open lexer.Token) (ast.Node, bool, error) {
	elems, end, err := p.commaList(open, lexer.RSQUARE)
	if err != nil {
		return ast.Node{}, false, err
	}
	return operand(ast.Oper{Kind: ast.OpList, Args: elems}, open.Span.To(end)), true, nil
}

// commaList parses comma separated expressions up to closer (opener already
// consumed). A trailing comma is accepted. It returns the closer's span.
func (p *parser) commaList(open lexer.Token, closer lexer.TokenType) ([]ast.Expr, lexer.Span, error) {
	unclosed, expectedSep := UnclosedParentheses, ExpectedCommaOrRParen
	if closer == lexer.RSQUARE {
		unclosed, expectedSep = UnclosedBracket, ExpectedCommaOrRBracket
	}

	var elems []ast.Expr
	for {
		tok := p.peek()
		if tok.Type == closer {
			p.advance()
			return elems, tok.Span, nil
		}
		if tok.Type == lexer.EOF {
			return nil, lexer.Span{}, newError(unclosed, tok.Span, open.Span)
		}

		e, err := p.requireExpr()
		if err != nil {
			return nil, lexer.Span{}, err
		}
		elems = append(elems, e)

		sep := p.peek()
		switch sep.Type {
		case lexer.COMMA:
			p.advance()
		case closer:
			p.advance()
			return elems, sep.Span, nil
		case lexer.EOF:
			return nil, lexer.Span{}, newError(unclosed, sep.Span, open.Span)
		default:
			return nil, lexer.Span{}, newError(expectedSep, sep.Span, open.Span)
		}
	}
}
