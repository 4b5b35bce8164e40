package parser

import (
	"github.com/aledsdavies/scrapile/pkgs/ast"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

var primitiveTypes = map[string]ast.TypeKind{
	"str":  ast.TypeString,
	"num":  ast.TypeNumber,
	"bool": ast.TypeBool,
}

// typeAnnotation parses `str`, `num`, `bool`, a custom name, `()`, `(T, ...)`
// or `[T]`. A parenthesized single type is that type.
func (p *parser) typeAnnotation() (ast.Type, error) {
	tok := p.advance()
	switch tok.Type {
	case lexer.IDENTIFIER:
		if kind, ok := primitiveTypes[tok.Value]; ok {
			return ast.Type{Kind: kind, Span: tok.Span}, nil
		}
		return ast.Type{Kind: ast.TypeCustom, Name: tok.Value, Span: tok.Span}, nil

	case lexer.LPAREN:
		var elems []ast.Type
		for {
			if p.at(lexer.RPAREN) {
				end := p.advance()
				return tupleType(elems, tok.Span.To(end.Span)), nil
			}
			elem, err := p.typeAnnotation()
			if err != nil {
				return ast.Type{}, err
			}
			elems = append(elems, elem)

			sep := p.advance()
			switch sep.Type {
			case lexer.COMMA:
			case lexer.RPAREN:
				return tupleType(elems, tok.Span.To(sep.Span)), nil
			case lexer.EOF:
				return ast.Type{}, newError(UnclosedParentheses, sep.Span, tok.Span)
			default:
				return ast.Type{}, newError(ExpectedCommaOrRParen, sep.Span, tok.Span)
			}
		}

	case lexer.LSQUARE:
		elem, err := p.typeAnnotation()
		if err != nil {
			return ast.Type{}, err
		}
		end := p.advance()
		if end.Type != lexer.RSQUARE {
			return ast.Type{}, newError(UnclosedBracket, end.Span, tok.Span)
		}
		return ast.Type{Kind: ast.TypeList, Elem: &elem, Span: tok.Span.To(end.Span)}, nil
	}
	return ast.Type{}, newError(ExpectedType, tok.Span, tok.Span)
}

func tupleType(elems []ast.Type, span lexer.Span) ast.Type {
	switch len(elems) {
	case 0:
		return ast.Type{Kind: ast.TypeNil, Span: span}
	case 1:
		elems[0].Span = span
		return elems[0]
	}
	return ast.Type{Kind: ast.TypeTuple, Elems: elems, Span: span}
}
