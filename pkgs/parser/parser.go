package parser

import (
	"time"

	"github.com/aledsdavies/scrapile/pkgs/ast"
	"github.com/aledsdavies/scrapile/pkgs/lexer"
	"github.com/aledsdavies/scrapile/pkgs/opseq"
)

// ParserOpt represents a parser configuration option
type ParserOpt func(*ParserConfig)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryTiming                      // Lex and parse timings
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff   DebugLevel = iota // No debug info (default)
	DebugPaths                   // Method call tracing
)

// ParserConfig holds parser configuration
type ParserConfig struct {
	telemetry TelemetryMode
	debug     DebugLevel
}

// WithTelemetryTiming enables lex/parse timing
func WithTelemetryTiming() ParserOpt {
	return func(c *ParserConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables debug path tracing (development only)
func WithDebugPaths() ParserOpt {
	return func(c *ParserConfig) {
		c.debug = DebugPaths
	}
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string // "enter_block", "exit_stmt", ...
	TokenPos  int    // Index of the next token
	Context   string
}

// Telemetry holds parse statistics
type Telemetry struct {
	TokenCount int
	LexTime    time.Duration
	ParseTime  time.Duration
	TotalTime  time.Duration
}

// Result is the outcome of a successful parse
type Result struct {
	Program     *ast.Program
	Tokens      []lexer.Token
	Telemetry   *Telemetry  // nil unless telemetry is enabled
	DebugEvents []DebugEvent // nil unless debug is enabled
}

// Parse lexes and parses a source file. Parsing is fail-fast: the first
// syntax error is returned as a *Error.
func Parse(source []byte, opts ...ParserOpt) (*Result, error) {
	config := &ParserConfig{}
	for _, opt := range opts {
		opt(config)
	}

	var telemetry *Telemetry
	var startTotal, startLex time.Time
	if config.telemetry >= TelemetryTiming {
		telemetry = &Telemetry{}
		startTotal = time.Now()
		startLex = startTotal
	}

	lex := lexer.NewLexer("")
	lex.Init(source)
	tokens := lex.GetTokens()

	if telemetry != nil {
		telemetry.LexTime = time.Since(startLex)
		telemetry.TokenCount = len(tokens)
	}

	result, err := ParseTokens(tokens, opts...)
	if err != nil {
		return nil, err
	}
	if telemetry != nil {
		telemetry.ParseTime = result.Telemetry.ParseTime
		telemetry.TotalTime = time.Since(startTotal)
		result.Telemetry = telemetry
	}
	return result, nil
}

// ParseString is a convenience wrapper for tests
func ParseString(input string, opts ...ParserOpt) (*Result, error) {
	return Parse([]byte(input), opts...)
}

// ParseTokens parses pre-lexed tokens
func ParseTokens(tokens []lexer.Token, opts ...ParserOpt) (*Result, error) {
	config := &ParserConfig{}
	for _, opt := range opts {
		opt(config)
	}

	// Lexical errors are reported before any syntax error.
	for _, tok := range tokens {
		if tok.Type == lexer.ILLEGAL {
			return nil, illegalError(tok)
		}
	}

	p := &parser{
		s:      opseq.NewStream(tokens),
		config: config,
	}
	if config.debug > DebugOff {
		p.debugEvents = make([]DebugEvent, 0, 64)
	}

	var start time.Time
	if config.telemetry >= TelemetryTiming {
		start = time.Now()
	}

	program, err := p.program()
	if err != nil {
		return nil, err
	}

	result := &Result{
		Program:     program,
		Tokens:      tokens,
		DebugEvents: p.debugEvents,
	}
	if config.telemetry >= TelemetryTiming {
		result.Telemetry = &Telemetry{TokenCount: len(tokens), ParseTime: time.Since(start)}
		result.Telemetry.TotalTime = result.Telemetry.ParseTime
	}
	return result, nil
}

// ParseExpr parses a single expression that must span the whole input
func ParseExpr(input string) (ast.Expr, error) {
	tokens := lexer.Tokenize(input)
	for _, tok := range tokens {
		if tok.Type == lexer.ILLEGAL {
			return ast.Expr{}, illegalError(tok)
		}
	}
	p := &parser{s: opseq.NewStream(tokens), config: &ParserConfig{}}
	expr, err := p.requireExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	if tok := p.peek(); tok.Type != lexer.EOF {
		return ast.Expr{}, newError(UnexpectedOperand, tok.Span, expr.Span)
	}
	return expr, nil
}

func illegalError(tok lexer.Token) *Error {
	switch tok.Reason {
	case lexer.IllegalUnterminatedString:
		return newError(UnterminatedString, tok.Span, tok.Span)
	case lexer.IllegalEscape:
		return newError(InvalidEscape, tok.Span, tok.Span)
	}
	return newError(UnexpectedCharacter, tok.Span, tok.Span)
}

// parser is the internal parser state
type parser struct {
	s           *opseq.Stream
	config      *ParserConfig
	debugEvents []DebugEvent
}

// recordDebugEvent records debug events when debug tracing is enabled
func (p *parser) recordDebugEvent(event, context string) {
	if p.config.debug == DebugOff {
		return
	}
	p.debugEvents = append(p.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		TokenPos:  p.s.Pos(),
		Context:   context,
	})
}

func (p *parser) peek() lexer.Token {
	return p.s.Peek()
}

func (p *parser) advance() lexer.Token {
	return p.s.Next()
}

func (p *parser) at(typ lexer.TokenType) bool {
	return p.s.Peek().Type == typ
}

// program parses the roots of a file: `main { ... }` and `fn ...`
func (p *parser) program() (*ast.Program, error) {
	if p.config.debug > DebugOff {
		p.recordDebugEvent("enter_program", "parsing roots")
	}

	prog := &ast.Program{}
	for !p.at(lexer.EOF) {
		tok := p.advance()
		switch tok.Type {
		case lexer.MAIN:
			m, err := p.main(tok)
			if err != nil {
				return nil, err
			}
			prog.Mains = append(prog.Mains, m)
		case lexer.FN:
			fn, err := p.funcDef(tok)
			if err != nil {
				return nil, err
			}
			prog.Funcs = append(prog.Funcs, fn)
		default:
			return nil, newError(ExpectedRoot, tok.Span, tok.Span)
		}
	}

	if p.config.debug > DebugOff {
		p.recordDebugEvent("exit_program", "roots parsed")
	}
	return prog, nil
}

// main parses the body of `main` (keyword already consumed)
func (p *parser) main(kw lexer.Token) (*ast.Main, error) {
	open := p.peek()
	if open.Type != lexer.LBRACE {
		return nil, newError(ExpectedBlockForMain, open.Span, kw.Span)
	}
	p.advance()
	body, err := p.block(open)
	if err != nil {
		return nil, err
	}
	return &ast.Main{Body: body, Src: kw.Span.To(body.Src)}, nil
}

// block parses statements up to the closing brace (`{` already consumed).
// A final statement directly followed by `}` becomes the tail.
func (p *parser) block(open lexer.Token) (*ast.Block, error) {
	if p.config.debug > DebugOff {
		p.recordDebugEvent("enter_block", "parsing block")
	}

	b := &ast.Block{}
	for {
		tok := p.peek()
		switch tok.Type {
		case lexer.RBRACE:
			p.advance()
			b.Src = open.Span.To(tok.Span)
			return b, nil
		case lexer.EOF:
			return nil, newError(UnclosedBrace, tok.Span, open.Span)
		case lexer.SEMICOLON:
			return nil, newError(ExpectedStmt, tok.Span, tok.Span)
		}

		stmt, err := p.stmt()
		if err != nil {
			return nil, err
		}

		next := p.peek()
		switch next.Type {
		case lexer.SEMICOLON:
			p.advance()
			b.Stmts = append(b.Stmts, stmt)
		case lexer.RBRACE:
			p.advance()
			b.Tail = stmt
			b.Src = open.Span.To(next.Span)
			if p.config.debug > DebugOff {
				p.recordDebugEvent("exit_block", "block with tail")
			}
			return b, nil
		case lexer.EOF:
			return nil, newError(UnclosedBrace, next.Span, open.Span)
		default:
			return nil, newError(ExpectedSemiOrRBrace, next.Span, open.Span)
		}
	}
}

// stmt parses a single statement without its terminator
func (p *parser) stmt() (ast.Stmt, error) {
	tok := p.peek()
	if p.config.debug > DebugOff {
		p.recordDebugEvent("enter_stmt", tok.Type.String())
	}

	switch tok.Type {
	case lexer.LET:
		return p.varDeclare(p.advance())
	case lexer.MUT:
		return p.varMutate(p.advance())
	case lexer.IF:
		return p.ifStmt(p.advance())
	case lexer.WHILE:
		return p.whileStmt(p.advance())
	}

	seq, trailing, err := opseq.Parse(p.s, p.grammar)
	if err != nil {
		return nil, convertEngineError(err)
	}
	if len(seq) == 0 {
		return nil, newError(ExpectedStmt, trailing.Span, trailing.Span)
	}
	return &ast.ExprStmt{Expr: ast.NewExpr(seq)}, nil
}

// expr parses an optional expression; an empty Seq means none was present
func (p *parser) expr() (ast.Expr, error) {
	seq, _, err := opseq.Parse(p.s, p.grammar)
	if err != nil {
		return ast.Expr{}, convertEngineError(err)
	}
	return ast.NewExpr(seq), nil
}

// requireExpr parses an expression and fails with ExpectedExpr when absent
func (p *parser) requireExpr() (ast.Expr, error) {
	tok := p.peek()
	e, err := p.expr()
	if err != nil {
		return ast.Expr{}, err
	}
	if len(e.Seq) == 0 {
		return ast.Expr{}, newError(ExpectedExpr, tok.Span, tok.Span)
	}
	return e, nil
}

func convertEngineError(err error) error {
	engErr, ok := err.(*opseq.Error)
	if !ok {
		return err
	}
	kind := ExpectedOperand
	if engErr.Kind == opseq.UnexpectedOperand {
		kind = UnexpectedOperand
	}
	return newError(kind, engErr.Span, engErr.Ctx)
}

// varDeclare parses `let [mut] ident [: Type] = value` (`let` consumed)
func (p *parser) varDeclare(let lexer.Token) (ast.Stmt, error) {
	decl := &ast.VarDeclare{}

	tok := p.advance()
	if tok.Type == lexer.MUT {
		decl.Mutable = true
		tok = p.advance()
		if tok.Type != lexer.IDENTIFIER {
			return nil, newError(ExpectedIdent, tok.Span, let.Span)
		}
	} else if tok.Type != lexer.IDENTIFIER {
		return nil, newError(ExpectedMutOrIdent, tok.Span, let.Span)
	}
	decl.Ident = ast.Ident{Name: tok.Value, Span: tok.Span}

	tok = p.advance()
	switch tok.Type {
	case lexer.COLON:
		t, err := p.typeAnnotation()
		if err != nil {
			return nil, err
		}
		decl.Annotation = &t
		if eq := p.advance(); eq.Type != lexer.EQUALS {
			return nil, newError(ExpectedEQ, eq.Span, let.Span.To(t.Span))
		}
	case lexer.EQUALS:
	default:
		return nil, newError(ExpectedColonOrEQ, tok.Span, let.Span.To(decl.Ident.Span))
	}

	value, err := p.requireExpr()
	if err != nil {
		return nil, err
	}
	decl.Value = value
	decl.Src = let.Span.To(value.Span)
	return decl, nil
}

var mutationOps = map[lexer.TokenType]ast.MutateOp{
	lexer.EQUALS:          ast.Assign,
	lexer.PLUS_ASSIGN:     ast.AddAssign,
	lexer.MINUS_ASSIGN:    ast.SubAssign,
	lexer.MULTIPLY_ASSIGN: ast.MulAssign,
	lexer.DIVIDE_ASSIGN:   ast.DivAssign,
	lexer.MODULO_ASSIGN:   ast.ModAssign,
}

// varMutate parses `mut ident op value` (`mut` consumed)
func (p *parser) varMutate(kw lexer.Token) (ast.Stmt, error) {
	ident := p.advance()
	if ident.Type != lexer.IDENTIFIER {
		return nil, newError(ExpectedIdent, ident.Span, kw.Span)
	}

	opTok := p.advance()
	op, ok := mutationOps[opTok.Type]
	if !ok {
		return nil, newError(ExpectedMutationOp, opTok.Span, kw.Span.To(ident.Span))
	}

	value, err := p.requireExpr()
	if err != nil {
		return nil, err
	}
	return &ast.VarMutate{
		Ident:  ast.Ident{Name: ident.Value, Span: ident.Span},
		Op:     op,
		OpSpan: opTok.Span,
		Value:  value,
		Src:    kw.Span.To(value.Span),
	}, nil
}

// condition parses `(expr)` after `if` or `while`
func (p *parser) condition(kw lexer.Token) (ast.Expr, error) {
	open := p.peek()
	if open.Type != lexer.LPAREN {
		return ast.Expr{}, newError(ExpectedCondLParen, open.Span, kw.Span)
	}
	p.advance()

	cond, err := p.requireExpr()
	if err != nil {
		return ast.Expr{}, err
	}
	if rparen := p.peek(); rparen.Type != lexer.RPAREN {
		return ast.Expr{}, newError(UnclosedParentheses, rparen.Span, open.Span)
	}
	p.advance()
	return cond, nil
}

func (p *parser) ifStmt(kw lexer.Token) (ast.Stmt, error) {
	cond, err := p.condition(kw)
	if err != nil {
		return nil, err
	}
	body, err := p.stmt()
	if err != nil {
		return nil, err
	}

	s := &ast.If{Cond: cond, Body: body, Src: kw.Span.To(body.Span())}
	if p.at(lexer.ELSE) {
		p.advance()
		otherwise, err := p.stmt()
		if err != nil {
			return nil, err
		}
		s.Else = otherwise
		s.Src = kw.Span.To(otherwise.Span())
	}
	return s, nil
}

func (p *parser) whileStmt(kw lexer.Token) (ast.Stmt, error) {
	cond, err := p.condition(kw)
	if err != nil {
		return nil, err
	}
	body, err := p.stmt()
	if err != nil {
		return nil, err
	}
	return &ast.While{Cond: cond, Body: body, Src: kw.Span.To(body.Span())}, nil
}

// funcDef parses `ident(params) -> Type { body }` (`fn` consumed)
func (p *parser) funcDef(kw lexer.Token) (*ast.FuncDef, error) {
	if p.config.debug > DebugOff {
		p.recordDebugEvent("enter_funcDef", "parsing function")
	}

	name := p.advance()
	if name.Type != lexer.IDENTIFIER {
		return nil, newError(ExpectedIdent, name.Span, kw.Span)
	}
	fn := &ast.FuncDef{Ident: ast.Ident{Name: name.Value, Span: name.Span}}

	open := p.advance()
	if open.Type != lexer.LPAREN {
		return nil, newError(ExpectedFnParams, open.Span, kw.Span.To(name.Span))
	}
	params, err := p.params(open)
	if err != nil {
		return nil, err
	}
	fn.Params = params

	if arrow := p.advance(); arrow.Type != lexer.ARROW {
		return nil, newError(ExpectedFnRetrnType, arrow.Span, kw.Span.To(name.Span))
	}
	ret, err := p.typeAnnotation()
	if err != nil {
		return nil, err
	}
	fn.Return = ret

	body := p.advance()
	if body.Type != lexer.LBRACE {
		return nil, newError(ExpectedFnBody, body.Span, kw.Span.To(ret.Span))
	}
	block, err := p.block(body)
	if err != nil {
		return nil, err
	}
	fn.Body = block
	fn.Src = kw.Span.To(block.Src)
	return fn, nil
}

// params parses `name: Type, ...)` (`(` consumed); a trailing comma is allowed
func (p *parser) params(open lexer.Token) ([]ast.Param, error) {
	var params []ast.Param
	for {
		tok := p.advance()
		switch tok.Type {
		case lexer.RPAREN:
			return params, nil
		case lexer.EOF:
			return nil, newError(UnclosedParentheses, tok.Span, open.Span)
		case lexer.IDENTIFIER:
		default:
			return nil, newError(ExpectedIdent, tok.Span, open.Span)
		}

		if colon := p.advance(); colon.Type != lexer.COLON {
			return nil, newError(ExpectedFnParamColon, colon.Span, tok.Span)
		}
		t, err := p.typeAnnotation()
		if err != nil {
			return nil, err
		}
		params = append(params, ast.Param{
			Ident: ast.Ident{Name: tok.Value, Span: tok.Span},
			Type:  t,
			Src:   tok.Span.To(t.Span),
		})

		sep := p.advance()
		switch sep.Type {
		case lexer.COMMA:
		case lexer.RPAREN:
			return params, nil
		case lexer.EOF:
			return nil, newError(UnclosedParentheses, sep.Span, open.Span)
		default:
			return nil, newError(ExpectedCommaOrRParen, sep.Span, open.Span)
		}
	}
}
