package lexer

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// LexerOpt represents a lexer configuration option
type LexerOpt func(*LexerConfig)

// TelemetryMode controls telemetry collection
type TelemetryMode int

const (
	TelemetryOff    TelemetryMode = iota // Zero overhead (default)
	TelemetryBasic                       // Token counts only
	TelemetryTiming                      // Token counts + total lexing time
)

// DebugLevel controls debug tracing (development only)
type DebugLevel int

const (
	DebugOff      DebugLevel = iota // No debug info (default)
	DebugPaths                      // Method call tracing
	DebugDetailed                   // Character-level tracing
)

// LexerConfig holds lexer configuration
type LexerConfig struct {
	telemetry TelemetryMode
	debug     DebugLevel
}

// WithTelemetryBasic enables basic telemetry (token counts only)
func WithTelemetryBasic() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryBasic
	}
}

// WithTelemetryTiming enables timing telemetry
func WithTelemetryTiming() LexerOpt {
	return func(c *LexerConfig) {
		c.telemetry = TelemetryTiming
	}
}

// WithDebugPaths enables debug path tracing (development only)
func WithDebugPaths() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugPaths
	}
}

// WithDebugDetailed enables detailed debug tracing (development only)
func WithDebugDetailed() LexerOpt {
	return func(c *LexerConfig) {
		c.debug = DebugDetailed
	}
}

// Telemetry holds lexer statistics
type Telemetry struct {
	TokenCounts map[TokenType]int
	Total       int
	Duration    time.Duration
}

// DebugEvent holds debug tracing information (development only)
type DebugEvent struct {
	Timestamp time.Time
	Event     string   // "enter_lexNumber", "found_identifier", ...
	Position  Position // Current lexer position
	Context   string
}

// Lexer turns scrapile source into tokens
type Lexer struct {
	input    []byte
	position int
	line     int
	column   int

	tokens     []Token // Fully lexed token buffer, EOF terminated
	tokenIndex int
	lexed      bool

	telemetryMode TelemetryMode
	telemetry     *Telemetry

	debugLevel  DebugLevel
	debugEvents []DebugEvent
}

// NewLexer creates a new lexer instance with optional configuration
func NewLexer(input string, opts ...LexerOpt) *Lexer {
	config := &LexerConfig{}
	for _, opt := range opts {
		opt(config)
	}

	lexer := &Lexer{
		telemetryMode: config.telemetry,
		debugLevel:    config.debug,
	}
	lexer.Init([]byte(input))
	return lexer
}

// Init resets the lexer with new input (following Go scanner pattern)
func (l *Lexer) Init(input []byte) {
	l.input = input
	l.position = 0
	l.line = 1
	l.column = 1
	l.tokens = l.tokens[:0]
	l.tokenIndex = 0
	l.lexed = false

	if l.telemetryMode > TelemetryOff {
		l.telemetry = &Telemetry{TokenCounts: make(map[TokenType]int)}
	}
	if l.debugLevel > DebugOff {
		l.debugEvents = l.debugEvents[:0]
	}
}

// NextToken returns the next token using streaming interface
func (l *Lexer) NextToken() Token {
	l.lexAll()
	if l.tokenIndex >= len(l.tokens) {
		return l.tokens[len(l.tokens)-1]
	}
	tok := l.tokens[l.tokenIndex]
	l.tokenIndex++
	return tok
}

// GetTokens returns all tokens, terminated by a single EOF token
func (l *Lexer) GetTokens() []Token {
	l.lexAll()
	out := make([]Token, len(l.tokens))
	copy(out, l.tokens)
	return out
}

// GetTelemetry returns lexer statistics, or nil when telemetry is off
func (l *Lexer) GetTelemetry() *Telemetry {
	if l.telemetry == nil {
		return nil
	}
	l.lexAll()
	counts := make(map[TokenType]int, len(l.telemetry.TokenCounts))
	for k, v := range l.telemetry.TokenCounts {
		counts[k] = v
	}
	return &Telemetry{TokenCounts: counts, Total: l.telemetry.Total, Duration: l.telemetry.Duration}
}

// GetDebugEvents returns debug events (development only)
func (l *Lexer) GetDebugEvents() []DebugEvent {
	if l.debugLevel == DebugOff {
		return nil
	}
	result := make([]DebugEvent, len(l.debugEvents))
	copy(result, l.debugEvents)
	return result
}

// Tokenize lexes input in one call
func Tokenize(input string, opts ...LexerOpt) []Token {
	return NewLexer(input, opts...).GetTokens()
}

func (l *Lexer) lexAll() {
	if l.lexed {
		return
	}
	l.lexed = true

	var start time.Time
	if l.telemetryMode >= TelemetryTiming {
		start = time.Now()
	}

	for {
		spaceBefore := l.skipTrivia() || l.position == 0
		tok := l.lexToken()
		tok.SpaceBefore = spaceBefore
		l.tokens = append(l.tokens, tok)
		if l.telemetry != nil {
			l.telemetry.TokenCounts[tok.Type]++
			l.telemetry.Total++
		}
		if tok.Type == EOF {
			break
		}
	}

	// A token is followed by space when the next token was preceded by it.
	for i := 0; i+1 < len(l.tokens); i++ {
		l.tokens[i].SpaceAfter = l.tokens[i+1].SpaceBefore || l.tokens[i+1].Type == EOF
	}
	l.tokens[len(l.tokens)-1].SpaceAfter = true

	if l.telemetryMode >= TelemetryTiming {
		l.telemetry.Duration = time.Since(start)
	}
}

func (l *Lexer) recordDebugEvent(event, context string) {
	if l.debugLevel == DebugOff {
		return
	}
	l.debugEvents = append(l.debugEvents, DebugEvent{
		Timestamp: time.Now(),
		Event:     event,
		Position:  l.pos(),
		Context:   context,
	})
}

func (l *Lexer) pos() Position {
	return Position{Line: l.line, Column: l.column, Offset: l.position}
}

// skipTrivia skips whitespace and comments, reporting whether anything was skipped
func (l *Lexer) skipTrivia() bool {
	skipped := false
	for l.position < len(l.input) {
		ch := l.input[l.position]
		switch {
		case ch < 128 && isWhitespace[ch]:
			l.advanceChar()
		case ch == '#':
			l.skipLine()
		case ch == '/' && l.peek(1) == '/':
			l.skipLine()
		case ch == '/' && l.peek(1) == '*':
			l.skipBlockComment()
		default:
			return skipped
		}
		skipped = true
	}
	return skipped
}

func (l *Lexer) skipLine() {
	for l.position < len(l.input) && l.input[l.position] != '\n' && l.input[l.position] != '\r' {
		l.advanceChar()
	}
}

// skipBlockComment consumes /* ... */; an unterminated comment runs to end of input
func (l *Lexer) skipBlockComment() {
	l.advanceChar()
	l.advanceChar()
	for l.position < len(l.input) {
		if l.input[l.position] == '*' && l.peek(1) == '/' {
			l.advanceChar()
			l.advanceChar()
			return
		}
		l.advanceChar()
	}
}

func (l *Lexer) peek(n int) byte {
	if l.position+n < len(l.input) {
		return l.input[l.position+n]
	}
	return 0
}

func (l *Lexer) advanceChar() {
	if l.position >= len(l.input) {
		return
	}
	if l.input[l.position] == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	l.position++
}

func (l *Lexer) token(typ TokenType, start Position) Token {
	return Token{
		Type:     typ,
		Text:     string(l.input[start.Offset:l.position]),
		Span:     Span{Start: start.Offset, End: l.position},
		Position: start,
	}
}

// lexToken performs the actual tokenization work
func (l *Lexer) lexToken() Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_lexToken", "starting tokenization")
	}

	start := l.pos()
	if l.position >= len(l.input) {
		return l.token(EOF, start)
	}

	ch := l.input[l.position]
	if l.debugLevel >= DebugDetailed {
		l.recordDebugEvent("current_char", string(ch))
	}

	if ch < 128 && isIdentStart[ch] {
		return l.lexIdentifier(start)
	}
	if ch < 128 && isDigit[ch] {
		return l.lexNumber(start)
	}
	if ch == '"' {
		return l.lexString(start)
	}

	// Two-character operators first
	if typ, ok := twoCharOps[[2]byte{ch, l.peek(1)}]; ok {
		l.advanceChar()
		l.advanceChar()
		return l.token(typ, start)
	}
	if typ, ok := oneCharOps[ch]; ok {
		l.advanceChar()
		return l.token(typ, start)
	}

	// Unrecognized character: consume one full rune so spans stay on rune boundaries
	_, size := utf8.DecodeRune(l.input[l.position:])
	for i := 0; i < size; i++ {
		l.advanceChar()
	}
	tok := l.token(ILLEGAL, start)
	tok.Reason = IllegalCharacter
	return tok
}

// lexIdentifier reads an identifier, keyword or builtin name (`name!`)
func (l *Lexer) lexIdentifier(start Position) Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_lexIdentifier", "reading identifier/keyword")
	}
	for l.position < len(l.input) {
		ch := l.input[l.position]
		if ch >= 128 || !isIdentPart[ch] {
			break
		}
		l.advanceChar()
	}
	name := string(l.input[start.Offset:l.position])

	// `name!` is a builtin call unless the `!` starts `!=`
	if l.peek(0) == '!' && l.peek(1) != '=' {
		l.advanceChar()
		tok := l.token(BUILTIN, start)
		tok.Value = name
		return tok
	}

	if typ, ok := Keywords[name]; ok {
		tok := l.token(typ, start)
		if typ == BOOLEAN {
			tok.Bool = name == "true"
		}
		return tok
	}

	tok := l.token(IDENTIFIER, start)
	tok.Value = name
	return tok
}

// lexNumber reads `[0-9]+` or `[0-9]+.[0-9]+`
func (l *Lexer) lexNumber(start Position) Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_lexNumber", "reading number")
	}
	l.skipDigits()
	if l.peek(0) == '.' && l.peek(1) < 128 && isDigit[l.peek(1)] {
		l.advanceChar()
		l.skipDigits()
	}
	tok := l.token(NUMBER, start)
	// Digits only, so parsing cannot fail short of overflow to +Inf.
	tok.Number, _ = strconv.ParseFloat(tok.Text, 64)
	return tok
}

func (l *Lexer) skipDigits() {
	for l.position < len(l.input) && l.input[l.position] < 128 && isDigit[l.input[l.position]] {
		l.advanceChar()
	}
}

// lexString reads a double-quoted string, decoding escapes
func (l *Lexer) lexString(start Position) Token {
	if l.debugLevel > DebugOff {
		l.recordDebugEvent("enter_lexString", "reading string")
	}
	l.advanceChar() // opening quote

	var b strings.Builder
	reason := IllegalNone
	for {
		if l.position >= len(l.input) {
			tok := l.token(ILLEGAL, start)
			tok.Reason = IllegalUnterminatedString
			return tok
		}
		ch := l.input[l.position]
		if ch == '"' {
			l.advanceChar()
			break
		}
		if ch != '\\' {
			b.WriteByte(ch)
			l.advanceChar()
			continue
		}

		l.advanceChar()
		esc := l.peek(0)
		switch esc {
		case '"', '\\', '/':
			b.WriteByte(esc)
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'n':
			b.WriteByte('\n')
		case 'r':
			b.WriteByte('\r')
		case 't':
			b.WriteByte('\t')
		case 'u':
			hex := ""
			if l.position+5 <= len(l.input) {
				hex = string(l.input[l.position+1 : l.position+5])
			}
			code, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				reason = IllegalEscape
				break
			}
			b.WriteRune(rune(code))
			for i := 0; i < 4; i++ {
				l.advanceChar()
			}
		default:
			reason = IllegalEscape
		}
		l.advanceChar()
	}

	if reason != IllegalNone {
		tok := l.token(ILLEGAL, start)
		tok.Reason = reason
		return tok
	}
	tok := l.token(STRING, start)
	tok.Value = b.String()
	return tok
}

var twoCharOps = map[[2]byte]TokenType{
	{'&', '&'}: AND_AND,
	{'|', '|'}: OR_OR,
	{'<', '>'}: CONCAT,
	{'+', '='}: PLUS_ASSIGN,
	{'-', '='}: MINUS_ASSIGN,
	{'*', '='}: MULTIPLY_ASSIGN,
	{'/', '='}: DIVIDE_ASSIGN,
	{'%', '='}: MODULO_ASSIGN,
	{'-', '>'}: ARROW,
	{'>', '='}: GT_EQ,
	{'<', '='}: LT_EQ,
	{'=', '='}: EQ_EQ,
	{'!', '='}: NOT_EQ,
}

var oneCharOps = map[byte]TokenType{
	'.': DOT,
	':': COLON,
	';': SEMICOLON,
	',': COMMA,
	'!': NOT,
	'+': PLUS,
	'-': MINUS,
	'*': MULTIPLY,
	'/': DIVIDE,
	'%': MODULO,
	'>': GT,
	'<': LT,
	'=': EQUALS,
	'(': LPAREN,
	')': RPAREN,
	'[': LSQUARE,
	']': RSQUARE,
	'{': LBRACE,
	'}': RBRACE,
}

// Character lookup tables for fast ASCII classification
var (
	isWhitespace [128]bool
	isDigit      [128]bool
	isIdentStart [128]bool
	isIdentPart  [128]bool
)

func init() {
	for _, ch := range " \t\r\n\f" {
		isWhitespace[ch] = true
	}
	for ch := '0'; ch <= '9'; ch++ {
		isDigit[ch] = true
		isIdentPart[ch] = true
	}
	for ch := 'a'; ch <= 'z'; ch++ {
		isIdentStart[ch] = true
		isIdentPart[ch] = true
	}
	for ch := 'A'; ch <= 'Z'; ch++ {
		isIdentStart[ch] = true
		isIdentPart[ch] = true
	}
	isIdentStart['_'] = true
	isIdentPart['_'] = true
	isIdentPart['-'] = true
}
