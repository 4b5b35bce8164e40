package opseq

import "github.com/aledsdavies/scrapile/pkgs/lexer"

// Stream is a cursor over an EOF-terminated token slice shared between the
// engine and the grammar that drives it.
type Stream struct {
	tokens   []lexer.Token
	pos      int
	advanced bool // whether the last Next moved pos
}

// NewStream wraps tokens. A missing EOF terminator is appended.
func NewStream(tokens []lexer.Token) *Stream {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.EOF {
		end := 0
		if len(tokens) > 0 {
			end = tokens[len(tokens)-1].Span.End
		}
		tokens = append(tokens, lexer.Token{
			Type:        lexer.EOF,
			Span:        lexer.Span{Start: end, End: end},
			SpaceBefore: true,
			SpaceAfter:  true,
		})
	}
	return &Stream{tokens: tokens}
}

// Peek returns the next token without consuming it
func (s *Stream) Peek() lexer.Token {
	return s.tokens[s.pos]
}

// Next consumes and returns the next token. EOF is returned forever.
func (s *Stream) Next() lexer.Token {
	tok := s.tokens[s.pos]
	s.advanced = s.pos < len(s.tokens)-1
	if s.advanced {
		s.pos++
	}
	return tok
}

// Backup un-reads the last token returned by Next
func (s *Stream) Backup() {
	if s.advanced {
		s.pos--
		s.advanced = false
	}
}

// Pos returns the index of the next token
func (s *Stream) Pos() int {
	return s.pos
}
