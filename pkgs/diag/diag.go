// Package diag describes compiler diagnostics and renders them as annotated
// source snippets.
//
// A Report has one primary label (the offending span) and any number of
// context labels that explain where the problem was introduced:
//
//	error: cannot assign to immutable variable `x`
//	 --> main.scp:3:5
//	  |
//	3 |     mut x = 2;
//	  |     ^^^^^^^^^ assignment here
//	 --> main.scp:2:5
//	  |
//	2 |     let x = 1;
//	  |     --------- declared immutable here
package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/aledsdavies/scrapile/pkgs/lexer"
)

// Label attaches a message to a span of source
type Label struct {
	Span    lexer.Span
	Message string
}

// Report is a renderable diagnostic
type Report struct {
	Message string
	Primary Label
	Context []Label
	Hint    string // optional trailing note, e.g. "did you mean `x`?"
}

// Reportable is implemented by every user-facing compiler error
type Reportable interface {
	error
	Report() Report
}

// RenderOpt configures rendering
type RenderOpt func(*renderConfig)

type renderConfig struct {
	color bool
}

// WithColor enables ANSI colors: red for the primary label, blue for context
func WithColor(enabled bool) RenderOpt {
	return func(c *renderConfig) {
		c.color = enabled
	}
}

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiRed   = "\x1b[31m"
	ansiBlue  = "\x1b[34m"
)

// Render writes r as annotated snippets of src. name identifies the source in
// location headers.
func Render(w io.Writer, name, src string, r Report, opts ...RenderOpt) error {
	cfg := &renderConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	var b strings.Builder
	b.WriteString(cfg.paint(ansiBold+ansiRed, "error"))
	b.WriteString(cfg.paint(ansiBold, ": "+r.Message))
	b.WriteByte('\n')

	writeLabel(&b, cfg, name, src, r.Primary, '^', ansiRed)
	for _, ctx := range r.Context {
		writeLabel(&b, cfg, name, src, ctx, '-', ansiBlue)
	}
	if r.Hint != "" {
		fmt.Fprintf(&b, "  = help: %s\n", r.Hint)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// String renders r without colors
func String(name, src string, r Report) string {
	var b strings.Builder
	_ = Render(&b, name, src, r)
	return b.String()
}

func (c *renderConfig) paint(code, text string) string {
	if !c.color {
		return text
	}
	return code + text + ansiReset
}

func writeLabel(b *strings.Builder, cfg *renderConfig, name, src string, l Label, mark byte, color string) {
	line, col := LineCol(src, l.Span.Start)
	lineText := lineAt(src, line)
	gutter := len(fmt.Sprint(line))
	pad := strings.Repeat(" ", gutter)

	fmt.Fprintf(b, "%s--> %s:%d:%d\n", pad, name, line, col)
	fmt.Fprintf(b, "%s |\n", pad)
	fmt.Fprintf(b, "%d | %s\n", line, lineText)

	// Multi-line spans are underlined to the end of their first line.
	width := l.Span.End - l.Span.Start
	if rest := len(lineText) - (col - 1); width > rest {
		width = rest
	}
	if width < 1 {
		width = 1
	}
	underline := strings.Repeat(string(mark), width)
	if l.Message != "" {
		underline += " " + l.Message
	}
	fmt.Fprintf(b, "%s | %s%s\n", pad, strings.Repeat(" ", col-1), cfg.paint(color, underline))
}

// LineCol converts a byte offset into 1-based line and column numbers.
// Offsets past the end of src are clamped.
func LineCol(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	if offset < 0 {
		offset = 0
	}
	line = 1 + strings.Count(src[:offset], "\n")
	col = offset - (strings.LastIndexByte(src[:offset], '\n') + 1) + 1
	return line, col
}

func lineAt(src string, line int) string {
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return strings.TrimRight(lines[line-1], "\r")
}
