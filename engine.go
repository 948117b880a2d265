// Package compost contains the end-to-end pipeline for running a Compost
// program: lex, parse, analyze, evaluate, and render the result.
package compost

import (
	"fmt"
	"strings"

	"github.com/dekarrin/compost/internal/cerr"
	"github.com/dekarrin/compost/internal/eval"
	"github.com/dekarrin/compost/internal/lexer"
	"github.com/dekarrin/compost/internal/parser"
	"github.com/dekarrin/compost/internal/semantic"
	"github.com/dekarrin/compost/internal/stdlib"
)

// Engine holds the compiled form of a single Compost program: the stdlib
// prelude concatenated with the user's own source, lexed, parsed, and
// semantically analyzed and ready to evaluate.
type Engine struct {
	tokens []lexer.Token
	ctx    *semantic.Context
	loc    *tokenLocator
}

// New lexes, parses, and analyzes source (the user's own Compost file
// contents, not including the prelude). It returns a ready-to-run Engine, or
// the first cerr.Error encountered, already Located against source.
func New(source string) (*Engine, error) {
	full := stdlib.Prelude + source

	tokens, err := lexer.Lex(full)
	if err != nil {
		return nil, locateAndReturn(err, tokens, full)
	}

	prog, err := parser.Parse(tokens)
	if err != nil {
		return nil, locateAndReturn(err, tokens, full)
	}

	ctx, err := semantic.Analyze(prog)
	if err != nil {
		return nil, locateAndReturn(err, tokens, full)
	}

	return &Engine{
		tokens: tokens,
		ctx:    ctx,
		loc:    newTokenLocator(tokens, full),
	}, nil
}

// Run evaluates the program's top-level Main let and renders its result as a
// display string, per spec §6.
func (eng *Engine) Run() (string, error) {
	ev := eval.New(eng.ctx)
	result, err := ev.Run()
	if err != nil {
		return "", locateWith(err, eng.loc)
	}
	out, err := ev.ToDisplayString(result)
	if err != nil {
		return "", locateWith(err, eng.loc)
	}
	return out, nil
}

// locateAndReturn attaches a freshly-built tokenLocator to err if it is a
// *cerr.Error, then returns it so callers can render it with FullMessage.
// Non-cerr errors (which should not occur in this pipeline) pass through
// unchanged.
func locateAndReturn(err error, tokens []lexer.Token, full string) error {
	return locateWith(err, newTokenLocator(tokens, full))
}

func locateWith(err error, loc cerr.Locator) error {
	ce, ok := err.(*cerr.Error)
	if !ok {
		return err
	}
	ce.Locate(loc)
	return ce
}

// Render formats err for display, word-wrapped to width, using FullMessage
// when err already carries resolved position info. Pass 0 to disable
// wrapping.
func Render(err error, width int) string {
	if ce, ok := err.(*cerr.Error); ok {
		return ce.FullMessage(width)
	}
	return fmt.Sprintf("%s", err)
}

// tokenLocator implements cerr.Locator on top of the lexer's own per-token
// Line/Col/SourceLine bookkeeping, adjusting reported line numbers so they
// are relative to the user's file rather than the concatenated prelude+user
// source (spec §7).
type tokenLocator struct {
	tokens []lexer.Token
	lines  []string
}

func newTokenLocator(tokens []lexer.Token, full string) *tokenLocator {
	return &tokenLocator{tokens: tokens, lines: strings.Split(full, "\n")}
}

func (tl *tokenLocator) LineCol(offset int) (line, col int, sourceLine string, userLine int) {
	// Tokens are produced in source order and each carries the exact
	// Line/Col/SourceLine for its own Offset; find the last token starting at
	// or before offset and reuse its position rather than re-scanning the
	// source ourselves.
	best := -1
	for i, t := range tl.tokens {
		if t.Offset <= offset {
			best = i
		} else {
			break
		}
	}
	if best < 0 {
		// No token starts at or before offset (a lexer error leaves no token
		// stream at all), so count lines and columns from the source text.
		start := 0
		for i, l := range tl.lines {
			if offset-start <= len(l) || i == len(tl.lines)-1 {
				n := offset - start
				if n > len(l) {
					n = len(l)
				}
				return i + 1, len([]rune(l[:n])) + 1, l, i + 1 - stdlib.LineCount
			}
			start += len(l) + 1
		}
		return 1, 1, firstLine(tl.lines), 1 - stdlib.LineCount
	}
	t := tl.tokens[best]
	return t.Line, t.Col, t.SourceLine, t.Line - stdlib.LineCount
}

func (tl *tokenLocator) TokenOffset(tokenIndex int) (offset int, ok bool) {
	if tokenIndex < 0 || tokenIndex >= len(tl.tokens) {
		return 0, false
	}
	return tl.tokens[tokenIndex].Offset, true
}

func firstLine(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[0]
}
