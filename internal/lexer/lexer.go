package lexer

import (
	"strings"
	"unicode"

	"github.com/dekarrin/compost/internal/cerr"
)

// marker is an open scope marker pushed by a LevelOpen token, per spec §4.1.
type marker int

const (
	markerColon marker = iota
	markerParen
)

// Lexer performs longest-match scanning over Compost source text, tracking
// the structural level described in spec §4.1 as it goes. The zero value is
// not ready for use; create one with New.
type Lexer struct {
	src []rune

	// byte offsets of the start of each rune in src, so that Token.Offset can
	// be reported in bytes rather than runes.
	byteOffsets []int

	pos int // index into src

	stack       []marker
	indentation int
	atLineStart bool

	line       int
	lineStart  int // index into src of the start of the current line
	lines      []string
	emittedEnd bool
}

// New creates a Lexer over the given source text.
func New(source string) *Lexer {
	runes := []rune(source)
	offsets := make([]int, len(runes)+1)
	b := 0
	for i, r := range runes {
		offsets[i] = b
		b += len(string(r))
	}
	offsets[len(runes)] = b

	return &Lexer{
		src:         runes,
		byteOffsets: offsets,
		stack:       nil,
		indentation: 0,
		atLineStart: true,
		line:        1,
		lines:       splitLines(source),
	}
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

func (lx *Lexer) peek() (rune, bool) {
	if lx.pos >= len(lx.src) {
		return 0, false
	}
	return lx.src[lx.pos], true
}

func (lx *Lexer) peekAt(off int) (rune, bool) {
	i := lx.pos + off
	if i >= len(lx.src) {
		return 0, false
	}
	return lx.src[i], true
}

func (lx *Lexer) level() int {
	return len(lx.stack) + lx.indentation
}

func (lx *Lexer) currentSourceLine() string {
	if lx.line-1 < len(lx.lines) && lx.line-1 >= 0 {
		return lx.lines[lx.line-1]
	}
	return ""
}

func (lx *Lexer) makeToken(kind Kind, text string, startPos int) Token {
	col := startPos - lx.lineStart + 1
	return Token{
		Kind:       kind,
		Text:       text,
		Level:      lx.level(),
		Offset:     lx.byteOffsets[startPos],
		Line:       lx.line,
		Col:        col,
		SourceLine: lx.currentSourceLine(),
	}
}

// Lex tokenizes the entire source and returns the retained token stream
// ending in a single EndOfInput at level 0, or the first lexical error
// encountered.
func Lex(source string) ([]Token, error) {
	lx := New(source)
	var out []Token
	for {
		tok, err := lx.next()
		if err != nil {
			return nil, err
		}
		out = append(out, tok)
		if tok.Kind == EndOfInput {
			return out, nil
		}
	}
}

// next scans and returns the next retained token, applying the level-stack
// mutation rules of spec §4.1 as it goes.
func (lx *Lexer) next() (Token, error) {
	for {
		r, ok := lx.peek()
		if !ok {
			lx.stack = nil
			lx.indentation = 0
			tok := lx.makeToken(EndOfInput, "", lx.pos)
			lx.emittedEnd = true
			return tok, nil
		}

		switch {
		case r == ' ':
			lx.pos++
			if lx.atLineStart {
				lx.indentation++
			}
			continue
		case r == '#':
			for {
				c, ok := lx.peek()
				if !ok || c == '\n' || c == '\r' {
					break
				}
				lx.pos++
			}
			continue
		case r == '\n' || r == '\r':
			start := lx.pos
			if r == '\r' {
				lx.pos++
				if c, ok := lx.peek(); ok && c == '\n' {
					lx.pos++
				}
			} else {
				lx.pos++
			}
			tok := lx.makeToken(SeparatorNewline, "\n", start)
			lx.applyNewline()
			return tok, nil
		case r == '(':
			start := lx.pos
			tok := lx.makeToken(LevelOpenParen, "(", start)
			lx.pos++
			lx.atLineStart = false
			lx.stack = append(lx.stack, markerParen)
			return tok, nil
		case r == ')':
			start := lx.pos
			tok := lx.makeToken(LevelCloseParen, ")", start)
			lx.pos++
			lx.atLineStart = false
			lx.popUntilAndIncludingParen()
			return tok, nil
		case r == ':':
			start := lx.pos
			tok := lx.makeToken(LevelOpenColon, ":", start)
			lx.pos++
			lx.atLineStart = false
			lx.stack = append(lx.stack, markerColon)
			return tok, nil
		case r == ',':
			start := lx.pos
			tok := lx.makeToken(SeparatorComma, ",", start)
			lx.pos++
			lx.atLineStart = false
			lx.popSingleColon()
			return tok, nil
		case r == '+':
			return lx.singleCharToken(OpAdd, "+")
		case r == '-':
			return lx.singleCharToken(OpSub, "-")
		case r == '*':
			return lx.singleCharToken(OpMul, "*")
		case r == '/':
			return lx.singleCharToken(OpDiv, "/")
		case r == '<':
			return lx.singleCharToken(OpLt, "<")
		case r == '>':
			return lx.singleCharToken(OpGt, ">")
		case r == '=':
			return lx.singleCharToken(OpEq, "=")
		case r == '&':
			return lx.singleCharToken(OpAnd, "&")
		case r == '|':
			return lx.singleCharToken(OpOr, "|")
		case r == '?':
			return lx.singleCharToken(OpQuestion, "?")
		case r == '@':
			return lx.singleCharToken(OpAt, "@")
		case r == '.':
			return lx.singleCharToken(OpDot, ".")
		case r == '\'':
			return lx.lexString()
		case unicode.IsDigit(r):
			return lx.lexInteger()
		case r >= 'a' && r <= 'z':
			return lx.lexLowerIdent()
		case (r >= 'A' && r <= 'Z') || r == '\\':
			return lx.lexUpperIdent()
		default:
			off := lx.byteOffsets[lx.pos]
			return Token{}, cerr.AtOffset(cerr.UnexpectedChar, "unexpected character "+string(r), off)
		}
	}
}

func (lx *Lexer) singleCharToken(kind Kind, text string) (Token, error) {
	start := lx.pos
	tok := lx.makeToken(kind, text, start)
	lx.pos++
	lx.atLineStart = false
	return tok, nil
}

// applyNewline removes all Colon markers from the stack and resets
// indentation, per spec §4.1.
func (lx *Lexer) applyNewline() {
	kept := lx.stack[:0]
	for _, m := range lx.stack {
		if m != markerColon {
			kept = append(kept, m)
		}
	}
	lx.stack = kept
	lx.indentation = 0
	lx.atLineStart = true
	lx.line++
	lx.lineStart = lx.pos
}

// popUntilAndIncludingParen pops markers until (and including) the nearest
// Paren marker, per spec §4.1.
func (lx *Lexer) popUntilAndIncludingParen() {
	for len(lx.stack) > 0 {
		top := lx.stack[len(lx.stack)-1]
		lx.stack = lx.stack[:len(lx.stack)-1]
		if top == markerParen {
			return
		}
	}
}

// popSingleColon pops one Colon marker if present, per spec §4.1's
// Separator(Comma) rule.
func (lx *Lexer) popSingleColon() {
	if len(lx.stack) > 0 && lx.stack[len(lx.stack)-1] == markerColon {
		lx.stack = lx.stack[:len(lx.stack)-1]
	}
}

func (lx *Lexer) lexString() (Token, error) {
	start := lx.pos
	lx.pos++ // opening quote
	var sb strings.Builder
	for {
		r, ok := lx.peek()
		if !ok {
			break
		}
		lx.pos++
		if r == '\'' {
			tok := lx.makeToken(LitString, sb.String(), start)
			lx.atLineStart = false
			return tok, nil
		}
		sb.WriteRune(r)
	}
	off := lx.byteOffsets[start]
	return Token{}, cerr.AtOffset(cerr.UnexpectedChar, "unterminated string literal", off)
}

func (lx *Lexer) lexInteger() (Token, error) {
	start := lx.pos
	var sb strings.Builder
	for {
		r, ok := lx.peek()
		if !ok || !unicode.IsDigit(r) {
			break
		}
		sb.WriteRune(r)
		lx.pos++
	}
	tok := lx.makeToken(LitInteger, sb.String(), start)
	lx.atLineStart = false
	return tok, nil
}

func (lx *Lexer) lexLowerIdent() (Token, error) {
	start := lx.pos
	var sb strings.Builder
	for {
		r, ok := lx.peek()
		if !ok || !isIdentContinue(r) {
			break
		}
		sb.WriteRune(r)
		lx.pos++
	}
	text := sb.String()
	lx.atLineStart = false

	if text == "true" || text == "false" {
		return lx.makeToken(LitBool, text, start), nil
	}
	if kw, ok := IsKeyword(text); ok {
		return lx.makeToken(kw, text, start), nil
	}
	return lx.makeToken(IdentLower, text, start), nil
}

func (lx *Lexer) lexUpperIdent() (Token, error) {
	start := lx.pos
	var sb strings.Builder
	for {
		r, ok := lx.peek()
		if !ok || !(isIdentContinue(r) || r == '\\') {
			break
		}
		sb.WriteRune(r)
		lx.pos++
	}
	text := sb.String()
	lx.atLineStart = false

	if text == "Self" {
		return lx.makeToken(KeywordSelf, text, start), nil
	}
	return lx.makeToken(IdentUpper, text, start), nil
}

func isIdentContinue(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
