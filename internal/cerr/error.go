// Package cerr holds the single error type shared by every phase of the
// Compost pipeline: the lexer, the parser, the semantic analyzer, and the
// evaluator. Each error carries an enumerated Kind, a free-form payload, and
// an optional Context pinning it to a byte offset, a token index, or a token
// range. Context is only resolved to a line/column at report time, by
// re-walking the source (see Locate).
package cerr

import (
	"fmt"
	"strings"

	"github.com/dekarrin/rosed"
)

// Kind enumerates every distinguishable error condition named in spec §7.
type Kind int

const (
	UnexpectedChar Kind = iota
	UnexpectedToken
	NoSelf
	NoResolution
	DoubleDeclaration
	NoModuleOrTrait
	NoTrait
	DuplicateClass
	DuplicateStruct
	ClassAndStruct
	UnknownRawType
	UndefinedTrait
	MissingInput
	TypeMismatch
	RuntimeError
)

func (k Kind) String() string {
	switch k {
	case UnexpectedChar:
		return "UnexpectedChar"
	case UnexpectedToken:
		return "UnexpectedToken"
	case NoSelf:
		return "NoSelf"
	case NoResolution:
		return "NoResolution"
	case DoubleDeclaration:
		return "DoubleDeclaration"
	case NoModuleOrTrait:
		return "NoModuleOrTrait"
	case NoTrait:
		return "NoTrait"
	case DuplicateClass:
		return "DuplicateClass"
	case DuplicateStruct:
		return "DuplicateStruct"
	case ClassAndStruct:
		return "ClassAndStruct"
	case UnknownRawType:
		return "UnknownRawType"
	case UndefinedTrait:
		return "UndefinedTrait"
	case MissingInput:
		return "MissingInput"
	case TypeMismatch:
		return "TypeMismatch"
	case RuntimeError:
		return "RuntimeError"
	default:
		return "UNKNOWN ERROR KIND"
	}
}

// Context pins an Error to a position in the concatenated program source
// (prelude followed by the user file). Exactly one of the three position
// kinds is meaningful; which one is indicated by the source that created it.
type Context struct {
	// Offset is a 0-indexed byte offset into the source, set by the lexer.
	Offset int

	// HasOffset is true if Offset should be used to compute line/column.
	HasOffset bool

	// TokenIndex is set by the parser to refer to a single offending token.
	TokenIndex int

	// HasTokenIndex is true if TokenIndex should be used.
	HasTokenIndex bool

	// RangeStart/RangeEnd are a half-open token range, set for
	// statement-level errors from the semantic analyzer.
	RangeStart, RangeEnd int
	HasRange             bool
}

// Error is the single error type produced by every phase of the pipeline.
type Error struct {
	kind    Kind
	message string
	cause   error
	ctx     Context

	// resolved is filled in by Locate once line/column are known.
	resolvedLine, resolvedCol int
	resolvedSourceLine        string
	located                   bool
}

// New creates an Error of the given kind with a human-readable message.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(kind Kind, format string, args ...any) *Error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap returns a copy of e with cause set as its wrapped error, compatible
// with errors.Is/errors.Unwrap.
func (e *Error) Wrap(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// At returns a copy of e with the given Context attached.
func (e *Error) At(ctx Context) *Error {
	cp := *e
	cp.ctx = ctx
	cp.located = false
	return &cp
}

// AtOffset is a convenience for At with a byte-offset Context.
func AtOffset(kind Kind, message string, offset int) *Error {
	return New(kind, message).At(Context{Offset: offset, HasOffset: true})
}

// AtToken is a convenience for At with a token-index Context.
func AtToken(kind Kind, message string, tokenIndex int) *Error {
	return New(kind, message).At(Context{TokenIndex: tokenIndex, HasTokenIndex: true})
}

// AtRange is a convenience for At with a token-range Context.
func AtRange(kind Kind, message string, start, end int) *Error {
	return New(kind, message).At(Context{RangeStart: start, RangeEnd: end, HasRange: true})
}

// Kind returns the enumerated kind of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// Error satisfies the error interface. It returns the short technical message
// without any resolved position.
func (e *Error) Error() string {
	msg := e.message
	if e.cause != nil {
		msg = msg + ": " + e.cause.Error()
	}
	return msg
}

// Unwrap allows errors.Is/errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// Context returns the raw, unresolved context attached to the error.
func (e *Error) Context() Context {
	return e.ctx
}

// Locator converts a byte offset or token index/range into a 1-indexed
// line/column, and supplies the exact text of the offending source line. A
// single program is the stdlib prelude concatenated with the user file, so a
// Locator also knows how many prelude lines to subtract so that positions are
// reported relative to the user's own file.
type Locator interface {
	// LineCol returns the 1-indexed line and column for a byte offset, the
	// full text of that line, and the line number adjusted to be relative to
	// the user file (prelude lines subtracted; may be <= 0 if the offset
	// falls within the prelude itself).
	LineCol(offset int) (line, col int, sourceLine string, userLine int)

	// TokenOffset returns the starting byte offset of the token at the given
	// index.
	TokenOffset(tokenIndex int) (offset int, ok bool)
}

// Locate resolves e's Context against loc, filling in line/column
// information used by FullMessage. It is idempotent and may be called more
// than once (e.g. after the offending token stream has been finalized).
func (e *Error) Locate(loc Locator) {
	var offset int
	var ok = true

	switch {
	case e.ctx.HasOffset:
		offset = e.ctx.Offset
	case e.ctx.HasTokenIndex:
		offset, ok = loc.TokenOffset(e.ctx.TokenIndex)
	case e.ctx.HasRange:
		offset, ok = loc.TokenOffset(e.ctx.RangeStart)
	default:
		ok = false
	}

	if !ok {
		e.located = true
		return
	}

	line, col, srcLine, userLine := loc.LineCol(offset)
	e.resolvedLine = userLine
	if userLine <= 0 {
		e.resolvedLine = line
	}
	e.resolvedCol = col
	e.resolvedSourceLine = srcLine
	e.located = true
}

// Line returns the 1-indexed line the error occurred on, relative to the user
// file. Returns 0 if the error has no resolved position.
func (e *Error) Line() int {
	if !e.located {
		return 0
	}
	return e.resolvedLine
}

// Position returns the 1-indexed column the error occurred on. Returns 0 if
// the error has no resolved position.
func (e *Error) Position() int {
	if !e.located {
		return 0
	}
	return e.resolvedCol
}

// SourceLineWithCursor renders the offending line with a caret under the
// exact column, in the style of tunascript's SyntaxError.
func (e *Error) SourceLineWithCursor() string {
	if !e.located || e.resolvedSourceLine == "" {
		return ""
	}
	cursor := strings.Repeat(" ", e.resolvedCol-1) + "^"
	return e.resolvedSourceLine + "\n" + cursor
}

// FullMessage renders the complete, human-facing error: the source line with
// a cursor (if known), followed by the error kind and message, word-wrapped
// to width. A width of 0 disables wrapping.
func (e *Error) FullMessage(width int) string {
	body := fmt.Sprintf("%s: %s", e.kind, e.Error())
	if e.located && e.resolvedLine > 0 {
		body = fmt.Sprintf("line %d, col %d: %s", e.resolvedLine, e.resolvedCol, body)
	}

	full := body
	if cursor := e.SourceLineWithCursor(); cursor != "" {
		full = cursor + "\n" + body
	}

	if width <= 0 {
		return full
	}
	return rosed.Edit(full).Wrap(width).String()
}
