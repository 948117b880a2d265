// Package lexer turns Compost source text into a leveled token stream, per
// spec §4.1: each retained token carries a level computed from a stack of
// open scope markers plus the current line's indentation. The level is the
// only signal the parser uses to recognize nesting; there are no explicit
// block delimiters.
package lexer

import "fmt"

// Kind enumerates every token variant named in spec §3.
type Kind int

const (
	EndOfInput Kind = iota
	LevelOpenColon
	LevelOpenParen
	LevelCloseColon
	LevelCloseParen
	SeparatorComma
	SeparatorNewline

	KeywordMod
	KeywordClass
	KeywordStruct
	KeywordTraits
	KeywordDefs
	KeywordLets
	KeywordUsing
	KeywordMatch
	KeywordIf
	KeywordThen
	KeywordElse
	KeywordSelf

	IdentLower
	IdentUpper

	OpDot
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpEq
	OpLt
	OpGt
	OpAnd
	OpOr
	OpQuestion
	OpAt

	LitInteger
	LitString
	LitBool
)

var kindNames = map[Kind]string{
	EndOfInput:       "end of input",
	LevelOpenColon:   "':'",
	LevelOpenParen:   "'('",
	LevelCloseColon:  "implicit end of ':' block",
	LevelCloseParen:  "')'",
	SeparatorComma:   "','",
	SeparatorNewline: "newline",
	KeywordMod:       "'mod'",
	KeywordClass:     "'class'",
	KeywordStruct:    "'struct'",
	KeywordTraits:    "'traits'",
	KeywordDefs:      "'defs'",
	KeywordLets:      "'lets'",
	KeywordUsing:     "'using'",
	KeywordMatch:     "'match'",
	KeywordIf:        "'if'",
	KeywordThen:      "'then'",
	KeywordElse:      "'else'",
	KeywordSelf:      "'Self'",
	IdentLower:       "lowercase identifier",
	IdentUpper:       "uppercase identifier",
	OpDot:            "'.'",
	OpAdd:            "'+'",
	OpSub:            "'-'",
	OpMul:            "'*'",
	OpDiv:            "'/'",
	OpEq:             "'='",
	OpLt:             "'<'",
	OpGt:             "'>'",
	OpAnd:            "'&'",
	OpOr:             "'|'",
	OpQuestion:       "'?'",
	OpAt:             "'@'",
	LitInteger:       "integer literal",
	LitString:        "string literal",
	LitBool:          "boolean literal",
}

// Human returns a human-readable description of the token kind, used in
// parser error messages.
func (k Kind) Human() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) String() string {
	return k.Human()
}

var keywords = map[string]Kind{
	"mod":    KeywordMod,
	"class":  KeywordClass,
	"struct": KeywordStruct,
	"traits": KeywordTraits,
	"defs":   KeywordDefs,
	"lets":   KeywordLets,
	"using":  KeywordUsing,
	"match":  KeywordMatch,
	"if":     KeywordIf,
	"then":   KeywordThen,
	"else":   KeywordElse,
}

// Token is a single retained lexeme plus its structural level and source
// position, per spec §3/§4.1.
type Token struct {
	Kind Kind
	Text string

	// Level is stack.len() + indentation at the moment the token was
	// produced; see spec §4.1.
	Level int

	// Offset is the 0-indexed byte offset of the first byte of Text (or, for
	// zero-width tokens such as EndOfInput, the offset immediately after the
	// last consumed byte).
	Offset int

	// Line and Col are 1-indexed.
	Line int
	Col  int

	// SourceLine is the full text of the physical line the token starts on,
	// without its line terminator.
	SourceLine string
}

// IsKeyword reports whether s is one of the reserved lowercase keywords
// (excluding Self, which is reserved separately as an uppercase identifier).
func IsKeyword(s string) (Kind, bool) {
	k, ok := keywords[s]
	return k, ok
}
