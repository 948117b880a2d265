package lexer

import (
	"testing"

	"github.com/dekarrin/compost/internal/cerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLex_LevelsFollowIndentation(t *testing.T) {
	// Indentation is one increment per leading space (spec §4.1); nesting
	// only needs level to increase strictly at each deeper line, not to
	// match a particular step size, since the parser only ever compares
	// levels relatively (atDeeperThan/atLeastAsDeep).
	src := "mod Module\n    class\n        value Int\n"
	tokens, err := Lex(src)
	require.NoError(t, err)

	var levels []int
	for _, tok := range tokens {
		if tok.Kind == SeparatorNewline || tok.Kind == EndOfInput {
			continue
		}
		levels = append(levels, tok.Level)
	}
	assert.Equal(t, []int{0, 0, 4, 8, 8}, levels)
}

func TestLex_EndsWithEndOfInputAtLevelZero(t *testing.T) {
	tokens, err := Lex("mod A\n    class\n        x int\n")
	require.NoError(t, err)
	require.NotEmpty(t, tokens)
	last := tokens[len(tokens)-1]
	assert.Equal(t, EndOfInput, last.Kind)
	assert.Equal(t, 0, last.Level)
}

func TestLex_LevelsAreNeverNegative(t *testing.T) {
	tokens, err := Lex("mod A\n    class\n        x int\n    traits\n        Foo: -> Int\n")
	require.NoError(t, err)
	for _, tok := range tokens {
		assert.GreaterOrEqual(t, tok.Level, 0)
	}
}

func TestLex_Keywords(t *testing.T) {
	tokens, err := Lex("mod class struct traits defs lets using match if then else Self")
	require.NoError(t, err)

	kinds := kindsOf(tokens)
	assert.Equal(t, []Kind{
		KeywordMod, KeywordClass, KeywordStruct, KeywordTraits, KeywordDefs,
		KeywordLets, KeywordUsing, KeywordMatch, KeywordIf, KeywordThen,
		KeywordElse, KeywordSelf, EndOfInput,
	}, kinds)
}

func TestLex_IdentsAndQualifiedUpperIdent(t *testing.T) {
	tokens, err := Lex("foo Bar Op\\Add")
	require.NoError(t, err)
	require.Len(t, tokens, 4) // foo, Bar, Op\Add, EndOfInput
	assert.Equal(t, IdentLower, tokens[0].Kind)
	assert.Equal(t, "foo", tokens[0].Text)
	assert.Equal(t, IdentUpper, tokens[1].Kind)
	assert.Equal(t, "Bar", tokens[1].Text)
	assert.Equal(t, IdentUpper, tokens[2].Kind)
	assert.Equal(t, `Op\Add`, tokens[2].Text)
}

func TestLex_Operators(t *testing.T) {
	tokens, err := Lex("+-*/<>=&|?.@")
	require.NoError(t, err)
	kinds := kindsOf(tokens)
	assert.Equal(t, []Kind{
		OpAdd, OpSub, OpMul, OpDiv, OpLt, OpGt, OpEq, OpAnd, OpOr, OpQuestion, OpDot, OpAt, EndOfInput,
	}, kinds)
}

func TestLex_Literals(t *testing.T) {
	tokens, err := Lex("42 'a string' true false")
	require.NoError(t, err)
	require.Len(t, tokens, 5)
	assert.Equal(t, LitInteger, tokens[0].Kind)
	assert.Equal(t, "42", tokens[0].Text)
	assert.Equal(t, LitString, tokens[1].Kind)
	assert.Equal(t, "a string", tokens[1].Text)
	assert.Equal(t, LitBool, tokens[2].Kind)
	assert.Equal(t, "true", tokens[2].Text)
	assert.Equal(t, LitBool, tokens[3].Kind)
	assert.Equal(t, "false", tokens[3].Text)
}

func TestLex_CommentsAreDiscardedThroughNewline(t *testing.T) {
	tokens, err := Lex("mod A # a comment\nclass")
	require.NoError(t, err)
	kinds := kindsOf(tokens)
	assert.Equal(t, []Kind{KeywordMod, IdentUpper, SeparatorNewline, KeywordClass, EndOfInput}, kinds)
}

func TestLex_ParenMarkerAffectsLevel(t *testing.T) {
	tokens, err := Lex("Foo(bar Baz)")
	require.NoError(t, err)
	// Foo is at level 0; '(' opens a level; 'bar'/'Baz' sit inside it.
	var byText = map[string]int{}
	for _, tok := range tokens {
		if tok.Text != "" {
			byText[tok.Text] = tok.Level
		}
	}
	assert.Equal(t, 0, byText["Foo"])
	assert.Equal(t, 1, byText["bar"])
	assert.Equal(t, 1, byText["Baz"])
}

func TestLex_NewlineClearsColonMarkersAndIndentation(t *testing.T) {
	tokens, err := Lex("mod A:\n    traits\n")
	require.NoError(t, err)
	var traitsLevel int
	for _, tok := range tokens {
		if tok.Kind == KeywordTraits {
			traitsLevel = tok.Level
		}
	}
	// The colon pushes a marker, but the newline pops it before the next
	// line's own leading-space indentation is counted.
	assert.Equal(t, 4, traitsLevel)
}

func TestLex_UnexpectedCharacterReportsOffset(t *testing.T) {
	_, err := Lex("mod £")
	require.Error(t, err)
	ce, ok := err.(*cerr.Error)
	require.True(t, ok, "expected a *cerr.Error")
	assert.Equal(t, cerr.UnexpectedChar, ce.Kind())
	assert.True(t, ce.Context().HasOffset)
	assert.Equal(t, 4, ce.Context().Offset)
}

func TestLex_UnterminatedStringIsAnError(t *testing.T) {
	_, err := Lex("'unterminated")
	assert.Error(t, err)
}

func TestLex_Deterministic(t *testing.T) {
	src := "mod Foo\n    class\n        x Int\n    defs\n        Bar: x\n"
	a, err := Lex(src)
	require.NoError(t, err)
	b, err := Lex(src)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func kindsOf(tokens []Token) []Kind {
	out := make([]Kind, len(tokens))
	for i, t := range tokens {
		out[i] = t.Kind
	}
	return out
}
