package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dekarrin/compost/internal/ast"
	"github.com/dekarrin/compost/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Program {
	t.Helper()
	tokens, err := lexer.Lex(src)
	require.NoError(t, err)
	prog, err := Parse(tokens)
	require.NoError(t, err)
	return prog
}

func TestParse_ModuleWithStructAndDefs(t *testing.T) {
	src := "mod Point\n" +
		"    struct\n" +
		"        x int\n" +
		"        y int\n" +
		"    traits\n" +
		"        Sum: -> Int\n" +
		"    defs\n" +
		"        Sum: x\n"
	prog := parse(t, src)
	require.Len(t, prog.Modules, 1)
	m := prog.Modules[0]
	assert.Equal(t, "Point", m.Name)
	require.NotNil(t, m.Struct)
	require.Nil(t, m.Class)
	require.Len(t, m.Struct.Fields, 2)
	assert.Equal(t, "x", m.Struct.Fields[0].Name)
	assert.Equal(t, "int", m.Struct.Fields[0].RawType)
	assert.Equal(t, "y", m.Struct.Fields[1].Name)

	require.Len(t, m.Traits, 1)
	assert.Equal(t, "Sum", m.Traits[0].Name)
	require.NotNil(t, m.Traits[0].Output)
	assert.Equal(t, ast.TypeName, m.Traits[0].Output.Kind)
	assert.Equal(t, "Int", m.Traits[0].Output.Name)

	require.Len(t, m.Defs, 1)
	assert.Equal(t, "Sum", m.Defs[0].TraitName)
	require.NotNil(t, m.Defs[0].Body)
	assert.Equal(t, ast.ExprLocal, m.Defs[0].Body.Kind)
	assert.Equal(t, "x", m.Defs[0].Body.LocalName)
}

func TestParse_ClassAndStructAreMutuallyExclusive(t *testing.T) {
	src := "mod Bad\n" +
		"    class\n" +
		"        a A\n" +
		"    struct\n" +
		"        x int\n"
	tokens, err := lexer.Lex(src)
	require.NoError(t, err)
	_, err = Parse(tokens)
	assert.Error(t, err)
}

func TestParse_ClassDepsUseUppercaseTypeGrammar(t *testing.T) {
	src := "mod Square\n" +
		"    class\n" +
		"        side Int\n"
	prog := parse(t, src)
	m := prog.Modules[0]
	require.NotNil(t, m.Class)
	require.Len(t, m.Class.Deps, 1)
	assert.Equal(t, "side", m.Class.Deps[0].Name)
	assert.Equal(t, ast.TypeName, m.Class.Deps[0].Type.Kind)
	assert.Equal(t, "Int", m.Class.Deps[0].Type.Name)
}

func TestParse_UsingWildcard(t *testing.T) {
	src := "mod A\n" +
		"    using\n" +
		"        Size*\n"
	prog := parse(t, src)
	m := prog.Modules[0]
	require.Len(t, m.Usings, 1)
	assert.Equal(t, "Size", m.Usings[0].Name)
	assert.True(t, m.Usings[0].Wildcard)
}

func TestParse_UsingWithoutWildcard(t *testing.T) {
	src := "mod A\n" +
		"    using\n" +
		"        Size\n"
	prog := parse(t, src)
	m := prog.Modules[0]
	require.Len(t, m.Usings, 1)
	assert.False(t, m.Usings[0].Wildcard)
}

func TestParse_TopLevelLets(t *testing.T) {
	prog := parse(t, "lets\n    Main\n        String\n        'hi'\n")
	require.Len(t, prog.Lets, 1)
	l := prog.Lets[0]
	assert.Equal(t, "Main", l.Name)
	require.NotNil(t, l.Output)
	assert.Equal(t, "String", l.Output.Name)
	require.NotNil(t, l.Body)
	assert.Equal(t, ast.ExprLiteral, l.Body.Kind)
	assert.Equal(t, ast.LitString, l.Body.LitKind)
	assert.Equal(t, "hi", l.Body.LitText)
}

func TestParse_LetWithParams(t *testing.T) {
	prog := parse(t, "lets\n    Add\n        a Int\n        b Int\n        -> Int\n        a.Add(rhs b)\n")
	l := prog.Lets[0]
	require.Len(t, l.Params, 2)
	assert.Equal(t, "a", l.Params[0].Name)
	assert.Equal(t, "b", l.Params[1].Name)
	require.NotNil(t, l.Output)
	assert.Equal(t, "Int", l.Output.Name)

	body := l.Body
	require.Equal(t, ast.ExprDefCall, body.Kind)
	assert.Equal(t, "Add", body.CallName)
	require.NotNil(t, body.Subject)
	assert.Equal(t, ast.ExprLocal, body.Subject.Kind)
	assert.Equal(t, "a", body.Subject.LocalName)
	require.Len(t, body.Args, 1)
	assert.Equal(t, "rhs", body.Args[0].Name)
	assert.Equal(t, "b", body.Args[0].Value.LocalName)
}

func TestParse_TypeAndOr(t *testing.T) {
	prog := parse(t, "lets\n    F\n        a A&B\n        c C|D\n        -> Int\n        1\n")
	l := prog.Lets[0]
	require.Len(t, l.Params, 2)

	and := l.Params[0].Type
	assert.Equal(t, ast.TypeAnd, and.Kind)
	assert.Equal(t, "A", and.Left.Name)
	assert.Equal(t, "B", and.Right.Name)

	or := l.Params[1].Type
	assert.Equal(t, ast.TypeOr, or.Kind)
	assert.Equal(t, "C", or.Left.Name)
	assert.Equal(t, "D", or.Right.Name)
}

func TestParse_SelfAndVoidTypes(t *testing.T) {
	prog := parse(t, "lets\n    F\n        a Self|?\n        -> Int\n        1\n")
	param := prog.Lets[0].Params[0]
	require.Equal(t, ast.TypeOr, param.Type.Kind)
	assert.Equal(t, ast.TypeSelf, param.Type.Left.Kind)
	assert.Equal(t, ast.TypeVoid, param.Type.Right.Kind)
}

func TestParse_ForcedTraitType(t *testing.T) {
	prog := parse(t, "lets\n    F\n        a @Area\n        -> Int\n        1\n")
	typ := prog.Lets[0].Params[0].Type
	assert.Equal(t, ast.TypeForced, typ.Kind)
	assert.Equal(t, "Area", typ.Name)
}

func TestParse_MatchExpression(t *testing.T) {
	src := "lets\n    F\n        a Self|?\n        -> String\n        match l a\n            Self l.String()\n            ? 'none'\n"
	prog := parse(t, src)
	body := prog.Lets[0].Body
	require.Equal(t, ast.ExprMatch, body.Kind)
	assert.Equal(t, "l", body.MatchBound)
	require.NotNil(t, body.MatchSubject)
	assert.Equal(t, "a", body.MatchSubject.LocalName)
	require.Len(t, body.MatchBranches, 2)
	assert.Equal(t, ast.TypeSelf, body.MatchBranches[0].Type.Kind)
	assert.Equal(t, ast.TypeVoid, body.MatchBranches[1].Type.Kind)
	assert.Equal(t, ast.LitString, body.MatchBranches[1].Body.LitKind)
}

func TestParse_IfThenElse(t *testing.T) {
	src := "lets\n    F\n        -> String\n        if true then 'yes' else 'no'\n"
	prog := parse(t, src)
	body := prog.Lets[0].Body
	require.Equal(t, ast.ExprIfElse, body.Kind)
	require.NotNil(t, body.Cond)
	assert.Equal(t, ast.LitBool, body.Cond.LitKind)
	assert.Equal(t, "yes", body.Then.LitText)
	assert.Equal(t, "no", body.Else.LitText)
}

func TestParse_BinaryOperatorsChainLeftToRight(t *testing.T) {
	prog := parse(t, "lets\n    F\n        -> Int\n        1 + 2 + 3\n")
	body := prog.Lets[0].Body
	require.Equal(t, ast.ExprBinary, body.Kind)
	assert.Equal(t, ast.BinAdd, body.BinOp)
	// left-to-right chaining: outermost node's Left is the (1 + 2) subtree.
	require.Equal(t, ast.ExprBinary, body.Left.Kind)
	assert.Equal(t, "1", body.Left.Left.LitText)
	assert.Equal(t, "2", body.Left.Right.LitText)
	assert.Equal(t, "3", body.Right.LitText)
}

func TestParse_FriendlyFieldAccess(t *testing.T) {
	prog := parse(t, "lets\n    F\n        a A\n        -> Int\n        a.value\n")
	body := prog.Lets[0].Body
	require.Equal(t, ast.ExprFriendlyField, body.Kind)
	assert.Equal(t, "a", body.LocalName)
	assert.Equal(t, "value", body.FieldName)
}

func TestParse_UnaryNegation(t *testing.T) {
	prog := parse(t, "lets\n    F\n        -> Int\n        -1\n")
	body := prog.Lets[0].Body
	require.Equal(t, ast.ExprUnary, body.Kind)
	assert.Equal(t, ast.UnNeg, body.UnOp)
	assert.Equal(t, "1", body.Left.LitText)
}

func TestParse_LetCallWithArgs(t *testing.T) {
	prog := parse(t, "lets\n    F\n        -> Int\n        Point(x 1 y 2)\n")
	body := prog.Lets[0].Body
	require.Equal(t, ast.ExprLetCall, body.Kind)
	assert.Equal(t, "Point", body.CallName)
	require.Len(t, body.Args, 2)
	assert.Equal(t, "x", body.Args[0].Name)
	assert.Equal(t, "1", body.Args[0].Value.LitText)
	assert.Equal(t, "y", body.Args[1].Name)
}

func TestParse_DotWithoutReceiverMeansSelf(t *testing.T) {
	src := "mod A\n    defs\n        Report: .Name()\n"
	prog := parse(t, src)
	body := prog.Modules[0].Defs[0].Body
	require.Equal(t, ast.ExprDefCall, body.Kind)
	require.Equal(t, ast.ExprSelf, body.Subject.Kind)
	assert.Equal(t, "Name", body.CallName)
}

func TestParse_UnexpectedTopLevelKeywordIsAnError(t *testing.T) {
	tokens, err := lexer.Lex("traits\n    Foo: -> Int\n")
	require.NoError(t, err)
	_, err = Parse(tokens)
	assert.Error(t, err)
}

func TestParse_EmptyTokenStreamIsAnError(t *testing.T) {
	_, err := Parse(nil)
	assert.Error(t, err)
}
