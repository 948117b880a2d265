// Package parser implements the recursive-descent, level-driven parser of
// spec §4.2: there are no explicit block delimiters, so every non-terminal
// records the level of the token it starts on and recurses only while
// subsequent tokens are deeper (for child elements) or at-least-as-deep (for
// same-expression continuations) than that base level.
package parser

import (
	"fmt"

	"github.com/dekarrin/compost/internal/ast"
	"github.com/dekarrin/compost/internal/cerr"
	"github.com/dekarrin/compost/internal/lexer"
)

// Parser walks a token stream with a single cursor. Separator and
// level-bracket tokens (newline, comma, explicit colon/paren markers) carry
// no payload of their own — their only job was to shape the Level already
// baked into the tokens around them by the lexer — so the cursor transparently
// skips them; every parsing rule reasons purely in terms of token kind and
// token level.
type Parser struct {
	tokens []lexer.Token
	idx    int
}

// Parse builds a Program from a leveled token stream produced by the lexer.
func Parse(tokens []lexer.Token) (*ast.Program, error) {
	if len(tokens) == 0 {
		return nil, cerr.New(cerr.UnexpectedToken, "empty token stream (missing end of input)")
	}
	p := &Parser{tokens: tokens}

	prog := &ast.Program{}
	for p.cur().Kind != lexer.EndOfInput {
		switch p.cur().Kind {
		case lexer.KeywordMod:
			m, err := p.parseModule()
			if err != nil {
				return nil, err
			}
			prog.Modules = append(prog.Modules, m)
		case lexer.KeywordLets:
			ls, err := p.parseLetGroup()
			if err != nil {
				return nil, err
			}
			prog.Lets = append(prog.Lets, ls...)
		default:
			return nil, p.errUnexpected("'mod' or 'lets'")
		}
	}
	return prog, nil
}

func isNoise(k lexer.Kind) bool {
	switch k {
	case lexer.SeparatorNewline, lexer.SeparatorComma,
		lexer.LevelOpenColon, lexer.LevelCloseColon,
		lexer.LevelOpenParen, lexer.LevelCloseParen:
		return true
	}
	return false
}

func (p *Parser) skipNoise() {
	for p.idx < len(p.tokens)-1 && isNoise(p.tokens[p.idx].Kind) {
		p.idx++
	}
}

// cur returns the next meaningful token without consuming it.
func (p *Parser) cur() lexer.Token {
	p.skipNoise()
	return p.tokens[p.idx]
}

// curIndex returns the token-stream index of cur().
func (p *Parser) curIndex() int {
	p.skipNoise()
	return p.idx
}

// advance returns cur() and moves the cursor past it.
func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if p.idx < len(p.tokens)-1 {
		p.idx++
	}
	return t
}

// peekNext returns the meaningful token following cur(), without moving the
// cursor.
func (p *Parser) peekNext() lexer.Token {
	p.skipNoise()
	j := p.idx + 1
	for j < len(p.tokens)-1 && isNoise(p.tokens[j].Kind) {
		j++
	}
	return p.tokens[j]
}

func (p *Parser) atDeeperThan(base int) bool {
	t := p.cur()
	return t.Kind != lexer.EndOfInput && t.Level > base
}

func (p *Parser) atLeastAsDeep(base int) bool {
	t := p.cur()
	return t.Kind != lexer.EndOfInput && t.Level >= base
}

func (p *Parser) expect(kind lexer.Kind) (lexer.Token, error) {
	t := p.cur()
	if t.Kind != kind {
		return t, p.errUnexpected(kind.Human())
	}
	p.advance()
	return t, nil
}

func (p *Parser) errUnexpected(expected string) error {
	t := p.cur()
	msg := fmt.Sprintf("unexpected %s", t.Kind.Human())
	if expected != "" {
		msg = fmt.Sprintf("%s (expected %s)", msg, expected)
	}
	return cerr.AtToken(cerr.UnexpectedToken, msg, p.idx)
}

// parseModule parses a single `mod Upper { ... }` declaration, per the
// Module rule in spec §4.2: at most one of class/struct, and any mix of
// traits/defs/lets/using sub-blocks in any order.
func (p *Parser) parseModule() (*ast.Module, error) {
	start := p.curIndex()
	kwTok := p.advance() // 'mod'
	base := kwTok.Level

	nameTok, err := p.expect(lexer.IdentUpper)
	if err != nil {
		return nil, err
	}

	mod := &ast.Module{Name: nameTok.Text}

	for p.atDeeperThan(base) {
		switch p.cur().Kind {
		case lexer.KeywordClass:
			if mod.Struct != nil {
				return nil, cerr.AtToken(cerr.ClassAndStruct, fmt.Sprintf("module %q declares both a class and a struct", mod.Name), p.idx)
			}
			if mod.Class != nil {
				return nil, cerr.AtToken(cerr.DuplicateClass, fmt.Sprintf("module %q declares a class twice", mod.Name), p.idx)
			}
			cls, err := p.parseClassBody()
			if err != nil {
				return nil, err
			}
			mod.Class = cls
		case lexer.KeywordStruct:
			if mod.Class != nil {
				return nil, cerr.AtToken(cerr.ClassAndStruct, fmt.Sprintf("module %q declares both a class and a struct", mod.Name), p.idx)
			}
			if mod.Struct != nil {
				return nil, cerr.AtToken(cerr.DuplicateStruct, fmt.Sprintf("module %q declares a struct twice", mod.Name), p.idx)
			}
			st, err := p.parseStructBody()
			if err != nil {
				return nil, err
			}
			mod.Struct = st
		case lexer.KeywordTraits:
			ts, err := p.parseTraitGroup()
			if err != nil {
				return nil, err
			}
			mod.Traits = append(mod.Traits, ts...)
		case lexer.KeywordDefs:
			ds, err := p.parseDefGroup()
			if err != nil {
				return nil, err
			}
			mod.Defs = append(mod.Defs, ds...)
		case lexer.KeywordLets:
			ls, err := p.parseLetGroup()
			if err != nil {
				return nil, err
			}
			mod.Lets = append(mod.Lets, ls...)
		case lexer.KeywordUsing:
			us, err := p.parseUsingGroup()
			if err != nil {
				return nil, err
			}
			mod.Usings = append(mod.Usings, us...)
		default:
			return nil, p.errUnexpected("module member ('class', 'struct', 'traits', 'defs', 'lets', or 'using')")
		}
	}

	mod.Range = ast.Range{Start: start, End: p.curIndex()}
	return mod, nil
}

func (p *Parser) parseClassBody() (*ast.Class, error) {
	start := p.curIndex()
	kwTok := p.advance() // 'class'
	base := kwTok.Level

	var deps []ast.Param
	for p.atDeeperThan(base) {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		deps = append(deps, param)
	}
	return &ast.Class{Deps: deps, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
}

func (p *Parser) parseStructBody() (*ast.Struct, error) {
	start := p.curIndex()
	kwTok := p.advance() // 'struct'
	base := kwTok.Level

	var fields []ast.Field
	for p.atDeeperThan(base) {
		field, err := p.parseField()
		if err != nil {
			return nil, err
		}
		fields = append(fields, field)
	}
	return &ast.Struct{Fields: fields, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
}

func (p *Parser) parseField() (ast.Field, error) {
	start := p.curIndex()
	nameTok, err := p.expect(lexer.IdentLower)
	if err != nil {
		return ast.Field{}, err
	}
	rawTok, err := p.expect(lexer.IdentLower)
	if err != nil {
		return ast.Field{}, err
	}
	switch rawTok.Text {
	case "int", "string", "bool":
	default:
		return ast.Field{}, cerr.AtToken(cerr.UnknownRawType, fmt.Sprintf("unknown raw type %q (expected 'int', 'string', or 'bool')", rawTok.Text), p.idx-1)
	}
	return ast.Field{Name: nameTok.Text, RawType: rawTok.Text, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
}

func (p *Parser) parseParam() (ast.Param, error) {
	start := p.curIndex()
	nameTok, err := p.expect(lexer.IdentLower)
	if err != nil {
		return ast.Param{}, err
	}
	typ, err := p.parseType()
	if err != nil {
		return ast.Param{}, err
	}
	return ast.Param{Name: nameTok.Text, Type: typ, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
}

func (p *Parser) parseTraitGroup() ([]*ast.Trait, error) {
	kwTok := p.advance() // 'traits'
	base := kwTok.Level
	var traits []*ast.Trait
	for p.atDeeperThan(base) {
		tr, err := p.parseTrait()
		if err != nil {
			return nil, err
		}
		traits = append(traits, tr)
	}
	return traits, nil
}

func (p *Parser) parseTrait() (*ast.Trait, error) {
	start := p.curIndex()
	nameTok, err := p.expect(lexer.IdentUpper)
	if err != nil {
		return nil, err
	}
	base := nameTok.Level
	params, output, err := p.parseParamsAndOutput(base)
	if err != nil {
		return nil, err
	}
	return &ast.Trait{Name: nameTok.Text, Params: params, Output: output, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
}

func (p *Parser) parseDefGroup() ([]*ast.Def, error) {
	kwTok := p.advance() // 'defs'
	base := kwTok.Level
	var defs []*ast.Def
	for p.atDeeperThan(base) {
		d, err := p.parseDef()
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}

func (p *Parser) parseDef() (*ast.Def, error) {
	start := p.curIndex()
	nameTok, err := p.expect(lexer.IdentUpper)
	if err != nil {
		return nil, err
	}
	base := nameTok.Level
	body, err := p.parseExpr(base)
	if err != nil {
		return nil, err
	}
	return &ast.Def{TraitName: nameTok.Text, Body: body, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
}

func (p *Parser) parseLetGroup() ([]*ast.Let, error) {
	kwTok := p.advance() // 'lets'
	base := kwTok.Level
	var lets []*ast.Let
	for p.atDeeperThan(base) {
		l, err := p.parseLet()
		if err != nil {
			return nil, err
		}
		lets = append(lets, l)
	}
	return lets, nil
}

func (p *Parser) parseLet() (*ast.Let, error) {
	start := p.curIndex()
	nameTok, err := p.expect(lexer.IdentUpper)
	if err != nil {
		return nil, err
	}
	base := nameTok.Level
	params, output, err := p.parseParamsAndOutput(base)
	if err != nil {
		return nil, err
	}
	body, err := p.parseExpr(base)
	if err != nil {
		return nil, err
	}
	return &ast.Let{Name: nameTok.Text, Params: params, Output: output, Body: body, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
}

func (p *Parser) parseUsingGroup() ([]*ast.Using, error) {
	kwTok := p.advance() // 'using'
	base := kwTok.Level
	var usings []*ast.Using
	for p.atDeeperThan(base) {
		u, err := p.parseUsingOne()
		if err != nil {
			return nil, err
		}
		usings = append(usings, u)
	}
	return usings, nil
}

func (p *Parser) parseUsingOne() (*ast.Using, error) {
	start := p.curIndex()
	nameTok, err := p.expect(lexer.IdentUpper)
	if err != nil {
		return nil, err
	}
	u := &ast.Using{Name: nameTok.Text}
	if p.atLeastAsDeep(nameTok.Level) && p.cur().Kind == lexer.OpMul {
		p.advance()
		u.Wildcard = true
	}
	u.Range = ast.Range{Start: start, End: p.curIndex()}
	return u, nil
}

// parseParamsAndOutput parses the shared `{ Lower Type } (Type | "->" Type)`
// tail used by both traits and lets (spec §4.2's TraitGroup/LetGroup).
func (p *Parser) parseParamsAndOutput(base int) ([]ast.Param, *ast.Type, error) {
	var params []ast.Param
	for p.atDeeperThan(base) {
		t := p.cur()
		switch {
		case t.Kind == lexer.IdentLower:
			param, err := p.parseParam()
			if err != nil {
				return nil, nil, err
			}
			params = append(params, param)
		case t.Kind == lexer.OpSub && p.peekNext().Kind == lexer.OpGt:
			p.advance()
			p.advance()
			output, err := p.parseType()
			if err != nil {
				return nil, nil, err
			}
			return params, output, nil
		case isTypeStartKind(t.Kind):
			output, err := p.parseType()
			if err != nil {
				return nil, nil, err
			}
			return params, output, nil
		default:
			return nil, nil, p.errUnexpected("parameter or output type")
		}
	}
	return nil, nil, p.errUnexpected("output type")
}

func isTypeStartKind(k lexer.Kind) bool {
	switch k {
	case lexer.IdentUpper, lexer.KeywordSelf, lexer.OpQuestion, lexer.OpAt:
		return true
	}
	return false
}

// parseType parses Self | ? | Upper | @Upper, optionally combined with
// right-associative & or |, per spec §4.2's Type rule.
func (p *Parser) parseType() (*ast.Type, error) {
	start := p.curIndex()
	startTok := p.cur()
	base := startTok.Level

	left, err := p.parseTypePrimary()
	if err != nil {
		return nil, err
	}

	if p.atLeastAsDeep(base) && (p.cur().Kind == lexer.OpAnd || p.cur().Kind == lexer.OpOr) {
		opKind := p.cur().Kind
		p.advance()
		right, err := p.parseType()
		if err != nil {
			return nil, err
		}
		kind := ast.TypeAnd
		if opKind == lexer.OpOr {
			kind = ast.TypeOr
		}
		left = &ast.Type{Kind: kind, Left: left, Right: right, Range: ast.Range{Start: start, End: p.curIndex()}}
	}
	return left, nil
}

func (p *Parser) parseTypePrimary() (*ast.Type, error) {
	start := p.curIndex()
	t := p.cur()
	switch t.Kind {
	case lexer.KeywordSelf:
		p.advance()
		return &ast.Type{Kind: ast.TypeSelf, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.OpQuestion:
		p.advance()
		return &ast.Type{Kind: ast.TypeVoid, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.OpAt:
		p.advance()
		nameTok, err := p.expect(lexer.IdentUpper)
		if err != nil {
			return nil, err
		}
		return &ast.Type{Kind: ast.TypeForced, Name: nameTok.Text, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.IdentUpper:
		p.advance()
		return &ast.Type{Kind: ast.TypeName, Name: t.Text, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	default:
		return nil, p.errUnexpected("a type ('Self', '?', a module/trait name, or '@Name')")
	}
}

// parseExpr parses one primary at the given base level, then greedily
// absorbs trailing operators while the cursor remains at-or-deeper than
// base, per spec §4.2. There is no operator precedence: binary operators
// chain strictly left to right.
func (p *Parser) parseExpr(base int) (*ast.Expr, error) {
	left, err := p.parsePrimary(base)
	if err != nil {
		return nil, err
	}

	for p.atLeastAsDeep(base) {
		t := p.cur()
		start := left.Range.Start

		if op, ok := binOpFor(t.Kind); ok {
			p.advance()
			right, err := p.parsePrimary(base)
			if err != nil {
				return nil, err
			}
			left = &ast.Expr{Kind: ast.ExprBinary, BinOp: op, Left: left, Right: right, Range: ast.Range{Start: start, End: p.curIndex()}}
			continue
		}

		if t.Kind == lexer.OpDot {
			p.advance()
			nt := p.cur()
			switch {
			case nt.Kind == lexer.IdentUpper:
				nameTok := p.advance()
				args, err := p.parseCallArgs(nameTok.Level)
				if err != nil {
					return nil, err
				}
				left = &ast.Expr{Kind: ast.ExprDefCall, Subject: left, CallName: nameTok.Text, Args: args, Range: ast.Range{Start: start, End: p.curIndex()}}
			case nt.Kind == lexer.IdentLower && left.Kind == ast.ExprLocal:
				fieldTok := p.advance()
				left = &ast.Expr{Kind: ast.ExprFriendlyField, LocalName: left.LocalName, FieldName: fieldTok.Text, Range: ast.Range{Start: start, End: p.curIndex()}}
			default:
				return nil, p.errUnexpected("a trait name, or a field name on a local")
			}
			continue
		}

		break
	}
	return left, nil
}

func binOpFor(k lexer.Kind) (ast.BinOp, bool) {
	switch k {
	case lexer.OpAdd:
		return ast.BinAdd, true
	case lexer.OpSub:
		return ast.BinSub, true
	case lexer.OpMul:
		return ast.BinMul, true
	case lexer.OpDiv:
		return ast.BinDiv, true
	case lexer.OpEq:
		return ast.BinEq, true
	case lexer.OpLt:
		return ast.BinLt, true
	case lexer.OpGt:
		return ast.BinGt, true
	case lexer.OpAnd:
		return ast.BinAnd, true
	case lexer.OpOr:
		return ast.BinOr, true
	}
	return 0, false
}

func (p *Parser) parsePrimary(base int) (*ast.Expr, error) {
	start := p.curIndex()
	t := p.cur()

	switch t.Kind {
	case lexer.KeywordSelf:
		p.advance()
		return &ast.Expr{Kind: ast.ExprSelf, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.OpQuestion:
		p.advance()
		return &ast.Expr{Kind: ast.ExprVoid, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.OpDot:
		// do not consume: the infix step recognizes the dot and treats the
		// receiver as Self, per spec §4.2.
		return &ast.Expr{Kind: ast.ExprSelf, Range: ast.Range{Start: start, End: start}}, nil
	case lexer.IdentUpper:
		nameTok := p.advance()
		args, err := p.parseCallArgs(nameTok.Level)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprLetCall, CallName: nameTok.Text, Args: args, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.IdentLower:
		p.advance()
		return &ast.Expr{Kind: ast.ExprLocal, LocalName: t.Text, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.LitInteger:
		p.advance()
		return &ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitInt, LitText: t.Text, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.LitString:
		p.advance()
		return &ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitString, LitText: t.Text, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.LitBool:
		p.advance()
		return &ast.Expr{Kind: ast.ExprLiteral, LitKind: ast.LitBool, LitText: t.Text, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.OpSub:
		p.advance()
		operand, err := p.parseExpr(t.Level)
		if err != nil {
			return nil, err
		}
		return &ast.Expr{Kind: ast.ExprUnary, UnOp: ast.UnNeg, Left: operand, Range: ast.Range{Start: start, End: p.curIndex()}}, nil
	case lexer.KeywordMatch:
		return p.parseMatchExpr()
	case lexer.KeywordIf:
		return p.parseIfExpr()
	default:
		return nil, p.errUnexpected("an expression")
	}
}

func (p *Parser) parseCallArgs(base int) ([]ast.Arg, error) {
	var args []ast.Arg
	for p.atDeeperThan(base) && p.cur().Kind == lexer.IdentLower {
		nameTok := p.advance()
		val, err := p.parseExpr(nameTok.Level)
		if err != nil {
			return nil, err
		}
		args = append(args, ast.Arg{Name: nameTok.Text, Value: val})
	}
	return args, nil
}

func (p *Parser) parseMatchExpr() (*ast.Expr, error) {
	start := p.curIndex()
	kwTok := p.advance() // 'match'
	base := kwTok.Level

	boundTok, err := p.expect(lexer.IdentLower)
	if err != nil {
		return nil, err
	}
	subject, err := p.parseExpr(base)
	if err != nil {
		return nil, err
	}

	var branches []ast.MatchBranch
	for p.atDeeperThan(base) {
		typLevel := p.cur().Level
		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}
		body, err := p.parseExpr(typLevel)
		if err != nil {
			return nil, err
		}
		branches = append(branches, ast.MatchBranch{Type: typ, Body: body})
	}

	return &ast.Expr{
		Kind:          ast.ExprMatch,
		MatchBound:    boundTok.Text,
		MatchSubject:  subject,
		MatchBranches: branches,
		Range:         ast.Range{Start: start, End: p.curIndex()},
	}, nil
}

func (p *Parser) parseIfExpr() (*ast.Expr, error) {
	start := p.curIndex()
	kwTok := p.advance() // 'if'
	base := kwTok.Level

	cond, err := p.parseExpr(base)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KeywordThen); err != nil {
		return nil, err
	}
	thenExpr, err := p.parseExpr(base)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.KeywordElse); err != nil {
		return nil, err
	}
	elseExpr, err := p.parseExpr(base)
	if err != nil {
		return nil, err
	}

	return &ast.Expr{
		Kind:  ast.ExprIfElse,
		Cond:  cond,
		Then:  thenExpr,
		Else:  elseExpr,
		Range: ast.Range{Start: start, End: p.curIndex()},
	}, nil
}
