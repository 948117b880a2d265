package semantic

import (
	"github.com/dekarrin/compost/internal/ast"
	"github.com/dekarrin/compost/internal/cerr"
)

// ascope is the analysis scope threaded through analyzeExpr: the locals
// visible at this point, and (when analyzing a def body) the enclosing
// Self type and struct.
type ascope struct {
	modPath    string
	locals     map[string]*TypeRef
	selfType   *TypeRef
	selfStruct *Struct
}

func (s ascope) withLocal(name string, t *TypeRef) ascope {
	next := make(map[string]*TypeRef, len(s.locals)+1)
	for k, v := range s.locals {
		next[k] = v
	}
	next[name] = t
	s.locals = next
	return s
}

// runPass3 analyzes every let body and builds the final, ordered Defs list
// for every module's class/struct, per spec §4.3 pass 3.
func (ctx *Context) runPass3() error {
	for _, ld := range ctx.Program.Lets {
		let := ctx.GlobalLets[ld.Name]
		if err := ctx.analyzeLetBody(let); err != nil {
			return err
		}
	}

	for _, m := range ctx.Program.Modules {
		mod := ctx.Modules[m.Name]

		for _, ld := range m.Lets {
			let := mod.Lets[ld.Name]
			if err := ctx.analyzeLetBody(let); err != nil {
				return err
			}
		}

		if mod.Class == nil && mod.Struct == nil {
			continue
		}
		if err := ctx.buildDefs(mod); err != nil {
			return err
		}
	}

	return nil
}

func (ctx *Context) analyzeLetBody(let *Let) error {
	if let.Synthetic {
		return nil
	}
	s := ascope{modPath: let.ModulePath, locals: localsForParams(let.Params)}
	eval, err := ctx.analyzeExpr(s, let.astBody)
	if err != nil {
		return err
	}
	if isUniformRaw(eval.Type) && let.Output.Kind != TRaw {
		eval, err = ctx.coerceToStruct(eval, let.astBody.Range)
		if err != nil {
			return err
		}
	}
	if !Fits(eval.Type, let.Output) {
		return cerr.AtRange(cerr.TypeMismatch, "let \""+let.FullName+"\" body does not fit its declared output type", let.astBody.Range.Start, let.astBody.Range.End)
	}
	let.Body = eval
	return nil
}

// buildDefs analyzes every explicit def in mod, then appends default
// evaluations for any trait in mod's Interface left undefined. Explicit
// defs come first, in source order; defaults follow, in Interface.Order —
// this ordering is load-bearing, since dispatch scans the list in order
// (spec §9).
func (ctx *Context) buildDefs(mod *Module) error {
	selfType := mod.AsTypeRef()

	baseLocals := map[string]*TypeRef{}
	if mod.Class != nil {
		for _, p := range mod.Class.Deps {
			baseLocals[p.Name] = p.Type
		}
	}
	if mod.Struct != nil {
		for _, f := range mod.Struct.Fields {
			baseLocals[f.Name] = &TypeRef{Kind: TRaw, RawKind: f.Raw}
		}
	}

	var defs []*Def
	defined := map[string]bool{}

	for _, dd := range mod.AST.Defs {
		trait, _, ok := ctx.Traits.Resolve(mod.Path, dd.TraitName)
		if !ok {
			return cerr.AtRange(cerr.UndefinedTrait, "undefined trait \""+dd.TraitName+"\"", dd.Range.Start, dd.Range.End)
		}
		s := ascope{modPath: mod.Path, locals: copyLocals(baseLocals), selfType: selfType, selfStruct: mod.Struct}
		for _, p := range trait.Params {
			s.locals[p.Name] = SubstituteSelf(p.Type, selfType)
		}
		body, err := ctx.analyzeExpr(s, dd.Body)
		if err != nil {
			return err
		}
		wantOutput := SubstituteSelf(trait.Output, selfType)
		if isUniformRaw(body.Type) && wantOutput.Kind != TRaw {
			body, err = ctx.coerceToStruct(body, dd.Range)
			if err != nil {
				return err
			}
		}
		if !Fits(body.Type, wantOutput) {
			return cerr.AtRange(cerr.TypeMismatch, "def \""+dd.TraitName+"\" body does not fit trait's declared output type", dd.Range.Start, dd.Range.End)
		}
		defs = append(defs, &Def{Trait: trait, Body: body})
		defined[trait.FullName] = true
	}

	for _, trait := range mod.Interface.Order {
		if defined[trait.FullName] || trait.Default == nil {
			continue
		}
		defs = append(defs, &Def{Trait: trait, Body: trait.Default})
		defined[trait.FullName] = true
	}

	if mod.Class != nil {
		mod.Class.Defs = defs
	} else {
		mod.Struct.Defs = defs
	}
	return nil
}

func copyLocals(m map[string]*TypeRef) map[string]*TypeRef {
	out := make(map[string]*TypeRef, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// analyzeExpr type-checks an ast.Expr in scope s, producing the resolved
// Evaluation tree and its computed output type, per spec §4.3's expression
// analysis rules.
func (ctx *Context) analyzeExpr(s ascope, e *ast.Expr) (*Evaluation, error) {
	switch e.Kind {
	case ast.ExprSelf:
		if s.selfType == nil {
			return nil, cerr.AtRange(cerr.NoSelf, "Self is not available in this context", e.Range.Start, e.Range.End)
		}
		return &Evaluation{Kind: EvSelf, Type: s.selfType}, nil

	case ast.ExprVoid:
		return &Evaluation{Kind: EvVoid, Type: &TypeRef{Kind: TVoid}}, nil

	case ast.ExprLiteral:
		var rk RawKind
		switch e.LitKind {
		case ast.LitInt:
			rk = RawInt
		case ast.LitString:
			rk = RawString
		case ast.LitBool:
			rk = RawBool
		}
		return &Evaluation{Kind: EvLiteral, LitKind: e.LitKind, LitText: e.LitText, Type: &TypeRef{Kind: TRaw, RawKind: rk}}, nil

	case ast.ExprLocal:
		t, ok := s.locals[e.LocalName]
		if !ok {
			return nil, cerr.AtRange(cerr.NoResolution, "undefined local \""+e.LocalName+"\"", e.Range.Start, e.Range.End)
		}
		return &Evaluation{Kind: EvLocal, LocalName: e.LocalName, Type: t}, nil

	case ast.ExprFriendlyField:
		lt, ok := s.locals[e.LocalName]
		if !ok {
			return nil, cerr.AtRange(cerr.NoResolution, "undefined local \""+e.LocalName+"\"", e.Range.Start, e.Range.End)
		}
		if s.selfStruct == nil {
			return nil, cerr.AtRange(cerr.NoSelf, "friendly-field access requires an enclosing struct", e.Range.Start, e.Range.End)
		}
		// A friendly-field receiver must be shaped like the enclosing
		// struct's own Self: either the literal Self marker (an unsubstituted
		// match-branch type) or a trait parameter whose Self was substituted
		// with this module's own concrete type — recognized by the presence
		// of the module's eponymous atom.
		if lt.Kind != TSelf && !containsAtom(lt, s.selfStruct.ModulePath) {
			return nil, cerr.AtRange(cerr.NoSelf, "\""+e.LocalName+"\" is not declared as Self; friendly-field access is not allowed", e.Range.Start, e.Range.End)
		}
		field, ok := s.selfStruct.FieldNamed(e.FieldName)
		if !ok {
			return nil, cerr.AtRange(cerr.NoResolution, "no field named \""+e.FieldName+"\"", e.Range.Start, e.Range.End)
		}
		return &Evaluation{Kind: EvFriendlyField, LocalName: e.LocalName, FieldName: e.FieldName, Type: &TypeRef{Kind: TRaw, RawKind: field.Raw}}, nil

	case ast.ExprLetCall:
		let, _, ok := ctx.Lets.Resolve(s.modPath, e.CallName)
		if !ok {
			return nil, cerr.AtRange(cerr.NoResolution, "undefined let \""+e.CallName+"\"", e.Range.Start, e.Range.End)
		}
		inputs, err := ctx.bindArgs(s, let.Params, e.Args, nil, e.Range)
		if err != nil {
			return nil, err
		}
		return &Evaluation{Kind: EvLetCall, LetRef: let, Inputs: inputs, Type: let.Output}, nil

	case ast.ExprDefCall:
		subject, err := ctx.analyzeExpr(s, e.Subject)
		if err != nil {
			return nil, err
		}
		candidates := ctx.CallableTraits(subject.Type)
		trait, ok := candidates[e.CallName]
		if !ok {
			return nil, cerr.AtRange(cerr.NoTrait, "no trait named \""+e.CallName+"\" callable on this value", e.Range.Start, e.Range.End)
		}
		inputs, err := ctx.bindArgs(s, trait.Params, e.Args, subject.Type, e.Range)
		if err != nil {
			return nil, err
		}
		return &Evaluation{Kind: EvTraitCall, TraitRef: trait, Subject: subject, Inputs: inputs, Type: ctx.TraitOutputType(trait, subject.Type)}, nil

	case ast.ExprBinary:
		left, err := ctx.analyzeExpr(s, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := ctx.analyzeExpr(s, e.Right)
		if err != nil {
			return nil, err
		}
		if isUniformRaw(left.Type) && right.Type.Kind != TRaw {
			left, err = ctx.coerceToStruct(left, e.Range)
			if err != nil {
				return nil, err
			}
		} else if isUniformRaw(right.Type) && left.Type.Kind != TRaw {
			right, err = ctx.coerceToStruct(right, e.Range)
			if err != nil {
				return nil, err
			}
		}
		name := binTraitName(e.BinOp)
		candidates := ctx.CallableTraits(left.Type)
		trait, ok := candidates[name]
		if !ok {
			return nil, cerr.AtRange(cerr.NoTrait, "no trait named \""+name+"\" callable on this value", e.Range.Start, e.Range.End)
		}
		if len(trait.Params) == 0 {
			return nil, cerr.AtRange(cerr.NoTrait, "operator trait \""+name+"\" declares no rhs parameter", e.Range.Start, e.Range.End)
		}
		rhsParamType := SubstituteSelf(trait.Params[0].Type, left.Type)
		if isUniformRaw(right.Type) && rhsParamType.Kind != TRaw {
			right, err = ctx.coerceToStruct(right, e.Range)
			if err != nil {
				return nil, err
			}
		}
		if !Fits(right.Type, rhsParamType) {
			return nil, cerr.AtRange(cerr.TypeMismatch, "right-hand side of \""+name+"\" does not fit the expected type", e.Range.Start, e.Range.End)
		}
		return &Evaluation{
			Kind:     EvTraitCall,
			TraitRef: trait,
			Subject:  left,
			Inputs:   []EvalArg{{Name: trait.Params[0].Name, Value: right}},
			Type:     ctx.TraitOutputType(trait, left.Type),
		}, nil

	case ast.ExprUnary:
		operand, err := ctx.analyzeExpr(s, e.Left)
		if err != nil {
			return nil, err
		}
		name := unTraitName(e.UnOp)
		candidates := ctx.CallableTraits(operand.Type)
		trait, ok := candidates[name]
		if !ok {
			return nil, cerr.AtRange(cerr.NoTrait, "no trait named \""+name+"\" callable on this value", e.Range.Start, e.Range.End)
		}
		return &Evaluation{Kind: EvTraitCall, TraitRef: trait, Subject: operand, Type: ctx.TraitOutputType(trait, operand.Type)}, nil

	case ast.ExprMatch:
		subject, err := ctx.analyzeExpr(s, e.MatchSubject)
		if err != nil {
			return nil, err
		}
		branches := make([]EvalBranch, len(e.MatchBranches))
		branchTypes := make([]*TypeRef, len(e.MatchBranches))
		for i, b := range e.MatchBranches {
			bt, err := ctx.resolveType(s.modPath, b.Type)
			if err != nil {
				return nil, err
			}
			// bt feeds two different uses: EvalBranch.Type stays the literal,
			// unsubstituted resolution (dispatch re-substitutes Self against
			// the live runtime self, see matchesDynamicType), but the bound
			// name's static type inside the branch body needs Self already
			// resolved to this module's own type — the same substitution
			// buildDefs applies to a trait param typed `Self` — so that
			// calling a trait on the bound name inside the branch body can
			// find it via CallableTraits.
			localType := bt
			if s.selfType != nil {
				localType = SubstituteSelf(bt, s.selfType)
			}
			branchScope := s.withLocal(e.MatchBound, localType)
			body, err := ctx.analyzeExpr(branchScope, b.Body)
			if err != nil {
				return nil, err
			}
			branches[i] = EvalBranch{Type: bt, Body: body}
			branchTypes[i] = body.Type
		}
		var resultType *TypeRef
		if len(branchTypes) > 0 {
			resultType = Or(branchTypes...)
		} else {
			resultType = &TypeRef{Kind: TVoid}
		}
		return &Evaluation{
			Kind:          EvMatch,
			MatchBound:    e.MatchBound,
			MatchSubject:  subject,
			MatchBranches: branches,
			Type:          resultType,
		}, nil

	case ast.ExprIfElse:
		cond, err := ctx.analyzeExpr(s, e.Cond)
		if err != nil {
			return nil, err
		}
		if !isBoolish(ctx, cond.Type) {
			return nil, cerr.AtRange(cerr.TypeMismatch, "if condition must be Bool or coercible to Bool", e.Cond.Range.Start, e.Cond.Range.End)
		}
		thenEval, err := ctx.analyzeExpr(s, e.Then)
		if err != nil {
			return nil, err
		}
		elseEval, err := ctx.analyzeExpr(s, e.Else)
		if err != nil {
			return nil, err
		}
		return &Evaluation{
			Kind: EvIfElse,
			Cond: cond, Then: thenEval, Else: elseEval,
			Type: Or(thenEval.Type, elseEval.Type),
		}, nil
	}

	return nil, cerr.AtRange(cerr.NoResolution, "unrecognized expression form", e.Range.Start, e.Range.End)
}

func isBoolish(ctx *Context, t *TypeRef) bool {
	if t.Kind == TRaw && t.RawKind == RawBool {
		return true
	}
	if boolTrait, ok := ctx.Traits.Get("Bool"); ok {
		return Fits(t, &TypeRef{Kind: TAtom, Atom: boolTrait})
	}
	return false
}

// bindArgs matches named call arguments against params in the callee's own
// declared order (spec §5: evaluation order is the callee's declared input
// order, not necessarily the caller's written order), applying Self
// substitution (if selfSubst is non-nil) and Raw→struct coercion as needed.
func (ctx *Context) bindArgs(s ascope, params []Param, args []ast.Arg, selfSubst *TypeRef, callRange ast.Range) ([]EvalArg, error) {
	matched := make(map[string]bool, len(args))
	out := make([]EvalArg, 0, len(params))

	for _, param := range params {
		var found *ast.Arg
		for i := range args {
			if args[i].Name == param.Name {
				found = &args[i]
				break
			}
		}
		if found == nil {
			return nil, cerr.AtRange(cerr.MissingInput, "missing input \""+param.Name+"\"", callRange.Start, callRange.End)
		}
		matched[param.Name] = true

		argEval, err := ctx.analyzeExpr(s, found.Value)
		if err != nil {
			return nil, err
		}

		wantType := param.Type
		if selfSubst != nil {
			wantType = SubstituteSelf(param.Type, selfSubst)
		}
		if isUniformRaw(argEval.Type) && wantType.Kind != TRaw {
			argEval, err = ctx.coerceToStruct(argEval, found.Value.Range)
			if err != nil {
				return nil, err
			}
		}
		if !Fits(argEval.Type, wantType) {
			return nil, cerr.AtRange(cerr.TypeMismatch, "input \""+param.Name+"\" does not fit its declared type", found.Value.Range.Start, found.Value.Range.End)
		}
		out = append(out, EvalArg{Name: param.Name, Value: argEval})
	}

	for _, a := range args {
		if !matched[a.Name] {
			return nil, cerr.AtRange(cerr.NoResolution, "unexpected argument \""+a.Name+"\"", callRange.Start, callRange.End)
		}
	}
	return out, nil
}

// coerceToStruct wraps a Raw-typed evaluation in a call to the stdlib
// constructor of the matching raw kind (Int/String/Bool), per spec §4.3
// rule 9 and §9's "implicit coercion" note. eval's type need not be a bare
// TRaw leaf — an if/match whose every branch is the same raw kind (a TOr of
// Raw leaves) coerces just as well, since the branches agree on what the
// constructor should receive.
func (ctx *Context) coerceToStruct(eval *Evaluation, r ast.Range) (*Evaluation, error) {
	rk, ok := uniformRawKind(eval.Type)
	if !ok {
		return nil, cerr.AtRange(cerr.TypeMismatch, "cannot coerce a non-uniform raw type", r.Start, r.End)
	}
	modName := RawModuleName(rk)
	let, _, ok := ctx.Lets.Resolve("", modName)
	if !ok || len(let.Params) == 0 {
		return nil, cerr.AtRange(cerr.NoResolution, "missing stdlib constructor for "+modName, r.Start, r.End)
	}
	return &Evaluation{
		Kind:   EvLetCall,
		LetRef: let,
		Inputs: []EvalArg{{Name: let.Params[0].Name, Value: eval}},
		Type:   let.Output,
	}, nil
}

// uniformRawKind reports the single RawKind that every leaf of t agrees on,
// looking through And/Or combinations (e.g. an if/else whose branches are
// both Raw(String) coerces as a unit, even though its combined Type is
// Or(Raw(String), Raw(String)) rather than a bare TRaw).
func uniformRawKind(t *TypeRef) (RawKind, bool) {
	switch t.Kind {
	case TRaw:
		return t.RawKind, true
	case TAnd, TOr:
		l, ok := uniformRawKind(t.Left)
		if !ok {
			return 0, false
		}
		r, ok := uniformRawKind(t.Right)
		if !ok || r != l {
			return 0, false
		}
		return l, true
	}
	return 0, false
}

// isUniformRaw reports whether t would be accepted by coerceToStruct.
func isUniformRaw(t *TypeRef) bool {
	_, ok := uniformRawKind(t)
	return ok
}

// rawConvResult names, for each of the built-in Op traits with a fixed,
// non-Self output (Eq/Lt/Gt/And/Or/String), the raw kind it produces when
// dispatched on a raw subject (per spec §4.4's raw operations table) and the
// real stdlib module that output conceptually belongs to.
//
// These traits are declared inside mod Op itself, with their own output
// annotation naming that same real module ("-> Bool", "-> String"). Name
// resolution is scope-qualified-first (see DESIGN.md): resolving "String"
// from within mod Op's own scope finds Op's own trait named String — the
// declaration these traits are themselves written as — before it would ever
// fall back to the real top-level String module. Op\Eq..Op\Or don't hit
// this (there's no trait named Bool inside Op to self-match), but Op\String
// does, and its self-referential output atom can't expose String's own
// interface (Add, Eq, ...) to CallableTraits the way the real module's
// eponymous atom can. TraitOutputType reports the real module's own type
// here instead, in both the raw- and struct-dispatch cases, so results
// chain and coerce the same way a value actually built via the real
// constructor would.
var rawConvResult = map[string]struct {
	RawKind RawKind
	Module  string
}{
	opTraitPath("Eq"):     {RawBool, "Bool"},
	opTraitPath("Lt"):     {RawBool, "Bool"},
	opTraitPath("Gt"):     {RawBool, "Bool"},
	opTraitPath("And"):    {RawBool, "Bool"},
	opTraitPath("Or"):     {RawBool, "Bool"},
	opTraitPath("String"): {RawString, "String"},
}

// TraitOutputType computes a TraitCall's static result type: ordinarily
// just SubstituteSelf(trait.Output, subjectType), overridden for the
// built-in Op conversion/comparison traits per rawConvResult's doc comment.
func (ctx *Context) TraitOutputType(trait *Trait, subjectType *TypeRef) *TypeRef {
	if conv, ok := rawConvResult[trait.FullName]; ok {
		if subjectType.Kind == TRaw {
			return &TypeRef{Kind: TRaw, RawKind: conv.RawKind}
		}
		if real, _, ok := ctx.Traits.Resolve("", conv.Module); ok {
			return &TypeRef{Kind: TAtom, Atom: real}
		}
	}
	return SubstituteSelf(trait.Output, subjectType)
}

func RawModuleName(rk RawKind) string {
	switch rk {
	case RawInt:
		return "Int"
	case RawString:
		return "String"
	case RawBool:
		return "Bool"
	}
	return ""
}

func binTraitName(op ast.BinOp) string {
	switch op {
	case ast.BinAdd:
		return "Add"
	case ast.BinSub:
		return "Sub"
	case ast.BinMul:
		return "Mul"
	case ast.BinDiv:
		return "Div"
	case ast.BinEq:
		return "Eq"
	case ast.BinLt:
		return "Lt"
	case ast.BinGt:
		return "Gt"
	case ast.BinAnd:
		return "And"
	case ast.BinOr:
		return "Or"
	}
	return ""
}

func unTraitName(op ast.UnOp) string {
	switch op {
	case ast.UnNeg:
		return "Neg"
	}
	return ""
}
