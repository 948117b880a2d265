package semantic

import (
	"github.com/dekarrin/compost/internal/ast"
	"github.com/dekarrin/compost/internal/cerr"
)

// runPass2 resolves every trait's parameter/output types, locates each
// trait's context-free default definition (if any), resolves class
// dependency and let signatures, and declares the synthesized eponymous
// constructor let for every module with a class or struct, per spec §4.3
// pass 2.
func (ctx *Context) runPass2() error {
	for _, m := range ctx.Program.Modules {
		mod := ctx.Modules[m.Name]

		for _, td := range m.Traits {
			tr := mod.Traits[td.Name]
			params, err := ctx.resolveParams(mod.Path, td.Params)
			if err != nil {
				return err
			}
			output, err := ctx.resolveType(mod.Path, td.Output)
			if err != nil {
				return err
			}
			tr.Params = params
			tr.Output = output
		}

		for _, dd := range m.Defs {
			if referencesSelfContext(dd.Body) {
				continue
			}
			trait, _, ok := ctx.Traits.Resolve(mod.Path, dd.TraitName)
			if !ok || trait.Default != nil || trait.ModulePath != mod.Path {
				continue
			}
			s := ascope{modPath: mod.Path, locals: localsForParams(trait.Params)}
			eval, err := ctx.analyzeExpr(s, dd.Body)
			if err != nil {
				continue // not context-free; pass 3 will bind it as an explicit def instead
			}
			trait.Default = eval
		}

		if mod.Class != nil {
			params, err := ctx.resolveParams(mod.Path, mod.Class.astDeps)
			if err != nil {
				return err
			}
			mod.Class.Deps = params
			mod.Class.astDeps = nil
		}

		for _, ld := range m.Lets {
			let := mod.Lets[ld.Name]
			params, err := ctx.resolveParams(mod.Path, ld.Params)
			if err != nil {
				return err
			}
			output, err := ctx.resolveType(mod.Path, ld.Output)
			if err != nil {
				return err
			}
			let.Params = params
			let.Output = output
			let.astBody = ld.Body
		}
	}

	for _, ld := range ctx.Program.Lets {
		let := ctx.GlobalLets[ld.Name]
		params, err := ctx.resolveParams("", ld.Params)
		if err != nil {
			return err
		}
		output, err := ctx.resolveType("", ld.Output)
		if err != nil {
			return err
		}
		let.Params = params
		let.Output = output
		let.astBody = ld.Body
	}

	// Eponymous traits get their final output only once every module's own
	// interface has finished propagating (pass 1 step 3).
	for _, mod := range ctx.Modules {
		mod.Eponymous.Output = mod.Interface.AsTypeRef()
	}

	for _, m := range ctx.Program.Modules {
		mod := ctx.Modules[m.Name]
		if mod.Class == nil && mod.Struct == nil {
			continue
		}

		var params []Param
		if mod.Class != nil {
			params = mod.Class.Deps
		} else {
			params = make([]Param, len(mod.Struct.Fields))
			for i, f := range mod.Struct.Fields {
				params[i] = Param{Name: f.Name, Type: &TypeRef{Kind: TRaw, RawKind: f.Raw}}
			}
		}
		output := mod.AsTypeRef()

		ctor := &Let{FullName: mod.Path, Name: mod.Name, ModulePath: mod.Path, Params: params, Output: output, Synthetic: true}
		if mod.Class != nil {
			ctor.Body = &Evaluation{Kind: EvClassConstruct, ClassRef: mod.Class, Type: output}
		} else {
			ctor.Body = &Evaluation{Kind: EvStructConstruct, StructRef: mod.Struct, Type: output}
		}
		if err := ctx.Lets.Declare(mod.Path, ctor); err != nil {
			return err
		}
		mod.Constructor = ctor
	}

	return nil
}

func (ctx *Context) resolveParams(scope string, params []ast.Param) ([]Param, error) {
	out := make([]Param, len(params))
	for i, p := range params {
		t, err := ctx.resolveType(scope, p.Type)
		if err != nil {
			return nil, err
		}
		out[i] = Param{Name: p.Name, Type: t}
	}
	return out, nil
}

// resolveType turns a parsed ast.Type into a resolved TypeRef, resolving any
// named atom against the trait table.
func (ctx *Context) resolveType(scope string, t *ast.Type) (*TypeRef, error) {
	if t == nil {
		return nil, cerr.New(cerr.NoResolution, "missing type")
	}
	switch t.Kind {
	case ast.TypeSelf:
		return &TypeRef{Kind: TSelf}, nil
	case ast.TypeVoid:
		return &TypeRef{Kind: TVoid}, nil
	case ast.TypeName:
		trait, _, ok := ctx.Traits.Resolve(scope, t.Name)
		if !ok {
			return nil, cerr.AtRange(cerr.NoModuleOrTrait, "no module or trait named \""+t.Name+"\"", t.Range.Start, t.Range.End)
		}
		return &TypeRef{Kind: TAtom, Atom: trait}, nil
	case ast.TypeForced:
		trait, _, ok := ctx.Traits.Resolve(scope, t.Name)
		if !ok {
			return nil, cerr.AtRange(cerr.NoTrait, "no trait named \""+t.Name+"\"", t.Range.Start, t.Range.End)
		}
		return &TypeRef{Kind: TAtom, Atom: trait}, nil
	case ast.TypeAnd:
		l, err := ctx.resolveType(scope, t.Left)
		if err != nil {
			return nil, err
		}
		r, err := ctx.resolveType(scope, t.Right)
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: TAnd, Left: l, Right: r}, nil
	case ast.TypeOr:
		l, err := ctx.resolveType(scope, t.Left)
		if err != nil {
			return nil, err
		}
		r, err := ctx.resolveType(scope, t.Right)
		if err != nil {
			return nil, err
		}
		return &TypeRef{Kind: TOr, Left: l, Right: r}, nil
	}
	return nil, cerr.AtRange(cerr.NoResolution, "unrecognized type form", t.Range.Start, t.Range.End)
}

func localsForParams(params []Param) map[string]*TypeRef {
	locals := make(map[string]*TypeRef, len(params))
	for _, p := range params {
		locals[p.Name] = p.Type
	}
	return locals
}

// referencesSelfContext reports whether e contains a Self expression or a
// friendly-field access anywhere in its subtree — either of which requires a
// concrete enclosing struct/class, disqualifying a def from being a
// context-free default evaluation (spec §4.3 pass 2 step 4).
func referencesSelfContext(e *ast.Expr) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case ast.ExprSelf, ast.ExprFriendlyField:
		return true
	}
	if referencesSelfContext(e.Left) || referencesSelfContext(e.Right) {
		return true
	}
	if referencesSelfContext(e.Subject) {
		return true
	}
	for _, a := range e.Args {
		if referencesSelfContext(a.Value) {
			return true
		}
	}
	if referencesSelfContext(e.MatchSubject) {
		return true
	}
	for _, b := range e.MatchBranches {
		if referencesSelfContext(b.Body) {
			return true
		}
	}
	if referencesSelfContext(e.Cond) || referencesSelfContext(e.Then) || referencesSelfContext(e.Else) {
		return true
	}
	return false
}
