package semantic

import (
	"github.com/google/uuid"

	"github.com/dekarrin/compost/internal/ast"
	"github.com/dekarrin/compost/internal/cerr"
	"github.com/dekarrin/compost/internal/symbol"
)

// runPass1 declares every module's trait/interface skeletons and its
// eponymous dummy trait, then propagates `using` to a fixed point, per spec
// §4.3 pass 1.
func (ctx *Context) runPass1() error {
	for _, m := range ctx.Program.Modules {
		if err := ctx.declareModuleSkeleton(m); err != nil {
			return err
		}
	}

	for _, ld := range ctx.Program.Lets {
		let := &Let{FullName: ld.Name, Name: ld.Name}
		if _, exists := ctx.GlobalLets[ld.Name]; exists {
			return cerr.AtRange(cerr.DoubleDeclaration, "let \""+ld.Name+"\" is already declared", ld.Range.Start, ld.Range.End)
		}
		ctx.GlobalLets[ld.Name] = let
		if err := ctx.Lets.Declare(ld.Name, let); err != nil {
			return err
		}
	}

	// Step 2: populate each interface with its own declared traits (including
	// its eponymous trait). Traits named only by the module's `defs` are not
	// added here; a trait declared by another module enters this interface
	// only through `using` and the fixed-point step below.
	for _, mod := range ctx.Modules {
		iface := mod.Interface
		for _, t := range mod.Traits {
			iface.Add(t)
		}
	}

	// Resolve `using` targets now that every module has a skeleton.
	for _, m := range ctx.Program.Modules {
		mod := ctx.Modules[m.Name]
		for _, u := range m.Usings {
			target, ok := ctx.Modules[u.Name]
			if !ok {
				return cerr.AtRange(cerr.NoModuleOrTrait, "unknown module \""+u.Name+"\" in using", u.Range.Start, u.Range.End)
			}
			mod.Usings = append(mod.Usings, Using{Name: u.Name, Wildcard: u.Wildcard, Interface: target.Interface})
		}
	}

	// Step 3: fixed-point propagation. For every module M, for every trait T
	// reachable so far in M's interface, merge T's owning interface into M's
	// interface (skipping traits already present). Repeat until stable,
	// bounded by the total trait count (testable property §8.5).
	totalTraits := 0
	for _, mod := range ctx.Modules {
		totalTraits += len(mod.Interface.Order)
	}
	for iter := 0; iter <= totalTraits+len(ctx.Modules)+1; iter++ {
		changed := false
		for _, mod := range ctx.Modules {
			// Traits reachable via `using`.
			for _, u := range mod.Usings {
				for _, t := range u.Interface.Order {
					if mod.Interface.Add(t) {
						changed = true
					}
				}
			}
			// Traits reachable transitively via already-merged traits' own
			// owning interfaces (covers `using`-of-`using` chains).
			for _, t := range mod.Interface.Order {
				if t.Owner == nil || t.Owner == mod.Interface {
					continue
				}
				for _, ot := range t.Owner.Order {
					if mod.Interface.Add(ot) {
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
	}

	return nil
}

func (ctx *Context) declareModuleSkeleton(m *ast.Module) error {
	if _, exists := ctx.Modules[m.Name]; exists {
		return cerr.AtRange(cerr.DoubleDeclaration, "module \""+m.Name+"\" is already declared", m.Range.Start, m.Range.End)
	}

	mod := &Module{
		Name:      m.Name,
		Path:      m.Name,
		AST:       m,
		Traits:    make(map[string]*Trait),
		Interface: NewInterface(m.Name),
		Lets:      make(map[string]*Let),
	}
	ctx.Modules[m.Name] = mod

	// Eponymous dummy trait: the atom representing "an instance of this
	// module" everywhere a bare module name is used as a type.
	eponymous := &Trait{
		FullName:   m.Name,
		Name:       m.Name,
		ModulePath: m.Name,
		Owner:      mod.Interface,
		Eponymous:  true,
	}
	mod.Eponymous = eponymous
	mod.Traits[m.Name] = eponymous
	if err := ctx.Traits.Declare(m.Name, eponymous); err != nil {
		return err
	}

	for _, td := range m.Traits {
		full := symbol.Join(m.Name, td.Name)
		tr := &Trait{FullName: full, Name: td.Name, ModulePath: m.Name, Owner: mod.Interface}
		if _, exists := mod.Traits[td.Name]; exists {
			return cerr.AtRange(cerr.DoubleDeclaration, "trait \""+full+"\" is already declared", td.Range.Start, td.Range.End)
		}
		mod.Traits[td.Name] = tr
		if err := ctx.Traits.Declare(full, tr); err != nil {
			return err
		}
	}

	if m.Class != nil {
		mod.Class = &Class{ID: uuid.New(), ModulePath: m.Name, astDeps: m.Class.Deps}
	}
	if m.Struct != nil {
		fields := make([]Field, len(m.Struct.Fields))
		for i, f := range m.Struct.Fields {
			rk, ok := rawKindFor(f.RawType)
			if !ok {
				return cerr.AtRange(cerr.UnknownRawType, "unknown raw type \""+f.RawType+"\"", f.Range.Start, f.Range.End)
			}
			fields[i] = Field{Name: f.Name, Raw: rk}
		}
		mod.Struct = &Struct{ID: uuid.New(), ModulePath: m.Name, Fields: fields}
	}

	for _, ld := range m.Lets {
		full := symbol.Join(m.Name, ld.Name)
		let := &Let{FullName: full, Name: ld.Name, ModulePath: m.Name, astBody: nil}
		if _, exists := mod.Lets[ld.Name]; exists {
			return cerr.AtRange(cerr.DoubleDeclaration, "let \""+full+"\" is already declared", ld.Range.Start, ld.Range.End)
		}
		mod.Lets[ld.Name] = let
		if err := ctx.Lets.Declare(full, let); err != nil {
			return err
		}
	}

	return nil
}
