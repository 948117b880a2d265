package semantic

// Fits implements spec §4.3's type-fit rule: does a value of type `given`
// satisfy a slot declared as type `expected`?
//
//   - Void expected always fits.
//   - Self expected fits only another Self (callers are expected to have
//     already substituted concrete Self types before calling Fits; a bare
//     TSelf on both sides only arises when checking a trait's own signature
//     against itself, which must trivially hold).
//   - Trait/Raw expected: `given` must contain that exact atom along any `&`
//     chain; for an Or-given, every branch must contain the atom (tracing
//     spec §8's worked vectors shows Or-given atom containment must be
//     conjunctive — both branches need the atom — even though Or-expected
//     containment is disjunctive; see DESIGN.md).
//   - And(a,b) expected: given must fit both a and b.
//   - Or(a,b) expected: given must fit a or b.
func Fits(given, expected *TypeRef) bool {
	if expected == nil || given == nil {
		return false
	}
	switch expected.Kind {
	case TVoid:
		return true
	case TAnd:
		return Fits(given, expected.Left) && Fits(given, expected.Right)
	case TOr:
		return Fits(given, expected.Left) || Fits(given, expected.Right)
	case TSelf:
		return containsSelf(given)
	case TAtom:
		return containsAtom(given, expected.Atom.FullName)
	case TRaw:
		return containsRaw(given, expected.RawKind)
	}
	return false
}

// containsAtom reports whether fullName appears as a TAtom anywhere given
// necessarily implies — i.e. along every branch of an Or, and along either
// branch of an And.
func containsAtom(given *TypeRef, fullName string) bool {
	switch given.Kind {
	case TAtom:
		return given.Atom.FullName == fullName
	case TAnd:
		return containsAtom(given.Left, fullName) || containsAtom(given.Right, fullName)
	case TOr:
		return containsAtom(given.Left, fullName) && containsAtom(given.Right, fullName)
	default:
		return false
	}
}

func containsSelf(given *TypeRef) bool {
	switch given.Kind {
	case TSelf:
		return true
	case TAnd:
		return containsSelf(given.Left) || containsSelf(given.Right)
	case TOr:
		return containsSelf(given.Left) && containsSelf(given.Right)
	default:
		return false
	}
}

func containsRaw(given *TypeRef, rk RawKind) bool {
	switch given.Kind {
	case TRaw:
		return given.RawKind == rk
	case TAnd:
		return containsRaw(given.Left, rk) || containsRaw(given.Right, rk)
	case TOr:
		return containsRaw(given.Left, rk) && containsRaw(given.Right, rk)
	default:
		return false
	}
}

// Or builds a right-leaning Or chain out of refs, in order.
func Or(refs ...*TypeRef) *TypeRef {
	if len(refs) == 0 {
		panic("semantic.Or: no members")
	}
	if len(refs) == 1 {
		return refs[0]
	}
	return &TypeRef{Kind: TOr, Left: refs[0], Right: Or(refs[1:]...)}
}

// SubstituteSelf returns a copy of t with every TSelf leaf replaced by with.
func SubstituteSelf(t *TypeRef, with *TypeRef) *TypeRef {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case TSelf:
		return with
	case TAnd:
		return &TypeRef{Kind: TAnd, Left: SubstituteSelf(t.Left, with), Right: SubstituteSelf(t.Right, with)}
	case TOr:
		return &TypeRef{Kind: TOr, Left: SubstituteSelf(t.Left, with), Right: SubstituteSelf(t.Right, with)}
	default:
		return t
	}
}

// builtinRawTraits is the fixed set of trait names callable on each raw kind,
// per spec §4.3's "Callable-traits of a type" rule.
// RawString additionally carries Lt/Gt: §4.3's prose list of the fixed
// built-in set omits them, but §4.4's raw-operations table defines their
// semantics ("comparison by length") explicitly, so the operations table
// wins (see DESIGN.md).
var builtinRawTraits = map[RawKind][]string{
	RawInt:    {"Add", "Sub", "Mul", "Div", "Neg", "Eq", "Lt", "Gt", "String"},
	RawString: {"Add", "Eq", "Lt", "Gt", "String"},
	RawBool:   {"Eq", "And", "Or", "String"},
}

// CallableTraits returns the traits callable on a value of type t, per spec
// §4.3's disambiguation scope for `a.Name(args)`: the union of named traits
// in Trait atoms within t's &/| branches, or — for Raw — the fixed built-in
// set resolved against the stdlib `Op` module.
func (ctx *Context) CallableTraits(t *TypeRef) map[string]*Trait {
	out := make(map[string]*Trait)
	if t == nil {
		return out
	}
	if t.Kind == TRaw {
		for _, name := range builtinRawTraits[t.RawKind] {
			if tr, ok := ctx.Traits.Get(opTraitPath(name)); ok {
				out[name] = tr
			}
		}
		return out
	}
	collectAtoms(t, out)
	return out
}

func collectAtoms(t *TypeRef, out map[string]*Trait) {
	switch t.Kind {
	case TAtom:
		// A bare reference to a module's own eponymous atom (an ordinary `->
		// Int`/`p Point`-style annotation, never expanded to an And-chain the
		// way a constructor call's own result type is) still means "an
		// instance of that module" — so it carries the whole of that
		// module's own interface, not just its own name.
		if t.Atom.Eponymous && t.Atom.Owner != nil {
			for _, tr := range t.Atom.Owner.Order {
				out[tr.Name] = tr
			}
			return
		}
		out[t.Atom.Name] = t.Atom
	case TAnd, TOr:
		collectAtoms(t.Left, out)
		collectAtoms(t.Right, out)
	}
}

// opTraitPath is the fully-qualified path of a built-in operator trait in
// the stdlib prelude's `Op` module.
func opTraitPath(name string) string {
	return "Op\\" + name
}
