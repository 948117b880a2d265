// Package semantic implements the three-pass analysis of spec §4.3: pass 1
// declares trait and interface skeletons and propagates them through `using`
// to a fixed point; pass 2 resolves trait/let signatures and locates each
// module's default defs; pass 3 type-checks every let/def body and builds the
// final Evaluation graph consumed by the evaluator. The graph is genuinely
// cyclic (a trait's output type can name an interface built from traits that
// in turn reference the trait itself), so nodes are linked with plain Go
// pointers mutated in place — the idiomatic substitute for Rc<RefCell<>>.
package semantic

import (
	"github.com/google/uuid"

	"github.com/dekarrin/compost/internal/ast"
)

// RawKind enumerates the three primitive raw kinds.
type RawKind int

const (
	RawInt RawKind = iota
	RawString
	RawBool
)

func (k RawKind) String() string {
	switch k {
	case RawInt:
		return "int"
	case RawString:
		return "string"
	case RawBool:
		return "bool"
	default:
		return "raw(?)"
	}
}

// rawKindFor maps a parsed struct-field raw type keyword to a RawKind.
func rawKindFor(s string) (RawKind, bool) {
	switch s {
	case "int":
		return RawInt, true
	case "string":
		return RawString, true
	case "bool":
		return RawBool, true
	}
	return 0, false
}

// TypeKind tags the resolved form of a structural type reference.
type TypeKind int

const (
	TSelf TypeKind = iota
	TVoid
	TAtom
	TRaw
	TAnd
	TOr
)

// TypeRef is a resolved structural type: Self, Void, a single named trait, a
// raw kind, or an And/Or combination of two TypeRefs. Unlike ast.Type (which
// only carries names), a TAtom TypeRef points directly at the *Trait it
// names, so type-fit checking (see typefit.go) never has to re-resolve a
// name.
type TypeRef struct {
	Kind    TypeKind
	Atom    *Trait
	RawKind RawKind
	Left    *TypeRef
	Right   *TypeRef
}

// And builds a right-leaning And chain out of refs, in order. Panics if refs
// is empty — callers always have at least one member (a module's own
// eponymous trait, at minimum).
func And(refs ...*TypeRef) *TypeRef {
	if len(refs) == 0 {
		panic("semantic.And: no members")
	}
	if len(refs) == 1 {
		return refs[0]
	}
	return &TypeRef{Kind: TAnd, Left: refs[0], Right: And(refs[1:]...)}
}

// Param is a resolved `name Type` pair, shared by trait params, let params,
// and class dependencies.
type Param struct {
	Name string
	Type *TypeRef
}

// Trait is a single callable signature declared (or propagated) within a
// module: a name, ordered parameters, an output type, and an optional
// default evaluation contributed by the owning module's own `defs`.
type Trait struct {
	// FullName is the backslash-qualified path the trait is filed under in
	// the trait symbol table, e.g. `Stack\Push`.
	FullName   string
	Name       string
	ModulePath string
	Params     []Param
	Output     *TypeRef

	// Owner is the Interface this trait was declared into — its back
	// reference, per spec §3.
	Owner *Interface

	// Default is the trait's module-wide default definition: a def body
	// that type-checks without referring to a specific struct/class (no
	// friendly-field or Self-field access), usable by any module that pulls
	// this trait in via `using` without writing its own def. Nil if none.
	Default *Evaluation

	// Eponymous is true for the dummy trait automatically declared for
	// every module (named after the module itself), used as the atom
	// representing "an instance of this module" in type expressions, per
	// spec §4.3 pass 1 step 1.
	Eponymous bool
}

// Interface is the fixed-point set of traits reachable from a module,
// combining its own declared traits with every trait propagated in through
// `using`. It is mutated in place during pass 1's fixed-point
// iteration, so two modules that each `using` the other observe later
// additions without any explicit re-linking.
type Interface struct {
	ModulePath string

	// Order is every trait reachable from this interface, deduplicated by
	// FullName, in first-seen order — dispatch order depends on this, per
	// spec §9 ("first explicit defs, then defaults").
	Order []*Trait

	// byName indexes Order by simple (unqualified) trait name, for
	// short-name resolution against "the traits callable on a's type".
	byName map[string]*Trait
}

func NewInterface(modulePath string) *Interface {
	return &Interface{ModulePath: modulePath, byName: make(map[string]*Trait)}
}

// Has reports whether t (by FullName) is already a member.
func (i *Interface) Has(t *Trait) bool {
	_, ok := i.byName[t.Name]
	if !ok {
		return false
	}
	for _, existing := range i.Order {
		if existing.FullName == t.FullName {
			return true
		}
	}
	return false
}

// Add appends t if no trait with the same FullName is already present.
// Returns true if it was newly added.
func (i *Interface) Add(t *Trait) bool {
	for _, existing := range i.Order {
		if existing.FullName == t.FullName {
			return false
		}
	}
	i.Order = append(i.Order, t)
	i.byName[t.Name] = t
	return true
}

// ByName resolves a simple trait name against this interface's members.
func (i *Interface) ByName(name string) (*Trait, bool) {
	t, ok := i.byName[name]
	return t, ok
}

// AsTypeRef builds the And-chain of every trait this interface carries, the
// structural type a value of the owning module satisfies.
func (i *Interface) AsTypeRef() *TypeRef {
	refs := make([]*TypeRef, len(i.Order))
	for n, t := range i.Order {
		refs[n] = &TypeRef{Kind: TAtom, Atom: t}
	}
	return And(refs...)
}

// Field is a resolved struct field: a name and a raw kind.
type Field struct {
	Name string
	Raw  RawKind
}

// Def is a trait implementation bound to a specific class or struct (or
// synthesized automatically from a trait's Default).
type Def struct {
	Trait *Trait
	Body  *Evaluation
}

// Class is a dependency-bundle type: instances are built from other values,
// and behavior is entirely defined by its Defs.
type Class struct {
	// ID is assigned once, when the declaration is built during pass 1, and
	// shared by every runtime instance of this class. Dynamic-type checks do
	// not read it: match dispatch compares a value's module interface with
	// the branch type through Fits (see eval's matchesDynamicType).
	ID         uuid.UUID
	ModulePath string
	Deps       []Param

	// Defs is ordered: explicit defs first (in source order), then
	// defaults synthesized from the module's Interface, per spec §9.
	Defs []*Def

	// astDeps is staged in pass 1 and resolved into Deps during pass 2.
	astDeps []ast.Param
}

// DefByTrait finds the (ordered, first-match) def implementing t, if any.
func (c *Class) DefByTrait(t *Trait) (*Def, bool) {
	for _, d := range c.Defs {
		if d.Trait.FullName == t.FullName {
			return d, true
		}
	}
	return nil, false
}

// Struct is a raw-field record type: instances carry only raw values, with
// behavior supplied entirely by Defs (there are no dependencies to
// construct from).
type Struct struct {
	ID         uuid.UUID
	ModulePath string
	Fields     []Field
	Defs       []*Def
}

// DefByTrait finds the (ordered, first-match) def implementing t, if any.
func (s *Struct) DefByTrait(t *Trait) (*Def, bool) {
	for _, d := range s.Defs {
		if d.Trait.FullName == t.FullName {
			return d, true
		}
	}
	return nil, false
}

// FieldNamed looks up a field by name.
func (s *Struct) FieldNamed(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Let is a named value (zero parameters) or function (one or more
// parameters).
type Let struct {
	FullName   string
	Name       string
	ModulePath string
	Params     []Param
	Output     *TypeRef
	Body       *Evaluation

	// Synthetic is true for the compiler-generated eponymous constructor
	// let of a module with a class/struct, and for the stdlib Int/String/
	// Bool constructors — their Body is installed directly rather than by
	// analyzing an ast.Expr.
	Synthetic bool

	// astBody is staged in pass 1/2 and resolved into Body during pass 3.
	astBody *ast.Expr
}

// Using records one `using Name[*]` import resolved to the interface it
// pulls traits from.
type Using struct {
	Name      string
	Wildcard  bool
	Interface *Interface
}

// Module is the fully-resolved form of an ast.Module: its own trait
// skeletons, interface, class-or-struct, defs, lets, and usings.
type Module struct {
	Name string
	// Path is currently identical to Name: spec's concrete grammar has no
	// nested `mod` declarations, so every module sits at the top level.
	Path string

	AST *ast.Module

	Class  *Class
	Struct *Struct

	// Traits holds only the traits this module itself declares (plus its
	// eponymous dummy trait), keyed by simple name. Interface.Order is the
	// superset reachable via `using`.
	Traits    map[string]*Trait
	Eponymous *Trait
	Interface *Interface

	Lets   map[string]*Let
	Usings []Using

	// Constructor is the synthesized eponymous let that builds an instance
	// from this module's fields/dependencies, per spec §4.3 pass 2 step 6.
	// Nil for modules with neither a class nor a struct.
	Constructor *Let
}

// AsTypeRef is the structural type a value of this module's class/struct
// satisfies: the And-chain of every trait in its Interface.
func (m *Module) AsTypeRef() *TypeRef {
	return m.Interface.AsTypeRef()
}
