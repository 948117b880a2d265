package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atomRef(name string) *TypeRef {
	return &TypeRef{Kind: TAtom, Atom: &Trait{FullName: name, Name: name}}
}

func TestFits_ReflexiveAtom(t *testing.T) {
	a := atomRef("A")
	assert.True(t, Fits(a, atomRef("A")))
}

func TestFits_UnrelatedAtomsDoNotFit(t *testing.T) {
	assert.False(t, Fits(atomRef("A"), atomRef("B")))
}

func TestFits_AndGivenFitsEitherMember(t *testing.T) {
	// spec §8: A&B fits A, fits B, fits B&A, fits A|B.
	ab := And(atomRef("A"), atomRef("B"))
	assert.True(t, Fits(ab, atomRef("A")))
	assert.True(t, Fits(ab, atomRef("B")))
	assert.True(t, Fits(ab, And(atomRef("B"), atomRef("A"))))
	assert.True(t, Fits(ab, Or(atomRef("A"), atomRef("B"))))
}

func TestFits_OrGivenDoesNotFitAndExpected(t *testing.T) {
	// spec §8: A|B does not fit A&B.
	orGiven := Or(atomRef("A"), atomRef("B"))
	andExpected := And(atomRef("A"), atomRef("B"))
	assert.False(t, Fits(orGiven, andExpected))
}

func TestFits_VoidExpectedAlwaysFits(t *testing.T) {
	void := &TypeRef{Kind: TVoid}
	assert.True(t, Fits(atomRef("A"), void))
	assert.True(t, Fits(&TypeRef{Kind: TRaw, RawKind: RawInt}, void))
	assert.True(t, Fits(Or(atomRef("A"), atomRef("B")), void))
}

func TestFits_RawKindMustMatchExactly(t *testing.T) {
	intRaw := &TypeRef{Kind: TRaw, RawKind: RawInt}
	stringRaw := &TypeRef{Kind: TRaw, RawKind: RawString}
	assert.True(t, Fits(intRaw, &TypeRef{Kind: TRaw, RawKind: RawInt}))
	assert.False(t, Fits(stringRaw, &TypeRef{Kind: TRaw, RawKind: RawInt}))
}

func TestFits_OrGivenAtomContainmentIsConjunctive(t *testing.T) {
	// See DESIGN.md: an Or-given only "contains" an atom present on both
	// branches, since a value of that Or type might dynamically be either
	// disjunct.
	mixed := Or(atomRef("A"), atomRef("B"))
	assert.False(t, Fits(mixed, atomRef("A")))

	both := Or(And(atomRef("A"), atomRef("C")), And(atomRef("A"), atomRef("D")))
	assert.True(t, Fits(both, atomRef("A")))
}

func TestFits_SelfExpectedRequiresSelfGiven(t *testing.T) {
	self := &TypeRef{Kind: TSelf}
	assert.True(t, Fits(self, self))
	assert.False(t, Fits(atomRef("A"), self))
}

func TestSubstituteSelf_ReplacesOnlySelfLeaves(t *testing.T) {
	concrete := atomRef("Concrete")
	t1 := And(&TypeRef{Kind: TSelf}, atomRef("Other"))
	out := SubstituteSelf(t1, concrete)
	assert.Same(t, concrete, out.Left)
	assert.Equal(t, "Other", out.Right.Atom.Name)
}

func TestAnd_SingleMemberReturnsItself(t *testing.T) {
	a := atomRef("A")
	assert.Same(t, a, And(a))
}

func TestOr_SingleMemberReturnsItself(t *testing.T) {
	a := atomRef("A")
	assert.Same(t, a, Or(a))
}

func TestCallableTraits_RawIntFixedSet(t *testing.T) {
	ctx := NewContext(nil)
	for _, name := range []string{"Add", "Sub", "Mul", "Div", "Neg", "Eq", "Lt", "Gt", "String"} {
		full := opTraitPath(name)
		require.NoError(t, ctx.Traits.Declare(full, &Trait{FullName: full, Name: name, ModulePath: "Op"}))
	}
	out := ctx.CallableTraits(&TypeRef{Kind: TRaw, RawKind: RawInt})
	for _, name := range []string{"Add", "Sub", "Mul", "Div", "Neg", "Eq", "Lt", "Gt", "String"} {
		_, ok := out[name]
		assert.True(t, ok, "expected %q callable on Int", name)
	}
}

func TestCallableTraits_RawStringIncludesLtGt(t *testing.T) {
	// §4.4's operations table defines Lt/Gt on String ("comparison by
	// length") even though §4.3's prose list omits them; see DESIGN.md.
	ctx := NewContext(nil)
	for _, name := range []string{"Add", "Eq", "Lt", "Gt", "String"} {
		full := opTraitPath(name)
		require.NoError(t, ctx.Traits.Declare(full, &Trait{FullName: full, Name: name, ModulePath: "Op"}))
	}
	out := ctx.CallableTraits(&TypeRef{Kind: TRaw, RawKind: RawString})
	_, ok := out["Lt"]
	assert.True(t, ok)
	_, ok = out["Gt"]
	assert.True(t, ok)
}

func TestCallableTraits_EponymousAtomExpandsToOwnerInterface(t *testing.T) {
	iface := NewInterface("Point")
	epon := &Trait{FullName: "Point", Name: "Point", Owner: iface, Eponymous: true}
	other := &Trait{FullName: `Point\Area`, Name: "Area", Owner: iface}
	iface.Add(epon)
	iface.Add(other)

	out := collectAtomsHelper(&TypeRef{Kind: TAtom, Atom: epon})
	_, ok := out["Area"]
	assert.True(t, ok, "expected eponymous atom to expand to its owner's full interface")
}

func collectAtomsHelper(t *TypeRef) map[string]*Trait {
	out := make(map[string]*Trait)
	collectAtoms(t, out)
	return out
}
