package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_ResolveShortestSuffixWins(t *testing.T) {
	// spec §8's worked example: declaring Mod\Thing then Mod, resolve
	// "Thing" finds the first and resolve "Mod" finds the second.
	tbl := New[string]()
	require.NoError(t, tbl.Declare(Join("Mod", "Thing"), "the-thing"))
	require.NoError(t, tbl.Declare("Mod", "the-mod"))

	v, path, ok := tbl.Resolve("", "Thing")
	require.True(t, ok)
	assert.Equal(t, "the-thing", v)
	assert.Equal(t, `Mod\Thing`, path)

	v, path, ok = tbl.Resolve("", "Mod")
	require.True(t, ok)
	assert.Equal(t, "the-mod", v)
	assert.Equal(t, "Mod", path)
}

func TestTable_DeclareDuplicateFails(t *testing.T) {
	tbl := New[int]()
	require.NoError(t, tbl.Declare("A", 1))
	err := tbl.Declare("A", 2)
	assert.Error(t, err)
}

func TestTable_ResolveFallsBackToEmptyScope(t *testing.T) {
	tbl := New[string]()
	require.NoError(t, tbl.Declare("Global", "g"))

	v, _, ok := tbl.Resolve("SomeScope", "Global")
	require.True(t, ok)
	assert.Equal(t, "g", v)
}

func TestTable_ResolveScopeQualifiedPreferredOverFallback(t *testing.T) {
	tbl := New[string]()
	require.NoError(t, tbl.Declare("Global", "the-global-one"))
	require.NoError(t, tbl.Declare(Join("Scope", "Global"), "the-scoped-one"))

	v, path, ok := tbl.Resolve("Scope", "Global")
	require.True(t, ok)
	assert.Equal(t, "the-scoped-one", v)
	assert.Equal(t, `Scope\Global`, path)
}

func TestTable_ResolveUnknownFails(t *testing.T) {
	tbl := New[int]()
	_, _, ok := tbl.Resolve("", "Nope")
	assert.False(t, ok)
}

func TestTable_GetExactPathOnly(t *testing.T) {
	tbl := New[int]()
	require.NoError(t, tbl.Declare(Join("A", "B"), 7))

	_, ok := tbl.Get("B")
	assert.False(t, ok)
	v, ok := tbl.Get(`A\B`)
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "Name", Join("", "Name"))
	assert.Equal(t, `Scope\Name`, Join("Scope", "Name"))
}

func TestTable_PathsPreservesDeclarationOrder(t *testing.T) {
	tbl := New[int]()
	require.NoError(t, tbl.Declare("C", 1))
	require.NoError(t, tbl.Declare("A", 2))
	require.NoError(t, tbl.Declare("B", 3))
	assert.Equal(t, []string{"C", "A", "B"}, tbl.Paths())
}
