// Package symbol implements the backslash-qualified symbol table described in
// spec §4.5: every declaration is filed under its full path (module segments
// joined by backslashes), and a reference resolves by shortest-suffix match
// against the scope it's looked up from.
package symbol

import (
	"strings"

	"github.com/dekarrin/compost/internal/cerr"
)

// Table is a generic symbol table mapping fully-qualified backslash paths to
// values of type T. It is used for the trait table and the let table built
// up across the semantic analyzer's passes.
type Table[T any] struct {
	byPath map[string]T
	// order preserves declaration order, so iteration (e.g. over all lets for
	// code generation or diagnostics) is deterministic.
	order []string
}

// New creates an empty Table.
func New[T any]() *Table[T] {
	return &Table[T]{byPath: make(map[string]T)}
}

// Declare files value under the exact path given. Path segments are joined by
// callers using Join. Declaring the same path twice is an error (spec's
// DoubleDeclaration), since Compost has no overloading or shadowing within a
// single path.
func (t *Table[T]) Declare(path string, value T) error {
	if _, exists := t.byPath[path]; exists {
		return cerr.Newf(cerr.DoubleDeclaration, "%q is already declared", path)
	}
	t.byPath[path] = value
	t.order = append(t.order, path)
	return nil
}

// Redeclare overwrites an existing entry, or declares it if absent. Used by
// passes that first stub out a declaration (e.g. an eponymous trait skeleton)
// and fill it in fully on a later pass.
func (t *Table[T]) Redeclare(path string, value T) {
	if _, exists := t.byPath[path]; !exists {
		t.order = append(t.order, path)
	}
	t.byPath[path] = value
}

// Get looks up a value by its exact fully-qualified path, with no suffix
// resolution.
func (t *Table[T]) Get(path string) (T, bool) {
	v, ok := t.byPath[path]
	return v, ok
}

// Has reports whether path is declared exactly.
func (t *Table[T]) Has(path string) bool {
	_, ok := t.byPath[path]
	return ok
}

// Paths returns every declared path, in declaration order.
func (t *Table[T]) Paths() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Resolve implements spec §4.5's resolution algorithm: the target path is
// scope+name (backslash-joined, scope may be empty); a declared path matches
// if the target is a backslash-segment suffix of it; the shortest matching
// declared path wins. If scope is non-empty and no declared path matches,
// resolution retries once with an empty scope (i.e. as if the reference were
// absolute), per spec's worked example.
func (t *Table[T]) Resolve(scope, name string) (value T, path string, ok bool) {
	if v, p, found := t.resolveOnce(scope, name); found {
		return v, p, true
	}
	if scope != "" {
		if v, p, found := t.resolveOnce("", name); found {
			return v, p, true
		}
	}
	var zero T
	return zero, "", false
}

func (t *Table[T]) resolveOnce(scope, name string) (value T, path string, ok bool) {
	target := Join(scope, name)
	targetSegs := strings.Split(target, `\`)

	var bestPath string
	var bestLen = -1
	for _, declared := range t.order {
		if suffixMatches(declared, targetSegs) {
			declaredLen := len(strings.Split(declared, `\`))
			if bestLen == -1 || declaredLen < bestLen {
				bestLen = declaredLen
				bestPath = declared
			}
		}
	}
	if bestLen == -1 {
		var zero T
		return zero, "", false
	}
	v := t.byPath[bestPath]
	return v, bestPath, true
}

// suffixMatches reports whether targetSegs is a trailing subsequence of
// declared's own backslash segments.
func suffixMatches(declared string, targetSegs []string) bool {
	declSegs := strings.Split(declared, `\`)
	if len(targetSegs) > len(declSegs) {
		return false
	}
	offset := len(declSegs) - len(targetSegs)
	for i, seg := range targetSegs {
		if declSegs[offset+i] != seg {
			return false
		}
	}
	return true
}

// Join joins a scope path and a name into a single backslash-qualified path.
// An empty scope yields just name.
func Join(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + `\` + name
}
