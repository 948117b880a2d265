// Package stdlib holds the Compost prelude: the Op/Int/String/Bool modules
// every program is implicitly compiled against, per spec §6 ("one program =
// the stdlib prelude text concatenated with the user file text, prelude
// first"). The raw operations table of spec §4.4 is realized in Go by
// internal/eval's rawops.go; this prelude exists so those same operations are
// also reachable as ordinary, declared traits — the thing CallableTraits and
// Fits actually dispatch against.
package stdlib

// Prelude is the Compost source text compiled ahead of every user program.
const Prelude = `
mod Op
    traits
        Add: rhs Self -> Self
        Sub: rhs Self -> Self
        Mul: rhs Self -> Self
        Div: rhs Self -> Self
        Neg: -> Self
        Eq: rhs Self -> Bool
        Lt: rhs Self -> Bool
        Gt: rhs Self -> Bool
        And: rhs Self -> Bool
        Or: rhs Self -> Bool
        String: -> String

mod Int
    struct
        value int
    using
        Op
    defs
        Add: value.Add(rhs rhs.value)
        Sub: value.Sub(rhs rhs.value)
        Mul: value.Mul(rhs rhs.value)
        Div: value.Div(rhs rhs.value)
        Neg: value.Neg()
        Eq: value.Eq(rhs rhs.value)
        Lt: value.Lt(rhs rhs.value)
        Gt: value.Gt(rhs rhs.value)
        String: value.String()

mod String
    struct
        value string
    using
        Op
    defs
        Add: value.Add(rhs rhs.value)
        Eq: value.Eq(rhs rhs.value)
        Lt: value.Lt(rhs rhs.value)
        Gt: value.Gt(rhs rhs.value)
        String: value.String()

mod Bool
    struct
        value bool
    using
        Op
    defs
        Eq: value.Eq(rhs rhs.value)
        And: value.And(rhs rhs.value)
        Or: value.Or(rhs rhs.value)
        String: value.String()
`

// LineCount is the number of newline-terminated lines in Prelude, used to
// translate error positions in the concatenated source back to the user's
// own file (spec §7).
var LineCount = countLines(Prelude)

func countLines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
