package semantic

import (
	"github.com/dekarrin/compost/internal/ast"
	"github.com/dekarrin/compost/internal/symbol"
)

// Context carries the symbol tables and module graph built up across the
// three analysis passes. It is the single mutable structure every pass
// operates on.
type Context struct {
	Program *ast.Program

	// Modules is keyed by module name (== path, since modules never nest).
	Modules map[string]*Module

	// Traits and Lets are backslash-qualified symbol tables, resolved per
	// spec §4.5's shortest-suffix-match rule. They are filed under the same
	// paths as Module.Traits/Module.Lets, just indexed for cross-module
	// reference resolution.
	Traits *symbol.Table[*Trait]
	Lets   *symbol.Table[*Let]

	// GlobalLets holds top-level (non-module) lets, by simple name.
	GlobalLets map[string]*Let
}

// NewContext builds an empty Context ready for pass 1.
func NewContext(prog *ast.Program) *Context {
	return &Context{
		Program:    prog,
		Modules:    make(map[string]*Module),
		Traits:     symbol.New[*Trait](),
		Lets:       symbol.New[*Let](),
		GlobalLets: make(map[string]*Let),
	}
}

// Analyze runs all three passes in order and returns the fully-resolved
// Context, or the first error encountered.
func Analyze(prog *ast.Program) (*Context, error) {
	ctx := NewContext(prog)

	if err := ctx.runPass1(); err != nil {
		return nil, err
	}
	if err := ctx.runPass2(); err != nil {
		return nil, err
	}
	if err := ctx.runPass3(); err != nil {
		return nil, err
	}
	return ctx, nil
}
