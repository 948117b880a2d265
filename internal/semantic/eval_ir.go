package semantic

import "github.com/dekarrin/compost/internal/ast"

// EvalKind tags the variant held by an Evaluation node, per spec §3's
// Evaluation tagged variant.
type EvalKind int

const (
	EvLetCall EvalKind = iota
	EvTraitCall
	EvLiteral
	EvLocal
	EvFriendlyField
	EvMatch
	EvIfElse
	EvSelf
	EvVoid
	EvClassConstruct
	EvStructConstruct
)

// EvalArg is one resolved, ordered `(name, Evaluation)` input.
type EvalArg struct {
	Name  string
	Value *Evaluation
}

// EvalBranch is one resolved `Type Evaluation` match arm.
type EvalBranch struct {
	Type *TypeRef
	Body *Evaluation
}

// Evaluation is the resolved, typed tree pass 3 builds from an ast.Expr. It
// is what the evaluator walks — every name has already been resolved to a
// concrete *Let/*Trait/*Class/*Struct pointer, and every node carries its
// computed output Type.
type Evaluation struct {
	Kind EvalKind
	Type *TypeRef

	LetRef *Let
	Inputs []EvalArg // LetCall and TraitCall inputs, in declared order

	TraitRef *Trait
	Subject  *Evaluation // TraitCall receiver

	LitKind ast.LitKind
	LitText string

	LocalName string // Local, and FriendlyField's receiver
	FieldName string // FriendlyField's field

	MatchBound    string
	MatchSubject  *Evaluation
	MatchBranches []EvalBranch

	Cond, Then, Else *Evaluation

	ClassRef  *Class
	StructRef *Struct
}
