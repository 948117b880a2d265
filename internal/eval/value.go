// Package eval is the tree-walking evaluator for a resolved semantic.Context:
// it walks the Evaluation graph built by the three analysis passes and
// produces runtime Values, per spec §4.4.
package eval

import (
	"github.com/dekarrin/compost/internal/semantic"
)

// ValueKind tags the runtime form of a Value, per spec §3's Runtime values.
type ValueKind int

const (
	VClass ValueKind = iota
	VStruct
	VRaw
	VVoid
)

// Value is a runtime value: a class instance (its resolved dependencies), a
// struct instance (its raw fields), a raw scalar, or Void.
type Value struct {
	Kind ValueKind

	ClassRef  *semantic.Class
	StructRef *semantic.Struct

	// Deps holds a class instance's dependency values, by name.
	Deps map[string]Value
	// Fields holds a struct instance's field values, by name.
	Fields map[string]Value

	RawKind semantic.RawKind
	Int     int64
	Str     string
	Bool    bool
}

func voidValue() Value {
	return Value{Kind: VVoid}
}

func intValue(n int64) Value {
	return Value{Kind: VRaw, RawKind: semantic.RawInt, Int: n}
}

func stringValue(s string) Value {
	return Value{Kind: VRaw, RawKind: semantic.RawString, Str: s}
}

func boolValue(b bool) Value {
	return Value{Kind: VRaw, RawKind: semantic.RawBool, Bool: b}
}
