package eval

import (
	"strconv"

	"github.com/dekarrin/compost/internal/ast"
	"github.com/dekarrin/compost/internal/cerr"
	"github.com/dekarrin/compost/internal/semantic"
)

// Evaluator walks a resolved semantic.Context, per spec §4.4.
type Evaluator struct {
	ctx *semantic.Context
}

// New wraps a fully-analyzed Context for evaluation.
func New(ctx *semantic.Context) *Evaluator {
	return &Evaluator{ctx: ctx}
}

// Run resolves the top-level let named "Main" and evaluates it with no
// inputs and no Self, per spec §6's program output contract.
func (ev *Evaluator) Run() (Value, error) {
	main, _, ok := ev.ctx.Lets.Resolve("", "Main")
	if !ok {
		return Value{}, cerr.New(cerr.NoResolution, "no let named \"Main\"")
	}
	return ev.Eval(main.Body, nil, nil)
}

// Eval evaluates a single Evaluation node in the given locals/self scope.
func (ev *Evaluator) Eval(e *semantic.Evaluation, locals map[string]Value, self *Value) (Value, error) {
	switch e.Kind {
	case semantic.EvVoid:
		return voidValue(), nil

	case semantic.EvSelf:
		if self == nil {
			return Value{}, cerr.New(cerr.NoSelf, "Self is not available in this context")
		}
		return *self, nil

	case semantic.EvLiteral:
		return literalValue(e)

	case semantic.EvLocal:
		v, ok := locals[e.LocalName]
		if !ok {
			return Value{}, cerr.Newf(cerr.NoResolution, "undefined local %q", e.LocalName)
		}
		return v, nil

	case semantic.EvFriendlyField:
		v, ok := locals[e.LocalName]
		if !ok || v.Kind != VStruct {
			return Value{}, cerr.Newf(cerr.NoSelf, "%q is not a struct instance", e.LocalName)
		}
		fv, ok := v.Fields[e.FieldName]
		if !ok {
			return Value{}, cerr.Newf(cerr.NoResolution, "no field named %q", e.FieldName)
		}
		return fv, nil

	case semantic.EvLetCall:
		inputs, err := ev.evalArgs(e.Inputs, locals, self)
		if err != nil {
			return Value{}, err
		}
		return ev.Eval(e.LetRef.Body, inputs, nil)

	case semantic.EvTraitCall:
		subject, err := ev.Eval(e.Subject, locals, self)
		if err != nil {
			return Value{}, err
		}
		inputs, err := ev.evalArgs(e.Inputs, locals, self)
		if err != nil {
			return Value{}, err
		}
		result, err := ev.dispatchTraitCall(e.TraitRef, subject, inputs)
		if err != nil {
			return Value{}, err
		}
		return ev.coerceResult(result, e.Type)

	case semantic.EvMatch:
		subject, err := ev.Eval(e.MatchSubject, locals, self)
		if err != nil {
			return Value{}, err
		}
		for _, br := range e.MatchBranches {
			if ev.matchesDynamicType(subject, br.Type, self) {
				next := copyVLocals(locals)
				next[e.MatchBound] = subject
				return ev.Eval(br.Body, next, self)
			}
		}
		return Value{}, cerr.New(cerr.RuntimeError, "no match branch satisfies the subject's dynamic type")

	case semantic.EvIfElse:
		cond, err := ev.Eval(e.Cond, locals, self)
		if err != nil {
			return Value{}, err
		}
		b, err := toBool(cond)
		if err != nil {
			return Value{}, err
		}
		if b {
			return ev.Eval(e.Then, locals, self)
		}
		return ev.Eval(e.Else, locals, self)

	case semantic.EvClassConstruct:
		deps := make(map[string]Value, len(locals))
		for k, v := range locals {
			deps[k] = v
		}
		return Value{Kind: VClass, ClassRef: e.ClassRef, Deps: deps}, nil

	case semantic.EvStructConstruct:
		fields := make(map[string]Value, len(locals))
		for k, v := range locals {
			if v.Kind != VRaw {
				return Value{}, cerr.Newf(cerr.RuntimeError, "field %q is not a raw value", k)
			}
			fields[k] = v
		}
		return Value{Kind: VStruct, StructRef: e.StructRef, Fields: fields}, nil
	}

	return Value{}, cerr.New(cerr.RuntimeError, "unreachable evaluation kind")
}

func (ev *Evaluator) evalArgs(args []semantic.EvalArg, locals map[string]Value, self *Value) (map[string]Value, error) {
	out := make(map[string]Value, len(args))
	for _, a := range args {
		v, err := ev.Eval(a.Value, locals, self)
		if err != nil {
			return nil, err
		}
		out[a.Name] = v
	}
	return out, nil
}

// dispatchTraitCall implements spec §4.4's TraitCall dispatch rule: Raw
// subjects run the built-in operation table; everything else looks up the
// trait in the subject's ordered Defs list and evaluates with locals = inputs
// ∪ the subject's own field/dependency bindings, Self = subject.
func (ev *Evaluator) dispatchTraitCall(trait *semantic.Trait, subject Value, inputs map[string]Value) (Value, error) {
	if subject.Kind == VRaw {
		return applyRawOp(trait.FullName, subject, inputs)
	}

	var def *semantic.Def
	var ok bool
	switch subject.Kind {
	case VClass:
		def, ok = subject.ClassRef.DefByTrait(trait)
	case VStruct:
		def, ok = subject.StructRef.DefByTrait(trait)
	}
	if !ok {
		return Value{}, cerr.Newf(cerr.NoTrait, "no definition for trait %q on this value", trait.FullName)
	}

	locals := make(map[string]Value, len(inputs))
	for k, v := range inputs {
		locals[k] = v
	}
	switch subject.Kind {
	case VClass:
		for k, v := range subject.Deps {
			if _, exists := locals[k]; !exists {
				locals[k] = v
			}
		}
	case VStruct:
		for k, v := range subject.Fields {
			if _, exists := locals[k]; !exists {
				locals[k] = v
			}
		}
	}

	selfCopy := subject
	return ev.Eval(def.Body, locals, &selfCopy)
}

// coerceResult mirrors, at runtime, the static coercion typecheck.go
// inserts on the way in. Explicit def and let bodies are already coerced by
// the type checker, but a trait's context-free default (Trait.Default) is
// installed as an inheriting module's def body without that step, so a
// TraitCall statically typed as returning a non-Raw type can still produce
// a bare VRaw Value here. Left unwrapped, that mismatch surfaces downstream
// the next time the value is passed as an argument that the static side
// already coerced to a genuine struct (rhsString and friends require VRaw on
// both sides). Wrapping here keeps every TraitCall result consistent with
// what the type checker believes it is.
func (ev *Evaluator) coerceResult(v Value, want *semantic.TypeRef) (Value, error) {
	if v.Kind != VRaw || want == nil || want.Kind == semantic.TRaw {
		return v, nil
	}
	modName := semantic.RawModuleName(v.RawKind)
	let, _, ok := ev.ctx.Lets.Resolve("", modName)
	if !ok || len(let.Params) == 0 {
		return v, nil
	}
	return ev.Eval(let.Body, map[string]Value{let.Params[0].Name: v}, nil)
}

// matchesDynamicType reports whether subject's dynamic type satisfies a
// match branch's declared type, interpreting any Self in that type using the
// enclosing self value, per spec §4.4.
func (ev *Evaluator) matchesDynamicType(subject Value, branchType *semantic.TypeRef, self *Value) bool {
	expected := branchType
	if self != nil {
		expected = semantic.SubstituteSelf(branchType, ev.dynamicTypeRef(*self))
	}
	return semantic.Fits(ev.dynamicTypeRef(subject), expected)
}

// dynamicTypeRef builds the structural TypeRef a runtime value actually
// satisfies: a class/struct instance's owning module's full interface
// And-chain, a raw value's RawKind, or Void.
func (ev *Evaluator) dynamicTypeRef(v Value) *semantic.TypeRef {
	switch v.Kind {
	case VClass:
		return ev.ctx.Modules[v.ClassRef.ModulePath].AsTypeRef()
	case VStruct:
		return ev.ctx.Modules[v.StructRef.ModulePath].AsTypeRef()
	case VRaw:
		return &semantic.TypeRef{Kind: semantic.TRaw, RawKind: v.RawKind}
	default:
		return &semantic.TypeRef{Kind: semantic.TVoid}
	}
}

func literalValue(e *semantic.Evaluation) (Value, error) {
	switch e.LitKind {
	case ast.LitInt:
		n, err := strconv.ParseInt(e.LitText, 10, 64)
		if err != nil {
			return Value{}, cerr.Newf(cerr.RuntimeError, "malformed int literal %q", e.LitText)
		}
		return intValue(n), nil
	case ast.LitString:
		return stringValue(e.LitText), nil
	case ast.LitBool:
		return boolValue(e.LitText == "true"), nil
	}
	return Value{}, cerr.New(cerr.RuntimeError, "unrecognized literal kind")
}

// toBool unwraps an if-condition value down to a raw bool, per spec §4.3/
// §4.4's "Raw or coercible-to-Bool" condition rule. A condition typed as the
// stdlib Bool module (e.g. the result of a comparison trait on a struct/class
// subject, which TraitOutputType resolves to the Bool atom rather than a raw
// result) arrives here as a Bool struct instance, not a VRaw — the def body
// behind that trait call was coerced to a Bool struct by the type checker —
// so a struct with a raw bool field named "value" is unwrapped before the
// strict VRaw check.
func toBool(v Value) (bool, error) {
	if v.Kind == VStruct {
		if fv, ok := v.Fields["value"]; ok && fv.Kind == VRaw && fv.RawKind == semantic.RawBool {
			v = fv
		}
	}
	if v.Kind != VRaw || v.RawKind != semantic.RawBool {
		return false, cerr.New(cerr.TypeMismatch, "if-condition did not evaluate to Bool")
	}
	return v.Bool, nil
}

func copyVLocals(m map[string]Value) map[string]Value {
	out := make(map[string]Value, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
