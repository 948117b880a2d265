package eval

import (
	"strconv"

	"github.com/dekarrin/compost/internal/cerr"
	"github.com/dekarrin/compost/internal/semantic"
)

// ToDisplayString implements spec §4.4's "conversion to a human-readable
// string" procedure, used to produce the program's final printed output.
func (ev *Evaluator) ToDisplayString(v Value) (string, error) {
	switch v.Kind {
	case VRaw:
		switch v.RawKind {
		case semantic.RawInt:
			return strconv.FormatInt(v.Int, 10), nil
		case semantic.RawString:
			return v.Str, nil
		case semantic.RawBool:
			if v.Bool {
				return "true", nil
			}
			return "false", nil
		}
	case VStruct:
		if fv, ok := firstFieldAsString(v); ok {
			return fv, nil
		}
	}

	return ev.stringViaTrait(v)
}

// firstFieldAsString implements the fast path: a struct whose first declared
// field is named "value" of raw type String returns that string directly,
// without a trait call.
func firstFieldAsString(v Value) (string, bool) {
	if len(v.StructRef.Fields) == 0 {
		return "", false
	}
	first := v.StructRef.Fields[0]
	if first.Name != "value" || first.Raw != semantic.RawString {
		return "", false
	}
	fv, ok := v.Fields["value"]
	if !ok {
		return "", false
	}
	return fv.Str, true
}

func (ev *Evaluator) stringViaTrait(v Value) (string, error) {
	traits := ev.ctx.CallableTraits(ev.dynamicTypeRef(v))
	trait, ok := traits["String"]
	if !ok {
		return "", cerr.New(cerr.NoTrait, "no String trait available to convert value to a string")
	}
	result, err := ev.dispatchTraitCall(trait, v, nil)
	if err != nil {
		return "", err
	}
	return ev.ToDisplayString(result)
}
