package eval

import (
	"strconv"
	"strings"

	"github.com/dekarrin/compost/internal/cerr"
	"github.com/dekarrin/compost/internal/semantic"
)

// applyRawOp implements spec §4.4's exhaustive raw operations table. fullName
// is the trait's backslash-qualified stdlib path (e.g. "Op\Add"); rhs, when
// the operation takes one, is looked up under the stdlib's fixed parameter
// name "rhs".
func applyRawOp(fullName string, subj Value, args map[string]Value) (Value, error) {
	name := opName(fullName)

	switch subj.RawKind {
	case semantic.RawInt:
		return applyIntOp(name, subj, args)
	case semantic.RawString:
		return applyStringOp(name, subj, args)
	case semantic.RawBool:
		return applyBoolOp(name, subj, args)
	}
	return Value{}, cerr.Newf(cerr.RuntimeError, "trait %q is not a raw operation", fullName)
}

func opName(fullName string) string {
	if i := strings.LastIndex(fullName, "\\"); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}

func rhsInt(args map[string]Value) (int64, error) {
	v, ok := args["rhs"]
	if !ok || v.Kind != VRaw || v.RawKind != semantic.RawInt {
		return 0, cerr.New(cerr.TypeMismatch, "expected an Int argument named \"rhs\"")
	}
	return v.Int, nil
}

func rhsString(args map[string]Value) (string, error) {
	v, ok := args["rhs"]
	if !ok || v.Kind != VRaw || v.RawKind != semantic.RawString {
		return "", cerr.New(cerr.TypeMismatch, "expected a String argument named \"rhs\"")
	}
	return v.Str, nil
}

func rhsBool(args map[string]Value) (bool, error) {
	v, ok := args["rhs"]
	if !ok || v.Kind != VRaw || v.RawKind != semantic.RawBool {
		return false, cerr.New(cerr.TypeMismatch, "expected a Bool argument named \"rhs\"")
	}
	return v.Bool, nil
}

func applyIntOp(name string, subj Value, args map[string]Value) (Value, error) {
	switch name {
	case "Add":
		rhs, err := rhsInt(args)
		if err != nil {
			return Value{}, err
		}
		return intValue(subj.Int + rhs), nil
	case "Sub":
		rhs, err := rhsInt(args)
		if err != nil {
			return Value{}, err
		}
		return intValue(subj.Int - rhs), nil
	case "Mul":
		rhs, err := rhsInt(args)
		if err != nil {
			return Value{}, err
		}
		return intValue(subj.Int * rhs), nil
	case "Div":
		rhs, err := rhsInt(args)
		if err != nil {
			return Value{}, err
		}
		if rhs == 0 {
			return Value{}, cerr.New(cerr.RuntimeError, "division by zero")
		}
		return intValue(subj.Int / rhs), nil
	case "Neg":
		return intValue(-subj.Int), nil
	case "Eq":
		rhs, err := rhsInt(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(subj.Int == rhs), nil
	case "Lt":
		rhs, err := rhsInt(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(subj.Int < rhs), nil
	case "Gt":
		rhs, err := rhsInt(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(subj.Int > rhs), nil
	case "String":
		return stringValue(strconv.FormatInt(subj.Int, 10)), nil
	}
	return Value{}, cerr.Newf(cerr.RuntimeError, "trait %q is not defined on Int", name)
}

func applyStringOp(name string, subj Value, args map[string]Value) (Value, error) {
	switch name {
	case "Add":
		rhs, err := rhsString(args)
		if err != nil {
			return Value{}, err
		}
		return stringValue(subj.Str + rhs), nil
	case "Eq":
		rhs, err := rhsString(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(subj.Str == rhs), nil
	case "Lt":
		rhs, err := rhsString(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(len([]rune(subj.Str)) < len([]rune(rhs))), nil
	case "Gt":
		rhs, err := rhsString(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(len([]rune(subj.Str)) > len([]rune(rhs))), nil
	case "String":
		return stringValue(subj.Str), nil
	}
	return Value{}, cerr.Newf(cerr.RuntimeError, "trait %q is not defined on String", name)
}

func applyBoolOp(name string, subj Value, args map[string]Value) (Value, error) {
	switch name {
	case "Eq":
		rhs, err := rhsBool(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(subj.Bool == rhs), nil
	case "And":
		rhs, err := rhsBool(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(subj.Bool && rhs), nil
	case "Or":
		rhs, err := rhsBool(args)
		if err != nil {
			return Value{}, err
		}
		return boolValue(subj.Bool || rhs), nil
	case "String":
		if subj.Bool {
			return stringValue("true"), nil
		}
		return stringValue("false"), nil
	}
	return Value{}, cerr.Newf(cerr.RuntimeError, "trait %q is not defined on Bool", name)
}
