package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyRawOp_IntArithmetic(t *testing.T) {
	cases := []struct {
		trait string
		want  int64
	}{
		{"Add", 7},
		{"Sub", 3},
		{"Mul", 10},
		{"Div", 2},
	}
	for _, c := range cases {
		v, err := applyRawOp("Op\\"+c.trait, intValue(5), map[string]Value{"rhs": intValue(2)})
		require.NoError(t, err)
		assert.Equal(t, VRaw, v.Kind)
		assert.Equal(t, c.want, v.Int)
	}
}

func TestApplyRawOp_IntDivByZero(t *testing.T) {
	_, err := applyRawOp("Op\\Div", intValue(5), map[string]Value{"rhs": intValue(0)})
	assert.Error(t, err)
}

func TestApplyRawOp_IntNeg(t *testing.T) {
	v, err := applyRawOp("Op\\Neg", intValue(5), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(-5), v.Int)
}

func TestApplyRawOp_IntComparisons(t *testing.T) {
	v, err := applyRawOp("Op\\Lt", intValue(1), map[string]Value{"rhs": intValue(2)})
	require.NoError(t, err)
	assert.True(t, v.Bool)

	v, err = applyRawOp("Op\\Gt", intValue(1), map[string]Value{"rhs": intValue(2)})
	require.NoError(t, err)
	assert.False(t, v.Bool)

	v, err = applyRawOp("Op\\Eq", intValue(2), map[string]Value{"rhs": intValue(2)})
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestApplyRawOp_IntToString(t *testing.T) {
	v, err := applyRawOp("Op\\String", intValue(42), nil)
	require.NoError(t, err)
	assert.Equal(t, "42", v.Str)
}

func TestApplyRawOp_StringAddIsConcatenation(t *testing.T) {
	v, err := applyRawOp("Op\\Add", stringValue("foo"), map[string]Value{"rhs": stringValue("bar")})
	require.NoError(t, err)
	assert.Equal(t, "foobar", v.Str)
}

func TestApplyRawOp_StringLtGtByRuneLength(t *testing.T) {
	v, err := applyRawOp("Op\\Lt", stringValue("a"), map[string]Value{"rhs": stringValue("bb")})
	require.NoError(t, err)
	assert.True(t, v.Bool)

	v, err = applyRawOp("Op\\Gt", stringValue("a"), map[string]Value{"rhs": stringValue("bb")})
	require.NoError(t, err)
	assert.False(t, v.Bool)
}

func TestApplyRawOp_StringEqAndString(t *testing.T) {
	v, err := applyRawOp("Op\\Eq", stringValue("x"), map[string]Value{"rhs": stringValue("x")})
	require.NoError(t, err)
	assert.True(t, v.Bool)

	v, err = applyRawOp("Op\\String", stringValue("passthrough"), nil)
	require.NoError(t, err)
	assert.Equal(t, "passthrough", v.Str)
}

func TestApplyRawOp_BoolLogic(t *testing.T) {
	v, err := applyRawOp("Op\\And", boolValue(true), map[string]Value{"rhs": boolValue(false)})
	require.NoError(t, err)
	assert.False(t, v.Bool)

	v, err = applyRawOp("Op\\Or", boolValue(true), map[string]Value{"rhs": boolValue(false)})
	require.NoError(t, err)
	assert.True(t, v.Bool)

	v, err = applyRawOp("Op\\Eq", boolValue(true), map[string]Value{"rhs": boolValue(true)})
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestApplyRawOp_BoolToString(t *testing.T) {
	v, err := applyRawOp("Op\\String", boolValue(true), nil)
	require.NoError(t, err)
	assert.Equal(t, "true", v.Str)

	v, err = applyRawOp("Op\\String", boolValue(false), nil)
	require.NoError(t, err)
	assert.Equal(t, "false", v.Str)
}

func TestApplyRawOp_MissingRhsIsAnError(t *testing.T) {
	_, err := applyRawOp("Op\\Add", intValue(1), nil)
	assert.Error(t, err)
}

func TestApplyRawOp_WrongRhsRawKindIsAnError(t *testing.T) {
	_, err := applyRawOp("Op\\Add", intValue(1), map[string]Value{"rhs": stringValue("nope")})
	assert.Error(t, err)
}

func TestApplyRawOp_UnknownTraitIsAnError(t *testing.T) {
	_, err := applyRawOp("Op\\Frobnicate", intValue(1), nil)
	assert.Error(t, err)
}
