package coerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoonworks/sifter/ast"
	"github.com/typhoonworks/sifter/diag"
	"github.com/typhoonworks/sifter/value"
)

func TestCoerceScalarInteger(t *testing.T) {
	res, err := CoerceScalar(value.Type{Kind: value.KInteger}, ast.OpEq, value.String("42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), res.Value.IntVal())
}

func TestCoerceScalarIntegerInvalid(t *testing.T) {
	_, err := CoerceScalar(value.Type{Kind: value.KInteger}, ast.OpEq, value.String("abc"))
	de := err.(diag.Error)
	assert.Equal(t, diag.InvalidValue, de.Reason)
}

func TestCoerceScalarBool(t *testing.T) {
	res, err := CoerceScalar(value.Type{Kind: value.KBool}, ast.OpEq, value.String("true"))
	require.NoError(t, err)
	assert.True(t, res.Value.BoolVal())
}

func TestCoerceScalarDecimal(t *testing.T) {
	res, err := CoerceScalar(value.Type{Kind: value.KDecimal}, ast.OpGt, value.String("12.50"))
	require.NoError(t, err)
	assert.Equal(t, "12.5", res.Value.DecimalVal().String())
}

func TestCoerceScalarUuid(t *testing.T) {
	res, err := CoerceScalar(value.Type{Kind: value.KUuid}, ast.OpEq, value.String("f47ac10b-58cc-4372-a567-0e02b2c3d479"))
	require.NoError(t, err)
	assert.Equal(t, "f47ac10b-58cc-4372-a567-0e02b2c3d479", res.Value.UuidVal().String())
}

func TestCoerceScalarStartsWithNeverCasts(t *testing.T) {
	res, err := CoerceScalar(value.Type{Kind: value.KInteger}, ast.OpStartsWith, value.String("42"))
	require.NoError(t, err)
	assert.Equal(t, "42", res.Value.StringVal())
}

func TestCoerceScalarNullAgainstOrderedOpIsError(t *testing.T) {
	_, err := CoerceScalar(value.Type{Kind: value.KInteger}, ast.OpGt, value.Null())
	de := err.(diag.Error)
	assert.Equal(t, diag.InvalidNullComparison, de.Reason)
}

func TestCoerceScalarNullAgainstEqIsFine(t *testing.T) {
	res, err := CoerceScalar(value.Type{Kind: value.KInteger}, ast.OpEq, value.Null())
	require.NoError(t, err)
	assert.True(t, res.Value.IsNull())
}

func TestCoerceScalarDateOnlyDetection(t *testing.T) {
	res, err := CoerceScalar(value.Type{Kind: value.KUtcDateTime}, ast.OpGte, value.String("2024-03-01"))
	require.NoError(t, err)
	assert.True(t, res.DateOnly)
	assert.Equal(t, ast.OpGte, res.Op)
}

func TestCoerceScalarFullTimestampIsNotDateOnly(t *testing.T) {
	res, err := CoerceScalar(value.Type{Kind: value.KUtcDateTime}, ast.OpGte, value.String("2024-03-01T10:00:00Z"))
	require.NoError(t, err)
	assert.False(t, res.DateOnly)
}

func TestCoerceListCastsEachElement(t *testing.T) {
	out, err := CoerceList(value.Type{Kind: value.KInteger}, []value.Value{value.String("1"), value.String("2")})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(1), out[0].IntVal())
	assert.Equal(t, int64(2), out[1].IntVal())
}

func TestCoerceListArrayUsesInnerType(t *testing.T) {
	arrType := value.Array(value.Type{Kind: value.KInteger})
	out, err := CoerceList(arrType, []value.Value{value.String("7")})
	require.NoError(t, err)
	assert.Equal(t, int64(7), out[0].IntVal())
}

func TestCoerceListPreservesNull(t *testing.T) {
	out, err := CoerceList(value.Type{Kind: value.KString}, []value.Value{value.Null(), value.String("x")})
	require.NoError(t, err)
	assert.True(t, out[0].IsNull())
	assert.Equal(t, "x", out[1].StringVal())
}
