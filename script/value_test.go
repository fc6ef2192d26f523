package script

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-spectest/engine"
)

func lit(typ, value string) TypedValue {
	return TypedValue{Type: typ, RawValue: json.RawMessage(`"` + value + `"`)}
}

func TestParseValue(t *testing.T) {
	v, err := parseValue(lit("i32", "4294967295"))
	require.NoError(t, err)
	assert.Equal(t, engine.I32(-1), v)

	v, err = parseValue(lit("i64", "18446744073709551615"))
	require.NoError(t, err)
	assert.Equal(t, engine.I64(-1), v)

	v, err = parseValue(lit("f32", "1069547520"))
	require.NoError(t, err)
	assert.Equal(t, float32(1.5), v.F32())

	v, err = parseValue(lit("f64", "4611686018427387904"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.F64())
}

func TestParseValueUnsupported(t *testing.T) {
	_, err := parseValue(TypedValue{Type: "v128", RawValue: json.RawMessage(`["1","2"]`)})
	require.Error(t, err)
	assert.True(t, isUnsupported(err))

	_, err = parseValue(TypedValue{Type: "externref", RawValue: json.RawMessage(`"null"`)})
	require.Error(t, err)
	assert.True(t, isUnsupported(err))
}

func TestParseValueBadLiteral(t *testing.T) {
	_, err := parseValue(lit("i32", "not a number"))
	require.Error(t, err)
	assert.False(t, isUnsupported(err))

	// i32 literals must fit 32 bits.
	_, err = parseValue(lit("i32", "4294967296"))
	require.Error(t, err)
}

func TestParseExpectationNaNClasses(t *testing.T) {
	e, err := parseExpectation(lit("f32", "nan:canonical"))
	require.NoError(t, err)
	assert.Equal(t, NaNCanonical, e.NaN)

	e, err = parseExpectation(lit("f64", "nan:arithmetic"))
	require.NoError(t, err)
	assert.Equal(t, NaNArithmetic, e.NaN)

	e, err = parseExpectation(lit("i32", "7"))
	require.NoError(t, err)
	assert.Equal(t, NaNNone, e.NaN)
	assert.Equal(t, engine.I32(7), e.Value)
}

func TestExpectationMatches(t *testing.T) {
	canon32 := Expectation{Value: engine.Raw(api.ValueTypeF32, 0), NaN: NaNCanonical}
	arith64 := Expectation{Value: engine.Raw(api.ValueTypeF64, 0), NaN: NaNArithmetic}

	assert.True(t, canon32.matches(engine.Raw(api.ValueTypeF32, 0x7fc00000)))
	assert.True(t, canon32.matches(engine.Raw(api.ValueTypeF32, 0xffc00000)), "negative canonical NaN")
	assert.False(t, canon32.matches(engine.Raw(api.ValueTypeF32, 0x7fc00001)), "payload bits break canonical")
	assert.False(t, canon32.matches(engine.F32(1.0)))
	assert.False(t, canon32.matches(engine.F64(math.NaN())), "type mismatch")

	assert.True(t, arith64.matches(engine.F64(math.NaN())))
	assert.True(t, arith64.matches(engine.Raw(api.ValueTypeF64, 0x7ff8000000000001)))
	assert.False(t, arith64.matches(engine.Raw(api.ValueTypeF64, 0x7ff4000000000000)), "signaling NaN is not arithmetic")
	assert.False(t, arith64.matches(engine.F64(math.Inf(1))))

	exact := Expectation{Value: engine.F32(0)}
	assert.False(t, exact.matches(engine.F32(float32(math.Copysign(0, -1)))), "signed zero")
}
