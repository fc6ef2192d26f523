package engine

import (
	"fmt"
	"math"

	"github.com/tetratelabs/wazero/api"
)

// Value is one WebAssembly numeric value: its type plus the raw bits in the
// engine's uint64 register representation. i32 and f32 occupy the low 32
// bits.
type Value struct {
	Type api.ValueType
	Bits uint64
}

// I32 builds an i32 value.
func I32(v int32) Value {
	return Value{Type: api.ValueTypeI32, Bits: uint64(uint32(v))}
}

// I64 builds an i64 value.
func I64(v int64) Value {
	return Value{Type: api.ValueTypeI64, Bits: uint64(v)}
}

// F32 builds an f32 value.
func F32(v float32) Value {
	return Value{Type: api.ValueTypeF32, Bits: uint64(math.Float32bits(v))}
}

// F64 builds an f64 value.
func F64(v float64) Value {
	return Value{Type: api.ValueTypeF64, Bits: math.Float64bits(v)}
}

// Raw builds a value of the given type directly from register bits.
func Raw(t api.ValueType, bits uint64) Value {
	return Value{Type: t, Bits: bits}
}

func (v Value) I32() int32   { return int32(uint32(v.Bits)) }
func (v Value) I64() int64   { return int64(v.Bits) }
func (v Value) F32() float32 { return math.Float32frombits(uint32(v.Bits)) }
func (v Value) F64() float64 { return math.Float64frombits(v.Bits) }

// IsNaN reports whether v is a floating-point NaN. Integer values are never
// NaN.
func (v Value) IsNaN() bool {
	switch v.Type {
	case api.ValueTypeF32:
		return v.Bits&0x7fffffff > 0x7f800000
	case api.ValueTypeF64:
		return v.Bits&0x7fffffffffffffff > 0x7ff0000000000000
	}
	return false
}

// Same reports value identity: bit equality, except that any two NaNs of the
// same type compare equal. Unlike ==, this distinguishes +0 from -0.
func (v Value) Same(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	if v.Bits == o.Bits {
		return true
	}
	return v.IsNaN() && o.IsNaN()
}

func (v Value) String() string {
	switch v.Type {
	case api.ValueTypeI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case api.ValueTypeI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case api.ValueTypeF32:
		return fmt.Sprintf("f32:%g (0x%08x)", v.F32(), uint32(v.Bits))
	case api.ValueTypeF64:
		return fmt.Sprintf("f64:%g (0x%016x)", v.F64(), v.Bits)
	}
	return fmt.Sprintf("%s:0x%x", api.ValueTypeName(v.Type), v.Bits)
}
