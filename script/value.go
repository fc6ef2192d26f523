package script

import (
	"strconv"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-spectest/engine"
	"github.com/wippyai/wasm-spectest/errors"
)

// NaNClass is the family of NaN payloads an expected result may name
// instead of concrete bits.
type NaNClass int

const (
	// NaNNone marks a concrete expected value.
	NaNNone NaNClass = iota
	// NaNCanonical accepts only the canonical quiet NaN, either sign.
	NaNCanonical
	// NaNArithmetic accepts any NaN with the quiet bit set.
	NaNArithmetic
)

// Expectation is one expected result: concrete bits or a NaN class of a
// float type.
type Expectation struct {
	Value engine.Value
	NaN   NaNClass
}

// errUnsupportedValue marks value types outside i32/i64/f32/f64. Commands
// containing one are skipped rather than failed.
type errUnsupportedValue struct {
	typ string
}

func (e *errUnsupportedValue) Error() string {
	return "unsupported value type " + e.typ
}

// isUnsupported reports whether err marks a skippable value type.
func isUnsupported(err error) bool {
	_, ok := err.(*errUnsupportedValue)
	return ok
}

func valueType(name string) (api.ValueType, bool) {
	switch name {
	case "i32":
		return api.ValueTypeI32, true
	case "i64":
		return api.ValueTypeI64, true
	case "f32":
		return api.ValueTypeF32, true
	case "f64":
		return api.ValueTypeF64, true
	}
	return 0, false
}

// parseValue decodes an argument literal. NaN classes are not values and
// are rejected here.
func parseValue(tv TypedValue) (engine.Value, error) {
	t, ok := valueType(tv.Type)
	if !ok {
		return engine.Value{}, &errUnsupportedValue{typ: tv.Type}
	}
	lit, ok := tv.Lit()
	if !ok {
		return engine.Value{}, errors.Internal(errors.PhaseScript, "%s literal is not a string", tv.Type)
	}

	bitSize := 64
	if t == api.ValueTypeI32 || t == api.ValueTypeF32 {
		bitSize = 32
	}
	bits, err := strconv.ParseUint(lit, 10, bitSize)
	if err != nil {
		return engine.Value{}, errors.Wrap(errors.PhaseScript, errors.KindInternal, err, "parse value literal")
	}
	return engine.Raw(t, bits), nil
}

func parseValues(tvs []TypedValue) ([]engine.Value, error) {
	out := make([]engine.Value, len(tvs))
	for i, tv := range tvs {
		v, err := parseValue(tv)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// parseExpectation decodes an expected result, which may be a NaN class.
func parseExpectation(tv TypedValue) (Expectation, error) {
	t, ok := valueType(tv.Type)
	if !ok {
		return Expectation{}, &errUnsupportedValue{typ: tv.Type}
	}
	if t == api.ValueTypeF32 || t == api.ValueTypeF64 {
		if lit, ok := tv.Lit(); ok {
			switch lit {
			case "nan:canonical":
				return Expectation{Value: engine.Raw(t, 0), NaN: NaNCanonical}, nil
			case "nan:arithmetic":
				return Expectation{Value: engine.Raw(t, 0), NaN: NaNArithmetic}, nil
			}
		}
	}
	v, err := parseValue(tv)
	if err != nil {
		return Expectation{}, err
	}
	return Expectation{Value: v}, nil
}

func parseExpectations(tvs []TypedValue) ([]Expectation, error) {
	out := make([]Expectation, len(tvs))
	for i, tv := range tvs {
		e, err := parseExpectation(tv)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// Canonical NaN bit patterns and the quiet bit masks.
const (
	canonNaN32 = uint64(0x7fc00000)
	canonNaN64 = uint64(0x7ff8000000000000)
	absMask32  = uint64(0x7fffffff)
	absMask64  = uint64(0x7fffffffffffffff)
)

// matches reports whether got satisfies the expectation.
func (e Expectation) matches(got engine.Value) bool {
	switch e.NaN {
	case NaNCanonical:
		if got.Type != e.Value.Type {
			return false
		}
		if got.Type == api.ValueTypeF32 {
			return got.Bits&absMask32 == canonNaN32
		}
		return got.Bits&absMask64 == canonNaN64
	case NaNArithmetic:
		if got.Type != e.Value.Type {
			return false
		}
		if got.Type == api.ValueTypeF32 {
			return got.Bits&canonNaN32 == canonNaN32
		}
		return got.Bits&canonNaN64 == canonNaN64
	}
	return got.Same(e.Value)
}

func (e Expectation) String() string {
	switch e.NaN {
	case NaNCanonical:
		return "nan:canonical"
	case NaNArithmetic:
		return "nan:arithmetic"
	}
	return e.Value.String()
}

// concrete reports whether every expectation is a plain value.
func concrete(exps []Expectation) bool {
	for _, e := range exps {
		if e.NaN != NaNNone {
			return false
		}
	}
	return true
}
