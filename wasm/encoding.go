package wasm

import (
	"github.com/tetratelabs/wazero/api"
)

// AppendULEB128 appends v in unsigned LEB128 form.
func AppendULEB128(dst []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// AppendSLEB128 appends v in signed LEB128 form.
func AppendSLEB128[T int32 | int64](dst []byte, v T) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// DecodeULEB128 decodes an unsigned LEB128 value and reports how many bytes
// were consumed.
func DecodeULEB128(data []byte) (uint32, int) {
	var result uint32
	var shift uint32
	for i, b := range data {
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, i + 1
		}
		shift += 7
		if shift > 35 {
			return result, i + 1
		}
	}
	return result, len(data)
}

// Binary encodings of value types.
const (
	typeI32 byte = 0x7f
	typeI64 byte = 0x7e
	typeF32 byte = 0x7d
	typeF64 byte = 0x7c
)

// encodeValType converts a wazero value type to its binary encoding.
func encodeValType(t api.ValueType) byte {
	switch t {
	case api.ValueTypeI32:
		return typeI32
	case api.ValueTypeI64:
		return typeI64
	case api.ValueTypeF32:
		return typeF32
	case api.ValueTypeF64:
		return typeF64
	default:
		return typeI32
	}
}

// decodeValType converts a binary value type to a wazero value type.
func decodeValType(b byte) api.ValueType {
	switch b {
	case typeI32:
		return api.ValueTypeI32
	case typeI64:
		return api.ValueTypeI64
	case typeF32:
		return api.ValueTypeF32
	case typeF64:
		return api.ValueTypeF64
	default:
		return api.ValueTypeI32
	}
}
