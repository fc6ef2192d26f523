package wasm

import (
	"github.com/tetratelabs/wazero/api"
)

// GlobalExport describes an exported global of a module.
type GlobalExport struct {
	Name    string
	ValType api.ValueType
	Mutable bool
}

// TableExport describes an exported funcref table of a module.
type TableExport struct {
	Name   string
	Min    uint32
	Max    uint32
	HasMax bool
}

type globalInfo struct {
	valType api.ValueType
	mutable bool
}

type tableInfo struct {
	limits limits
}

// ParseGlobalExports extracts exported globals from raw module bytes. The
// bytes are assumed to have passed engine validation; on anything that does
// not look like a module the result is nil.
func ParseGlobalExports(moduleBytes []byte) []GlobalExport {
	sec := scanSections(moduleBytes)
	if sec == nil {
		return nil
	}

	space := globalSpace(moduleBytes, sec)

	var out []GlobalExport
	forEachExport(moduleBytes, sec, func(name string, kind byte, idx uint32) {
		if kind != kindGlobal || int(idx) >= len(space) {
			return
		}
		g := space[idx]
		out = append(out, GlobalExport{Name: name, ValType: g.valType, Mutable: g.mutable})
	})
	return out
}

// ParseTableExports extracts exported tables, with their limits, from raw
// module bytes.
func ParseTableExports(moduleBytes []byte) []TableExport {
	sec := scanSections(moduleBytes)
	if sec == nil {
		return nil
	}

	space := tableSpace(moduleBytes, sec)

	var out []TableExport
	forEachExport(moduleBytes, sec, func(name string, kind byte, idx uint32) {
		if kind != kindTable || int(idx) >= len(space) {
			return
		}
		l := space[idx].limits
		out = append(out, TableExport{Name: name, Min: l.min, Max: l.max, HasMax: l.hasMax})
	})
	return out
}

type sectionSpan struct {
	start, end int
}

type sections struct {
	imports sectionSpan
	tables  sectionSpan
	globals sectionSpan
	exports sectionSpan
}

func scanSections(b []byte) *sections {
	if len(b) < 8 {
		return nil
	}
	var sec sections
	pos := 8
	for pos < len(b) {
		id := b[pos]
		pos++
		size, n := DecodeULEB128(b[pos:])
		pos += n
		end := pos + int(size)
		if end > len(b) {
			return nil
		}
		switch id {
		case secImport:
			sec.imports = sectionSpan{pos, end}
		case secTable:
			sec.tables = sectionSpan{pos, end}
		case secGlobal:
			sec.globals = sectionSpan{pos, end}
		case secExport:
			sec.exports = sectionSpan{pos, end}
		}
		pos = end
	}
	return &sec
}

// globalSpace builds the global index space: imported globals first, then
// locally defined ones.
func globalSpace(b []byte, sec *sections) []globalInfo {
	var space []globalInfo

	forEachImport(b, sec, func(kind byte, pos int) int {
		switch kind {
		case kindFunc:
			_, n := DecodeULEB128(b[pos:])
			return pos + n
		case kindTable:
			pos++ // reftype
			return skipLimits(b, pos)
		case kindMemory:
			return skipLimits(b, pos)
		default: // global
			space = append(space, globalInfo{valType: decodeValType(b[pos]), mutable: b[pos+1] == 0x01})
			return pos + 2
		}
	})

	if sec.globals.start > 0 {
		pos := sec.globals.start
		count, n := DecodeULEB128(b[pos:])
		pos += n
		for i := uint32(0); i < count && pos < sec.globals.end; i++ {
			space = append(space, globalInfo{valType: decodeValType(b[pos]), mutable: b[pos+1] == 0x01})
			pos = skipConstExpr(b, pos+2)
			if pos < 0 {
				break
			}
		}
	}

	return space
}

// tableSpace builds the table index space: imports first, then the table
// section.
func tableSpace(b []byte, sec *sections) []tableInfo {
	var space []tableInfo

	forEachImport(b, sec, func(kind byte, pos int) int {
		switch kind {
		case kindFunc:
			_, n := DecodeULEB128(b[pos:])
			return pos + n
		case kindTable:
			pos++ // reftype
			l, next := readLimits(b, pos)
			space = append(space, tableInfo{limits: l})
			return next
		case kindMemory:
			return skipLimits(b, pos)
		default:
			return pos + 2
		}
	})

	if sec.tables.start > 0 {
		pos := sec.tables.start
		count, n := DecodeULEB128(b[pos:])
		pos += n
		for i := uint32(0); i < count && pos < sec.tables.end; i++ {
			pos++ // reftype
			l, next := readLimits(b, pos)
			space = append(space, tableInfo{limits: l})
			pos = next
		}
	}

	return space
}

func forEachImport(b []byte, sec *sections, visit func(kind byte, pos int) int) {
	if sec.imports.start == 0 {
		return
	}
	pos := sec.imports.start
	count, n := DecodeULEB128(b[pos:])
	pos += n
	for i := uint32(0); i < count && pos < sec.imports.end; i++ {
		modLen, n := DecodeULEB128(b[pos:])
		pos += n + int(modLen)
		nameLen, n := DecodeULEB128(b[pos:])
		pos += n + int(nameLen)
		kind := b[pos]
		pos++
		pos = visit(kind, pos)
		if pos < 0 {
			return
		}
	}
}

func forEachExport(b []byte, sec *sections, visit func(name string, kind byte, idx uint32)) {
	if sec.exports.start == 0 {
		return
	}
	pos := sec.exports.start
	count, n := DecodeULEB128(b[pos:])
	pos += n
	for i := uint32(0); i < count && pos < sec.exports.end; i++ {
		nameLen, n := DecodeULEB128(b[pos:])
		pos += n
		name := string(b[pos : pos+int(nameLen)])
		pos += int(nameLen)
		kind := b[pos]
		pos++
		idx, n := DecodeULEB128(b[pos:])
		pos += n
		visit(name, kind, idx)
	}
}

func readLimits(b []byte, pos int) (limits, int) {
	flag := b[pos]
	pos++
	min, n := DecodeULEB128(b[pos:])
	pos += n
	l := limits{min: min}
	if flag&0x01 != 0 {
		max, n := DecodeULEB128(b[pos:])
		pos += n
		l.max = max
		l.hasMax = true
	}
	return l, pos
}

func skipLimits(b []byte, pos int) int {
	_, next := readLimits(b, pos)
	return next
}

// skipConstExpr walks a constant initializer expression. Float immediates
// can contain the end-opcode byte, so scanning for 0x0b is not enough; each
// constant opcode is decoded by shape.
func skipConstExpr(b []byte, pos int) int {
	for pos < len(b) {
		op := b[pos]
		pos++
		switch op {
		case 0x41, 0x42: // i32.const, i64.const
			pos = skipLEB(b, pos)
		case 0x43: // f32.const
			pos += 4
		case 0x44: // f64.const
			pos += 8
		case 0x23, 0xd2: // global.get, ref.func
			pos = skipLEB(b, pos)
		case 0xd0: // ref.null
			pos++
		case opEnd:
			return pos
		default:
			return -1
		}
	}
	return -1
}

// skipLEB advances past one LEB128-encoded immediate, signed or unsigned.
func skipLEB(b []byte, pos int) int {
	for pos < len(b) && b[pos]&0x80 != 0 {
		pos++
	}
	return pos + 1
}
