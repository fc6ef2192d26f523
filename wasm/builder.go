package wasm

import (
	"encoding/binary"

	"github.com/tetratelabs/wazero/api"
)

// Instruction opcodes used in synthesized function bodies.
const (
	OpUnreachable byte = 0x00
	OpCall        byte = 0x10
	OpDrop        byte = 0x1a
	OpLocalGet    byte = 0x20
	OpI32Const    byte = 0x41
	OpI32Add      byte = 0x6a
)

// Section ids, in the order a module must emit them.
const (
	secType   byte = 0x01
	secImport byte = 0x02
	secFunc   byte = 0x03
	secTable  byte = 0x04
	secMemory byte = 0x05
	secGlobal byte = 0x06
	secExport byte = 0x07
	secStart  byte = 0x08
	secCode   byte = 0x0a
)

// Export kinds.
const (
	kindFunc   byte = 0x00
	kindTable  byte = 0x01
	kindMemory byte = 0x02
	kindGlobal byte = 0x03
)

const opEnd byte = 0x0b

var magicVersion = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

type funcImport struct {
	module   string
	name     string
	exportAs string
	params   []api.ValueType
	results  []api.ValueType
}

type localFunc struct {
	exportAs string
	params   []api.ValueType
	results  []api.ValueType
	body     []byte
}

type globalImport struct {
	module   string
	name     string
	exportAs string
	valType  api.ValueType
	mutable  bool
}

type localGlobal struct {
	exportAs string
	valType  api.ValueType
	mutable  bool
	initBits uint64
}

type limits struct {
	min    uint32
	max    uint32
	hasMax bool
}

type extImport struct {
	module   string
	name     string
	exportAs string
	limits   limits
}

// ModuleBuilder assembles a core WebAssembly module out of imported and
// locally defined entities, re-exporting each one that carries an export
// name. At most one table and one memory are supported, which is all the
// harness ever synthesizes.
type ModuleBuilder struct {
	tableImport   *extImport
	memoryImport  *extImport
	localTable    *limits
	localMemory   *limits
	funcImports   []funcImport
	funcs         []localFunc
	globalImports []globalImport
	globals       []localGlobal
	tableExport   string
	memoryExport  string
	startFunc     int
}

// NewModuleBuilder creates an empty builder.
func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{startFunc: -1}
}

// ImportFunc imports a function and, when exportAs is non-empty, re-exports
// it under that name.
func (b *ModuleBuilder) ImportFunc(module, name, exportAs string, params, results []api.ValueType) {
	b.funcImports = append(b.funcImports, funcImport{
		module:   module,
		name:     name,
		exportAs: exportAs,
		params:   params,
		results:  results,
	})
}

// AddFunc defines a local function. The body holds instruction bytes without
// the trailing end opcode; the builder appends it. Local func indices start
// after all imported functions.
func (b *ModuleBuilder) AddFunc(exportAs string, params, results []api.ValueType, body ...byte) {
	b.funcs = append(b.funcs, localFunc{
		exportAs: exportAs,
		params:   params,
		results:  results,
		body:     body,
	})
}

// ImportGlobal imports a global and optionally re-exports it.
func (b *ModuleBuilder) ImportGlobal(module, name, exportAs string, valType api.ValueType, mutable bool) {
	b.globalImports = append(b.globalImports, globalImport{
		module:   module,
		name:     name,
		exportAs: exportAs,
		valType:  valType,
		mutable:  mutable,
	})
}

// AddGlobal defines a local global initialized from raw bits of its type.
func (b *ModuleBuilder) AddGlobal(exportAs string, valType api.ValueType, mutable bool, initBits uint64) {
	b.globals = append(b.globals, localGlobal{
		exportAs: exportAs,
		valType:  valType,
		mutable:  mutable,
		initBits: initBits,
	})
}

// ImportTable imports a funcref table and re-exports it.
func (b *ModuleBuilder) ImportTable(module, name, exportAs string, min uint32) {
	b.tableImport = &extImport{module: module, name: name, exportAs: exportAs, limits: limits{min: min}}
}

// AddTable defines a local funcref table.
func (b *ModuleBuilder) AddTable(exportAs string, min, max uint32, hasMax bool) {
	b.localTable = &limits{min: min, max: max, hasMax: hasMax}
	b.tableExport = exportAs
}

// ImportMemory imports a memory and re-exports it.
func (b *ModuleBuilder) ImportMemory(module, name, exportAs string, min uint32) {
	b.memoryImport = &extImport{module: module, name: name, exportAs: exportAs, limits: limits{min: min}}
}

// AddMemory defines a local memory.
func (b *ModuleBuilder) AddMemory(exportAs string, min, max uint32, hasMax bool) {
	b.localMemory = &limits{min: min, max: max, hasMax: hasMax}
	b.memoryExport = exportAs
}

// SetStart marks the local function at index idx (within the local function
// list) as the module's start function.
func (b *ModuleBuilder) SetStart(idx int) {
	b.startFunc = idx
}

// Build assembles the module bytes. An empty builder yields a valid empty
// module consisting of just the preamble.
func (b *ModuleBuilder) Build() []byte {
	out := make([]byte, 0, 256)
	out = append(out, magicVersion...)

	hasFuncs := len(b.funcImports)+len(b.funcs) > 0

	if hasFuncs {
		out = b.appendSection(out, secType, b.typeSection())
	}
	if imports := b.importSection(); imports != nil {
		out = b.appendSection(out, secImport, imports)
	}
	if len(b.funcs) > 0 {
		out = b.appendSection(out, secFunc, b.funcSection())
	}
	if b.localTable != nil {
		out = b.appendSection(out, secTable, b.tableSection())
	}
	if b.localMemory != nil {
		out = b.appendSection(out, secMemory, b.memorySection())
	}
	if len(b.globals) > 0 {
		out = b.appendSection(out, secGlobal, b.globalSection())
	}
	if exports := b.exportSection(); exports != nil {
		out = b.appendSection(out, secExport, exports)
	}
	if b.startFunc >= 0 {
		out = b.appendSection(out, secStart, AppendULEB128(nil, uint32(len(b.funcImports)+b.startFunc)))
	}
	if len(b.funcs) > 0 {
		out = b.appendSection(out, secCode, b.codeSection())
	}

	return out
}

func (b *ModuleBuilder) appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = AppendULEB128(out, uint32(len(body)))
	return append(out, body...)
}

// typeSection emits one function type per function, imports first. No
// deduplication; the harness never synthesizes enough functions to care.
func (b *ModuleBuilder) typeSection() []byte {
	s := AppendULEB128(nil, uint32(len(b.funcImports)+len(b.funcs)))
	emit := func(params, results []api.ValueType) {
		s = append(s, 0x60)
		s = AppendULEB128(s, uint32(len(params)))
		for _, t := range params {
			s = append(s, encodeValType(t))
		}
		s = AppendULEB128(s, uint32(len(results)))
		for _, t := range results {
			s = append(s, encodeValType(t))
		}
	}
	for _, f := range b.funcImports {
		emit(f.params, f.results)
	}
	for _, f := range b.funcs {
		emit(f.params, f.results)
	}
	return s
}

func appendName(s []byte, name string) []byte {
	s = AppendULEB128(s, uint32(len(name)))
	return append(s, name...)
}

func appendLimits(s []byte, l limits) []byte {
	if l.hasMax {
		s = append(s, 0x01)
		s = AppendULEB128(s, l.min)
		return AppendULEB128(s, l.max)
	}
	s = append(s, 0x00)
	return AppendULEB128(s, l.min)
}

func (b *ModuleBuilder) importSection() []byte {
	count := len(b.funcImports) + len(b.globalImports)
	if b.tableImport != nil {
		count++
	}
	if b.memoryImport != nil {
		count++
	}
	if count == 0 {
		return nil
	}

	s := AppendULEB128(nil, uint32(count))

	for i, f := range b.funcImports {
		s = appendName(s, f.module)
		s = appendName(s, f.name)
		s = append(s, kindFunc)
		s = AppendULEB128(s, uint32(i))
	}
	if t := b.tableImport; t != nil {
		s = appendName(s, t.module)
		s = appendName(s, t.name)
		s = append(s, kindTable, 0x70)
		s = appendLimits(s, t.limits)
	}
	if m := b.memoryImport; m != nil {
		s = appendName(s, m.module)
		s = appendName(s, m.name)
		s = append(s, kindMemory)
		s = appendLimits(s, m.limits)
	}
	for _, g := range b.globalImports {
		s = appendName(s, g.module)
		s = appendName(s, g.name)
		s = append(s, kindGlobal, encodeValType(g.valType))
		if g.mutable {
			s = append(s, 0x01)
		} else {
			s = append(s, 0x00)
		}
	}

	return s
}

func (b *ModuleBuilder) funcSection() []byte {
	s := AppendULEB128(nil, uint32(len(b.funcs)))
	for i := range b.funcs {
		s = AppendULEB128(s, uint32(len(b.funcImports)+i))
	}
	return s
}

func (b *ModuleBuilder) tableSection() []byte {
	s := []byte{0x01, 0x70}
	return appendLimits(s, *b.localTable)
}

func (b *ModuleBuilder) memorySection() []byte {
	s := []byte{0x01}
	return appendLimits(s, *b.localMemory)
}

func (b *ModuleBuilder) globalSection() []byte {
	s := AppendULEB128(nil, uint32(len(b.globals)))
	for _, g := range b.globals {
		s = append(s, encodeValType(g.valType))
		if g.mutable {
			s = append(s, 0x01)
		} else {
			s = append(s, 0x00)
		}
		switch g.valType {
		case api.ValueTypeI64:
			s = append(s, 0x42)
			s = AppendSLEB128(s, int64(g.initBits))
		case api.ValueTypeF32:
			s = append(s, 0x43)
			s = binary.LittleEndian.AppendUint32(s, uint32(g.initBits))
		case api.ValueTypeF64:
			s = append(s, 0x44)
			s = binary.LittleEndian.AppendUint64(s, g.initBits)
		default:
			s = append(s, 0x41)
			s = AppendSLEB128(s, int32(uint32(g.initBits)))
		}
		s = append(s, opEnd)
	}
	return s
}

func (b *ModuleBuilder) exportSection() []byte {
	type export struct {
		name string
		kind byte
		idx  uint32
	}
	var exports []export

	for i, f := range b.funcImports {
		if f.exportAs != "" {
			exports = append(exports, export{f.exportAs, kindFunc, uint32(i)})
		}
	}
	for i, f := range b.funcs {
		if f.exportAs != "" {
			exports = append(exports, export{f.exportAs, kindFunc, uint32(len(b.funcImports) + i)})
		}
	}
	if t := b.tableImport; t != nil && t.exportAs != "" {
		exports = append(exports, export{t.exportAs, kindTable, 0})
	}
	if b.localTable != nil && b.tableExport != "" {
		exports = append(exports, export{b.tableExport, kindTable, 0})
	}
	if m := b.memoryImport; m != nil && m.exportAs != "" {
		exports = append(exports, export{m.exportAs, kindMemory, 0})
	}
	if b.localMemory != nil && b.memoryExport != "" {
		exports = append(exports, export{b.memoryExport, kindMemory, 0})
	}
	for i, g := range b.globalImports {
		if g.exportAs != "" {
			exports = append(exports, export{g.exportAs, kindGlobal, uint32(i)})
		}
	}
	for i, g := range b.globals {
		if g.exportAs != "" {
			exports = append(exports, export{g.exportAs, kindGlobal, uint32(len(b.globalImports) + i)})
		}
	}

	if len(exports) == 0 {
		return nil
	}

	s := AppendULEB128(nil, uint32(len(exports)))
	for _, e := range exports {
		s = appendName(s, e.name)
		s = append(s, e.kind)
		s = AppendULEB128(s, e.idx)
	}
	return s
}

func (b *ModuleBuilder) codeSection() []byte {
	s := AppendULEB128(nil, uint32(len(b.funcs)))
	for _, f := range b.funcs {
		body := make([]byte, 0, len(f.body)+2)
		body = append(body, 0x00) // no locals
		body = append(body, f.body...)
		body = append(body, opEnd)
		s = AppendULEB128(s, uint32(len(body)))
		s = append(s, body...)
	}
	return s
}
