package engine

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-spectest/wasm"
)

// Module is a compiled module ready to instantiate.
type Module struct {
	eng      *Engine
	compiled wazero.CompiledModule
	bytes    []byte
}

// FuncExport describes one exported function signature.
type FuncExport struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// MemoryExport describes an exported memory with its page limits.
type MemoryExport struct {
	Name   string
	Min    uint32
	Max    uint32
	HasMax bool
}

// Exports summarizes everything a module exports, enough to synthesize a
// module that imports all of it. Each slice is sorted by name.
type Exports struct {
	Funcs    []FuncExport
	Globals  []wasm.GlobalExport
	Tables   []wasm.TableExport
	Memories []MemoryExport
}

// Exports lists the module's exports. Function and memory signatures come
// from the compiled module; global and table details are not exposed by the
// runtime API and are read from the raw bytes instead.
func (m *Module) Exports() Exports {
	var ex Exports

	for name, def := range m.compiled.ExportedFunctions() {
		ex.Funcs = append(ex.Funcs, FuncExport{
			Name:    name,
			Params:  def.ParamTypes(),
			Results: def.ResultTypes(),
		})
	}
	sort.Slice(ex.Funcs, func(i, j int) bool { return ex.Funcs[i].Name < ex.Funcs[j].Name })

	for name, def := range m.compiled.ExportedMemories() {
		max, hasMax := def.Max()
		ex.Memories = append(ex.Memories, MemoryExport{
			Name:   name,
			Min:    def.Min(),
			Max:    max,
			HasMax: hasMax,
		})
	}
	sort.Slice(ex.Memories, func(i, j int) bool { return ex.Memories[i].Name < ex.Memories[j].Name })

	ex.Globals = wasm.ParseGlobalExports(m.bytes)
	ex.Tables = wasm.ParseTableExports(m.bytes)
	sort.Slice(ex.Globals, func(i, j int) bool { return ex.Globals[i].Name < ex.Globals[j].Name })
	sort.Slice(ex.Tables, func(i, j int) bool { return ex.Tables[i].Name < ex.Tables[j].Name })

	return ex
}

// Instantiate links the module against the runtime namespace and runs its
// start section. An empty name gets a fresh unique one; a non-empty name
// additionally makes the instance's exports importable under that name.
// Failures are classified: unsatisfiable imports are link errors, a trapping
// start section is a runtime error.
func (m *Module) Instantiate(ctx context.Context, name string) (*Instance, error) {
	if name == "" {
		name = m.eng.nextName()
	}

	// WithStartFunctions with no arguments clears the default "_start"
	// convention; conformance modules run only their start section.
	cfg := wazero.NewModuleConfig().WithName(name).WithStartFunctions()

	inst, err := m.eng.runtime.InstantiateModule(ctx, m.compiled, cfg)
	if err != nil {
		return nil, classifyInstantiate(err)
	}
	return &Instance{eng: m.eng, mod: inst, name: name, exports: m.Exports()}, nil
}

// Close releases the compiled code. Instances created from the module are
// unaffected.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}
