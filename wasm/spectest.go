package wasm

import (
	"math"

	"github.com/tetratelabs/wazero/api"
)

// HostModuleName is the namespace under which the builtin test module is
// registered in every harness context.
const HostModuleName = "spectest"

// HostModule returns the binary of the builtin "spectest" module: no-op
// print functions, the numeric globals (666 in each type), a funcref table,
// and one memory. Print output is intentionally discarded; conformance
// scripts only care that the imports link and that calls do not trap.
func HostModule() []byte {
	i32 := api.ValueTypeI32
	i64 := api.ValueTypeI64
	f32 := api.ValueTypeF32
	f64 := api.ValueTypeF64

	b := NewModuleBuilder()
	b.AddFunc("print", nil, nil)
	b.AddFunc("print_i32", []api.ValueType{i32}, nil)
	b.AddFunc("print_i64", []api.ValueType{i64}, nil)
	b.AddFunc("print_f32", []api.ValueType{f32}, nil)
	b.AddFunc("print_f64", []api.ValueType{f64}, nil)
	b.AddFunc("print_i32_f32", []api.ValueType{i32, f32}, nil)
	b.AddFunc("print_f64_f64", []api.ValueType{f64, f64}, nil)

	b.AddGlobal("global", i32, false, 666)
	b.AddGlobal("global_i32", i32, false, 666)
	b.AddGlobal("global_i64", i64, false, 666)
	b.AddGlobal("global_f32", f32, false, uint64(math.Float32bits(666.6)))
	b.AddGlobal("global_f64", f64, false, math.Float64bits(666.6))

	b.AddTable("table", 10, 20, true)
	b.AddMemory("memory", 1, 2, true)

	return b.Build()
}

// RecursionProbe returns a module whose exported "f" calls itself without
// bound. Calling it overflows the call stack, which is how the engine learns
// the platform's exhaustion error category at startup.
func RecursionProbe() []byte {
	b := NewModuleBuilder()
	b.AddFunc("f", nil, nil, OpCall, 0x00)
	return b.Build()
}
