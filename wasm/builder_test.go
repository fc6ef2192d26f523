package wasm

import (
	"bytes"
	"context"
	"math"
	"testing"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

func TestEmptyBuild(t *testing.T) {
	b := NewModuleBuilder()
	out := b.Build()
	if !bytes.Equal(out, magicVersion) {
		t.Errorf("empty module = %x, want bare preamble", out)
	}

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := rt.CompileModule(ctx, out); err != nil {
		t.Fatalf("empty module does not compile: %v", err)
	}
}

func TestLocalFuncExecutes(t *testing.T) {
	i32 := api.ValueTypeI32
	b := NewModuleBuilder()
	b.AddFunc("add", []api.ValueType{i32, i32}, []api.ValueType{i32},
		OpLocalGet, 0, OpLocalGet, 1, OpI32Add)

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, b.Build())
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	res, err := mod.ExportedFunction("add").Call(ctx, 2, 3)
	if err != nil {
		t.Fatalf("call add: %v", err)
	}
	if res[0] != 5 {
		t.Errorf("add(2,3) = %d, want 5", res[0])
	}
}

func TestGlobalInitBits(t *testing.T) {
	b := NewModuleBuilder()
	b.AddGlobal("gi", api.ValueTypeI32, false, uint64(uint32(0xdeadbeef)))
	b.AddGlobal("gf", api.ValueTypeF64, false, math.Float64bits(666.6))
	b.AddGlobal("gneg", api.ValueTypeI64, true, uint64(0xffffffffffffffff))

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, b.Build())
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}

	if got := mod.ExportedGlobal("gi").Get(); uint32(got) != 0xdeadbeef {
		t.Errorf("gi = %#x, want deadbeef", got)
	}
	if got := math.Float64frombits(mod.ExportedGlobal("gf").Get()); got != 666.6 {
		t.Errorf("gf = %v, want 666.6", got)
	}
	if got := int64(mod.ExportedGlobal("gneg").Get()); got != -1 {
		t.Errorf("gneg = %d, want -1", got)
	}
}

func TestStartSectionRuns(t *testing.T) {
	// Module whose start function traps: instantiation must fail.
	b := NewModuleBuilder()
	b.AddFunc("", nil, nil, OpUnreachable)
	b.SetStart(0)

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	if _, err := rt.Instantiate(ctx, b.Build()); err == nil {
		t.Fatal("expected trap during start")
	}
}

func TestImportReexport(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	src := NewModuleBuilder()
	src.AddFunc("one", nil, []api.ValueType{api.ValueTypeI32}, OpI32Const, 1)
	src.AddGlobal("g", api.ValueTypeI32, false, 7)
	src.AddTable("tab", 4, 8, true)
	src.AddMemory("mem", 1, 2, true)

	srcCompiled, err := rt.CompileModule(ctx, src.Build())
	if err != nil {
		t.Fatalf("compile source: %v", err)
	}
	if _, err := rt.InstantiateModule(ctx, srcCompiled, wazero.NewModuleConfig().WithName("src")); err != nil {
		t.Fatalf("instantiate source: %v", err)
	}

	alias := NewModuleBuilder()
	alias.ImportFunc("src", "one", "one", nil, []api.ValueType{api.ValueTypeI32})
	alias.ImportGlobal("src", "g", "g", api.ValueTypeI32, false)
	alias.ImportTable("src", "tab", "tab", 4)
	alias.ImportMemory("src", "mem", "mem", 1)

	aliasCompiled, err := rt.CompileModule(ctx, alias.Build())
	if err != nil {
		t.Fatalf("compile alias: %v", err)
	}
	mod, err := rt.InstantiateModule(ctx, aliasCompiled, wazero.NewModuleConfig().WithName("alias"))
	if err != nil {
		t.Fatalf("instantiate alias: %v", err)
	}

	res, err := mod.ExportedFunction("one").Call(ctx)
	if err != nil {
		t.Fatalf("call re-exported func: %v", err)
	}
	if res[0] != 1 {
		t.Errorf("one() = %d, want 1", res[0])
	}
	if g := mod.ExportedGlobal("g"); g == nil || g.Get() != 7 {
		t.Error("expected re-exported global g = 7")
	}
	if mod.ExportedMemory("mem") == nil {
		t.Error("expected re-exported memory")
	}
}

func TestHostModuleShape(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, HostModule())
	if err != nil {
		t.Fatalf("host module does not compile: %v", err)
	}
	mod, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(HostModuleName))
	if err != nil {
		t.Fatalf("host module does not instantiate: %v", err)
	}

	for _, name := range []string{"print", "print_i32", "print_i64", "print_f32", "print_f64", "print_i32_f32", "print_f64_f64"} {
		if mod.ExportedFunction(name) == nil {
			t.Errorf("missing export %q", name)
		}
	}
	if g := mod.ExportedGlobal("global_i32"); g == nil || int32(g.Get()) != 666 {
		t.Error("expected global_i32 = 666")
	}
	if g := mod.ExportedGlobal("global_f32"); g == nil || math.Float32frombits(uint32(g.Get())) != 666.6 {
		t.Error("expected global_f32 = 666.6")
	}
	if mod.ExportedMemory("memory") == nil {
		t.Error("expected exported memory")
	}

	// Calling a print export must not trap.
	if _, err := mod.ExportedFunction("print_i32").Call(ctx, 1); err != nil {
		t.Errorf("print_i32 trapped: %v", err)
	}
}

func TestRecursionProbeOverflows(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, RecursionProbe())
	if err != nil {
		t.Fatalf("instantiate probe: %v", err)
	}
	if _, err := mod.ExportedFunction("f").Call(ctx); err == nil {
		t.Fatal("expected unbounded recursion to fail")
	}
}
