package wasm

import (
	"math"
	"testing"

	"github.com/tetratelabs/wazero/api"
)

func TestParseGlobalExports(t *testing.T) {
	b := NewModuleBuilder()
	b.AddGlobal("a", api.ValueTypeI32, false, 1)
	b.AddGlobal("b", api.ValueTypeF64, true, math.Float64bits(2.5))
	b.AddGlobal("", api.ValueTypeI64, false, 3) // unexported

	globals := ParseGlobalExports(b.Build())
	if len(globals) != 2 {
		t.Fatalf("expected 2 exported globals, got %d", len(globals))
	}
	if globals[0].Name != "a" || globals[0].ValType != api.ValueTypeI32 || globals[0].Mutable {
		t.Errorf("unexpected first global: %+v", globals[0])
	}
	if globals[1].Name != "b" || globals[1].ValType != api.ValueTypeF64 || !globals[1].Mutable {
		t.Errorf("unexpected second global: %+v", globals[1])
	}
}

func TestParseGlobalExportsFloatInitWithEndByte(t *testing.T) {
	// 2.4203e-320 has an 0x0b byte inside its f64 immediate; a scanner that
	// hunts for the end opcode instead of decoding the expression misparses
	// everything after it.
	tricky := uint64(0x0b0b)
	b := NewModuleBuilder()
	b.AddGlobal("tricky", api.ValueTypeF64, false, tricky)
	b.AddGlobal("after", api.ValueTypeI32, false, 9)

	globals := ParseGlobalExports(b.Build())
	if len(globals) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(globals))
	}
	if globals[1].Name != "after" || globals[1].ValType != api.ValueTypeI32 {
		t.Errorf("global after float immediate misparsed: %+v", globals[1])
	}
}

func TestParseGlobalExportsWithImports(t *testing.T) {
	// Imported globals occupy the front of the index space.
	b := NewModuleBuilder()
	b.ImportGlobal("other", "x", "x", api.ValueTypeI64, false)
	b.AddGlobal("y", api.ValueTypeI32, false, 5)

	globals := ParseGlobalExports(b.Build())
	if len(globals) != 2 {
		t.Fatalf("expected 2 globals, got %d", len(globals))
	}
	if globals[0].Name != "x" || globals[0].ValType != api.ValueTypeI64 {
		t.Errorf("imported global misattributed: %+v", globals[0])
	}
	if globals[1].Name != "y" || globals[1].ValType != api.ValueTypeI32 {
		t.Errorf("local global misattributed: %+v", globals[1])
	}
}

func TestParseTableExports(t *testing.T) {
	b := NewModuleBuilder()
	b.AddTable("tab", 10, 20, true)

	tables := ParseTableExports(b.Build())
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	tab := tables[0]
	if tab.Name != "tab" || tab.Min != 10 || !tab.HasMax || tab.Max != 20 {
		t.Errorf("unexpected table export: %+v", tab)
	}
}

func TestParseTableExportsNoMax(t *testing.T) {
	b := NewModuleBuilder()
	b.AddTable("t", 3, 0, false)

	tables := ParseTableExports(b.Build())
	if len(tables) != 1 || tables[0].HasMax {
		t.Fatalf("expected one table without max, got %+v", tables)
	}
	if tables[0].Min != 3 {
		t.Errorf("min = %d, want 3", tables[0].Min)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if got := ParseGlobalExports([]byte("short")); got != nil {
		t.Errorf("expected nil for garbage, got %+v", got)
	}
	if got := ParseTableExports(nil); got != nil {
		t.Errorf("expected nil for nil input, got %+v", got)
	}
}
