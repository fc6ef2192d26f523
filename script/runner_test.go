package script

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-spectest/wasm"
)

// demoModule exports add, boom (traps), recurse (exhausts), and g=41.
func demoModule() []byte {
	i32 := api.ValueTypeI32
	b := wasm.NewModuleBuilder()
	b.AddFunc("add", []api.ValueType{i32, i32}, []api.ValueType{i32},
		wasm.OpLocalGet, 0x00, wasm.OpLocalGet, 0x01, wasm.OpI32Add)
	b.AddFunc("boom", nil, nil, wasm.OpUnreachable)
	b.AddFunc("recurse", nil, nil, wasm.OpCall, 0x02)
	b.AddGlobal("g", i32, false, 41)
	return b.Build()
}

func invalidModule() []byte {
	b := wasm.NewModuleBuilder()
	b.AddFunc("f", nil, []api.ValueType{api.ValueTypeI32})
	return b.Build()
}

func writeScript(t *testing.T, dir string, s *Script) string {
	t.Helper()
	data, err := json.Marshal(s)
	require.NoError(t, err)
	path := filepath.Join(dir, s.SourceFilename+".json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func invoke(module, field string, args ...TypedValue) *Invocation {
	return &Invocation{Type: "invoke", Module: module, Field: field, Args: args}
}

func statuses(rep *Report) []Status {
	out := make([]Status, len(rep.Results))
	for i, r := range rep.Results {
		out[i] = r.Status
	}
	return out
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "demo.0.wasm", demoModule())
	writeFile(t, dir, "demo.1.wasm", invalidModule())
	writeFile(t, dir, "demo.2.wasm", []byte("garbage"))

	s := &Script{
		SourceFilename: "demo.wast",
		Commands: []Command{
			{Type: "module", Line: 1, Filename: "demo.0.wasm"},
			{Type: "assert_return", Line: 2, Action: invoke("", "add", lit("i32", "2"), lit("i32", "3")),
				Expected: []TypedValue{lit("i32", "5")}},
			{Type: "assert_return", Line: 3, Action: invoke("", "add", lit("i32", "2"), lit("i32", "3")),
				Expected: []TypedValue{lit("i32", "6")}},
			{Type: "assert_trap", Line: 4, Action: invoke("", "boom"), Text: "unreachable"},
			{Type: "assert_exhaustion", Line: 5, Action: invoke("", "recurse"), Text: "call stack exhausted"},
			{Type: "assert_return", Line: 6, Action: &Invocation{Type: "get", Field: "g"},
				Expected: []TypedValue{lit("i32", "41")}},
			{Type: "assert_invalid", Line: 7, Filename: "demo.1.wasm"},
			{Type: "assert_malformed", Line: 8, Filename: "demo.2.wasm"},
			{Type: "assert_malformed", Line: 9, Filename: "ignored.wat", ModuleType: "text"},
			{Type: "action", Line: 10, Action: invoke("", "boom")},
		},
	}
	path := writeScript(t, dir, s)

	rep, err := NewRunner(&RunConfig{Dir: dir}).RunFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rep.Results, len(s.Commands))

	assert.Equal(t, []Status{
		StatusPass, // module
		StatusPass, // assert_return 5
		StatusFail, // assert_return 6
		StatusPass, // assert_trap
		StatusPass, // assert_exhaustion
		StatusPass, // get g
		StatusPass, // assert_invalid
		StatusPass, // assert_malformed
		StatusSkip, // text module form
		StatusFail, // bare action that traps
	}, statuses(rep))

	assert.True(t, rep.Failed())
	assert.Contains(t, rep.Results[2].Detail, "i32:5")
	assert.Contains(t, rep.Results[2].Detail, "i32:6")
	assert.Equal(t, 4, rep.Results[3].Line)
}

func TestRunFileNamedModulesAndRegister(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "link.0.wasm", demoModule())

	// consumer imports mod.add and re-exports it.
	i32 := api.ValueTypeI32
	b := wasm.NewModuleBuilder()
	b.ImportFunc("mod", "add", "sum", []api.ValueType{i32, i32}, []api.ValueType{i32})
	writeFile(t, dir, "link.1.wasm", b.Build())

	s := &Script{
		SourceFilename: "link.wast",
		Commands: []Command{
			{Type: "module", Line: 1, Name: "$m", Filename: "link.0.wasm"},
			{Type: "register", Line: 2, Name: "$m", As: "mod"},
			{Type: "module", Line: 3, Filename: "link.1.wasm"},
			{Type: "assert_return", Line: 4, Action: invoke("", "sum", lit("i32", "20"), lit("i32", "22")),
				Expected: []TypedValue{lit("i32", "42")}},
			{Type: "assert_return", Line: 5, Action: invoke("$m", "add", lit("i32", "1"), lit("i32", "1")),
				Expected: []TypedValue{lit("i32", "2")}},
		},
	}
	path := writeScript(t, dir, s)

	rep, err := NewRunner(&RunConfig{Dir: dir}).RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusPass, StatusPass, StatusPass, StatusPass, StatusPass}, statuses(rep))
	assert.False(t, rep.Failed())
}

func TestRunFileSpectestImports(t *testing.T) {
	dir := t.TempDir()

	i32 := api.ValueTypeI32
	b := wasm.NewModuleBuilder()
	b.ImportFunc("spectest", "print_i32", "p", []api.ValueType{i32}, nil)
	b.ImportGlobal("spectest", "global_i32", "spec_global", i32, false)
	writeFile(t, dir, "spec.0.wasm", b.Build())

	s := &Script{
		SourceFilename: "spec.wast",
		Commands: []Command{
			{Type: "module", Line: 1, Filename: "spec.0.wasm"},
			{Type: "action", Line: 2, Action: invoke("", "p", lit("i32", "13"))},
			{Type: "assert_return", Line: 3, Action: &Invocation{Type: "get", Field: "spec_global"},
				Expected: []TypedValue{lit("i32", "666")}},
		},
	}
	path := writeScript(t, dir, s)

	rep, err := NewRunner(nil).RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusPass, StatusPass, StatusPass}, statuses(rep))
}

func TestRunFileSkipsUnsupportedValues(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "simd.0.wasm", demoModule())

	s := &Script{
		SourceFilename: "simd.wast",
		Commands: []Command{
			{Type: "module", Line: 1, Filename: "simd.0.wasm"},
			{Type: "assert_return", Line: 2, Action: &Invocation{
				Type: "invoke", Field: "add",
				Args: []TypedValue{{Type: "v128", RawValue: json.RawMessage(`["1","2","3","4"]`)}},
			}},
		},
	}
	path := writeScript(t, dir, s)

	rep, err := NewRunner(&RunConfig{Dir: dir}).RunFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, []Status{StatusPass, StatusSkip}, statuses(rep))
}

func TestRunFileSkipList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "skipme.0.wasm", demoModule())
	s := &Script{
		SourceFilename: "skipme.wast",
		Commands:       []Command{{Type: "module", Line: 1, Filename: "skipme.0.wasm"}},
	}
	path := writeScript(t, dir, s)

	cfg := &RunConfig{Dir: dir, Skip: []string{"skipme.wast.json"}}
	rep, err := NewRunner(cfg).RunFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, rep.Results, 1)
	assert.Equal(t, StatusSkip, rep.Results[0].Status)
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.0.wasm", demoModule())
	writeScript(t, dir, &Script{
		SourceFilename: "a.wast",
		Commands:       []Command{{Type: "module", Line: 1, Filename: "a.0.wasm"}},
	})
	writeFile(t, dir, "b.0.wasm", demoModule())
	writeScript(t, dir, &Script{
		SourceFilename: "b.wast",
		Commands: []Command{
			{Type: "module", Line: 1, Filename: "b.0.wasm"},
			{Type: "assert_return", Line: 2, Action: invoke("", "add", lit("i32", "1"), lit("i32", "1")),
				Expected: []TypedValue{lit("i32", "2")}},
		},
	})

	reports, err := NewRunner(&RunConfig{Dir: dir}).RunDir(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "a.wast.json", reports[0].File)
	assert.Equal(t, "b.wast.json", reports[1].File)
	for _, rep := range reports {
		assert.False(t, rep.Failed(), rep.Render())
	}
}
