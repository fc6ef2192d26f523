// Package spectest is a WebAssembly conformance-test harness backed by wazero.
//
// It translates the declarative directives of the WebAssembly test suite
// ("these bytes must fail validation", "invoking this export must return this
// value", "this call must trap") into operations against a black-box engine,
// and asserts on the engine's categorized outcomes. The harness owns no
// parsing, validation, or execution semantics of its own.
//
// # Architecture Overview
//
// The repository is organized into flat top-level packages:
//
//	wasm-spectest/
//	├── errors/       Categorized error taxonomy asserted on by directives
//	├── wasm/         Minimal binary synthesis and export inspection
//	├── engine/       wazero adapter: validate, compile, instantiate, invoke
//	├── harness/      Directive handlers, registry context, import sources
//	├── script/       wast2json script loading and suite execution
//	└── cmd/spectest/ CLI with an optional interactive TUI
//
// # Quick Start
//
// Run directives against a fresh harness:
//
//	h, err := harness.New(ctx, harness.TRunner{T: t}, harness.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close(ctx)
//
//	h.AssertMalformed("", []byte("not wasm"))
//	h.AssertReturn("", action, engine.I32(42))
//
// Or run a wast2json-converted suite from disk:
//
//	r := script.NewRunner(&script.RunConfig{Dir: "suite"})
//	report, _ := r.RunFile(ctx, "suite/i32.json")
//	fmt.Print(report.Render())
//
// # Engine Outcomes
//
// Every engine failure is classified into one of five kinds: compile_error,
// link_error, runtime_error, exhaustion, or internal. Directives assert on
// the kind, never on engine message text. The exhaustion category is probed
// at engine startup by deliberately overflowing the call stack, so the
// harness never hardcodes a platform-specific trap message.
package spectest
