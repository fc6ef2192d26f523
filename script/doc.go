// Package script runs wast2json conversions of the reference test suite.
//
// A script is the JSON file wast2json emits next to the .wasm modules it
// extracts: a list of commands (module, register, action, assert_*), each
// with a source line number. The runner feeds the commands through a
// harness.Harness and collects one Result per command into a Report.
//
// Commands the engine cannot express are skipped, not failed: text-form
// payloads (module_type "text") and values outside the four numeric types.
package script
