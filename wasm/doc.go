// Package wasm provides the minimal WebAssembly binary facilities the
// harness needs: LEB128 encoding, a small module synthesizer, and export
// inspection of raw module bytes.
//
// The synthesizer covers exactly what the harness requires. It builds the
// builtin "spectest" host module, the unbounded-recursion module used to
// probe the platform's exhaustion category, and alias modules that import
// every export of a registered instance and re-export it under a public
// name. It is not a general-purpose assembler.
package wasm
