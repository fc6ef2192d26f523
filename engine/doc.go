// Package engine adapts wazero for conformance testing.
//
// Engine compiles and instantiates core WebAssembly modules and classifies
// every failure into the shared error taxonomy: compile errors, link errors,
// runtime traps, and resource exhaustion. The exhaustion category is not
// hard-coded; New probes it at startup by running an unbounded recursion and
// remembering how the runtime reports that failure.
//
// Instances live in a shared runtime namespace. Instantiating a module under
// a name makes its exports importable by later modules; closing the instance
// releases the name again.
package engine
