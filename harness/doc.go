// Package harness turns conformance directives into engine calls and
// categorized assertions.
//
// A Harness owns a registry of named instances, seeded with the builtin
// "spectest" module, and offers the directive handlers the reference test
// suite is written in terms of: AssertInvalid, AssertMalformed,
// AssertSoftInvalid, AssertUnlinkable, AssertUninstantiable, AssertTrap,
// AssertExhaustion, AssertReturn, AssertReturnNaN. Each handler registers
// exactly one case with the Runner and checks the engine's outcome category
// against the directive's expectation.
//
// The harness owns no validation or execution semantics. It drives the
// engine as a black box and asserts only on what it observes: the error
// kinds of package errors and returned values under same-value comparison.
package harness
