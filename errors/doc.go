// Package errors provides the categorized error taxonomy of the harness.
//
// Errors carry a Phase (where in the pipeline they occurred) and a Kind
// (the category a directive asserts on). The five kinds mirror the outcome
// classes of the conformance directives:
//
//	KindCompile    - bytes failed to parse or validate
//	KindLink       - imports could not be satisfied at instantiation
//	KindRuntime    - a trap, including traps during start execution
//	KindExhaustion - the platform's resource-exhaustion category
//	KindInternal   - the harness itself misbehaved
//
// Handlers inspect categories via KindOf/IsKind instead of matching on
// message text. All errors support stdlib errors.Is/As and unwrap to the
// engine's original error when one exists.
package errors
