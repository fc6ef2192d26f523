package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-spectest/errors"
	"github.com/wippyai/wasm-spectest/wasm"
)

// Engine wraps one wazero runtime. All modules compiled through an Engine
// share its namespace: an instance registered under a name satisfies imports
// of that name in modules instantiated later.
type Engine struct {
	runtime    wazero.Runtime
	exhaustion string
	counter    atomic.Uint64
}

// New creates an engine and probes how the runtime reports resource
// exhaustion. The probe runs an unbounded recursion once, so New is not
// free; share one Engine across a test run.
func New(ctx context.Context) (*Engine, error) {
	e := &Engine{runtime: wazero.NewRuntime(ctx)}

	marker, err := e.probeExhaustion(ctx)
	if err != nil {
		_ = e.runtime.Close(ctx)
		return nil, err
	}
	e.exhaustion = marker

	Logger().Debug("engine ready", zap.String("exhaustion_category", marker))
	return e, nil
}

// Close releases the runtime and every instance still registered in it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// ExhaustionCategory returns the failure category the startup probe
// detected, e.g. "stack overflow".
func (e *Engine) ExhaustionCategory() string {
	return e.exhaustion
}

// Validate reports whether the module bytes decode and validate. A false
// verdict carries no error; a non-nil error means no verdict was reached.
func (e *Engine) Validate(ctx context.Context, moduleBytes []byte) (bool, error) {
	compiled, err := e.runtime.CompileModule(ctx, moduleBytes)
	if err == nil {
		_ = compiled.Close(ctx)
		return true, nil
	}
	if ctx.Err() != nil {
		return false, errors.Wrap(errors.PhaseValidate, errors.KindInternal, err, "validation interrupted")
	}
	return false, nil
}

// Compile decodes, validates, and compiles module bytes. Failures carry
// KindCompile; the directive layer does not distinguish malformed from
// invalid, and neither does the runtime.
func (e *Engine) Compile(ctx context.Context, moduleBytes []byte) (*Module, error) {
	compiled, err := e.runtime.CompileModule(ctx, moduleBytes)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCompile, errors.KindCompile, err, "compile module")
	}
	return &Module{eng: e, compiled: compiled, bytes: moduleBytes}, nil
}

// nextName hands out unique instance names. Every instance needs one because
// the runtime namespace rejects duplicate registrations.
func (e *Engine) nextName() string {
	return fmt.Sprintf("inst-%d", e.counter.Add(1))
}

// probeExhaustion compiles and calls an unbounded recursion, then extracts
// the runtime's failure category from the resulting error.
func (e *Engine) probeExhaustion(ctx context.Context) (string, error) {
	mod, err := e.Compile(ctx, wasm.RecursionProbe())
	if err != nil {
		return "", errors.Wrap(errors.PhaseProbe, errors.KindInternal, err, "compile probe module")
	}
	defer mod.Close(ctx)

	inst, err := mod.Instantiate(ctx, "")
	if err != nil {
		return "", errors.Wrap(errors.PhaseProbe, errors.KindInternal, err, "instantiate probe module")
	}
	defer inst.Close(ctx)

	// Raw call: classifyCall needs the marker this probe is producing.
	_, err = inst.mod.ExportedFunction("f").Call(ctx)
	if err == nil {
		return "", errors.Internal(errors.PhaseProbe, "unbounded recursion returned without failing")
	}
	marker := exhaustionMarker(err)
	if marker == "" {
		return "", errors.Wrap(errors.PhaseProbe, errors.KindInternal, err, "unrecognized probe failure")
	}
	return marker, nil
}
