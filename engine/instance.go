package engine

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-spectest/errors"
)

// Instance is one running module registered in the engine's namespace.
type Instance struct {
	eng     *Engine
	mod     api.Module
	name    string
	exports Exports
}

// Name returns the name the instance is registered under.
func (i *Instance) Name() string {
	return i.name
}

// Exports lists the instance's exports.
func (i *Instance) Exports() Exports {
	return i.exports
}

// Call invokes the exported function fn. Arguments are checked against the
// signature; a mismatch is an internal error, not a trap. Trap and
// exhaustion failures come back classified.
func (i *Instance) Call(ctx context.Context, fn string, args ...Value) ([]Value, error) {
	f := i.mod.ExportedFunction(fn)
	if f == nil {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInternal, "no exported function %q in %s", fn, i.name)
	}

	def := f.Definition()
	params := def.ParamTypes()
	if len(args) != len(params) {
		return nil, errors.New(errors.PhaseInvoke, errors.KindInternal,
			"%s.%s takes %d arguments, got %d", i.name, fn, len(params), len(args))
	}

	raw := make([]uint64, len(args))
	for idx, a := range args {
		if a.Type != params[idx] {
			return nil, errors.New(errors.PhaseInvoke, errors.KindInternal,
				"%s.%s argument %d: have %s, want %s",
				i.name, fn, idx, api.ValueTypeName(a.Type), api.ValueTypeName(params[idx]))
		}
		raw[idx] = a.Bits
	}

	results, err := f.Call(ctx, raw...)
	if err != nil {
		return nil, i.eng.classifyCall(err)
	}

	types := def.ResultTypes()
	out := make([]Value, len(results))
	for idx, bits := range results {
		out[idx] = Value{Type: types[idx], Bits: bits}
	}
	return out, nil
}

// Global reads the exported global name.
func (i *Instance) Global(name string) (Value, error) {
	g := i.mod.ExportedGlobal(name)
	if g == nil {
		return Value{}, errors.New(errors.PhaseInvoke, errors.KindInternal, "no exported global %q in %s", name, i.name)
	}
	return Value{Type: g.Type(), Bits: g.Get()}, nil
}

// Close removes the instance from the runtime namespace, releasing its name
// for re-registration.
func (i *Instance) Close(ctx context.Context) error {
	return i.mod.Close(ctx)
}
