package harness

import (
	"context"

	"github.com/wippyai/wasm-spectest/engine"
)

// Imports maps a module namespace to the instance whose exports satisfy it.
type Imports map[string]*engine.Instance

// ImportSource supplies the import namespaces for an instantiation. Three
// implementations exist: a *Harness (its live registry), Static (a fixed
// mapping), and Deferred (a producer resolved only once the module bytes
// have compiled).
type ImportSource interface {
	resolve(ctx context.Context) (Imports, error)
}

// Static is a fixed import mapping.
type Static Imports

func (s Static) resolve(context.Context) (Imports, error) {
	return Imports(s), nil
}

// Deferred resolves its imports lazily, after module compilation succeeds.
// Use it when the providing instance is itself still being built.
type Deferred func(ctx context.Context) (Imports, error)

func (d Deferred) resolve(ctx context.Context) (Imports, error) {
	return d(ctx)
}

// The harness's own registry acts as the default import source. Registered
// names are already bound in the engine namespace, so nothing extra needs
// binding here.
func (h *Harness) resolve(context.Context) (Imports, error) {
	return nil, nil
}

// ExportsOf stages an instance for import resolution under a single
// namespace name.
func ExportsOf(name string, inst *engine.Instance) Imports {
	return Imports{name: inst}
}
