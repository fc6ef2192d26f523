package harness

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-spectest/engine"
	"github.com/wippyai/wasm-spectest/errors"
	"github.com/wippyai/wasm-spectest/wasm"
)

// Config carries per-suite behavior switches.
type Config struct {
	// SoftValidate enables assert_soft_invalid checking. When false, those
	// directives pass unconditionally. Engine leniency shim, preserved as
	// configuration.
	SoftValidate bool
}

// Harness drives one engine for one suite run. It is not safe for
// concurrent use; a registration racing an instantiation has no defined
// order.
type Harness struct {
	eng      *engine.Engine
	runner   Runner
	cfg      Config
	registry map[string]*engine.Instance
	bound    map[string]boundEntry
	owned    []ownedModule
	seq      int
}

// boundEntry tracks the alias module materializing one registry name in the
// engine namespace, so a later rebind can replace it.
type boundEntry struct {
	alias *engine.Instance
	mod   *engine.Module
	src   *engine.Instance
}

// ownedModule pairs an instance with the compiled module it came from, so
// Close can release the compiled code once the instance is gone.
type ownedModule struct {
	inst *engine.Instance
	mod  *engine.Module
}

// New creates a harness with a fresh engine and a registry seeded with the
// builtin "spectest" module.
func New(ctx context.Context, runner Runner, cfg Config) (*Harness, error) {
	eng, err := engine.New(ctx)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		eng:      eng,
		runner:   runner,
		cfg:      cfg,
		registry: make(map[string]*engine.Instance),
		bound:    make(map[string]boundEntry),
	}

	host, err := h.instantiate(ctx, wasm.HostModule())
	if err != nil {
		_ = eng.Close(ctx)
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInternal, err, "seed builtin module")
	}
	if err := h.Register(ctx, wasm.HostModuleName, host); err != nil {
		_ = eng.Close(ctx)
		return nil, err
	}

	Logger().Debug("harness ready",
		zap.Bool("soft_validate", cfg.SoftValidate),
		zap.String("exhaustion_category", eng.ExhaustionCategory()))
	return h, nil
}

// Close releases everything the harness instantiated, then the engine.
func (h *Harness) Close(ctx context.Context) error {
	for name := range h.bound {
		_ = h.unbind(ctx, name)
	}
	for _, o := range h.owned {
		_ = o.inst.Close(ctx)
		_ = o.mod.Close(ctx)
	}
	h.owned = nil
	return h.eng.Close(ctx)
}

// Engine exposes the underlying engine.
func (h *Harness) Engine() *engine.Engine {
	return h.eng
}

// Lookup finds a registered instance by namespace name.
func (h *Harness) Lookup(name string) (*engine.Instance, bool) {
	inst, ok := h.registry[name]
	return inst, ok
}

// Registry returns a snapshot of the current name bindings.
func (h *Harness) Registry() Imports {
	out := make(Imports, len(h.registry))
	for name, inst := range h.registry {
		out[name] = inst
	}
	return out
}

// BuildModule checks the payload's validity verdict against expectValid and,
// on a match, compiles it. On the expected-invalid path the engine's own
// rejection is forwarded unchanged so handlers can assert on its category;
// a verdict mismatch is reported as a harness failure, with a best-effort
// compile attached for its richer diagnostic.
func (h *Harness) BuildModule(ctx context.Context, moduleBytes []byte, expectValid bool) (*engine.Module, error) {
	valid, err := h.eng.Validate(ctx, moduleBytes)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseValidate, errors.KindInternal, err, "validator misbehaved")
	}

	if valid != expectValid {
		if expectValid {
			_, cerr := h.eng.Compile(ctx, moduleBytes)
			return nil, errors.Wrap(errors.PhaseValidate, errors.KindInternal, cerr,
				"module rejected but expected valid")
		}
		return nil, errors.Internal(errors.PhaseValidate, "module accepted but expected invalid")
	}

	mod, err := h.eng.Compile(ctx, moduleBytes)
	if err != nil {
		if expectValid {
			return nil, errors.Wrap(errors.PhaseCompile, errors.KindInternal, err,
				"validated module failed to compile")
		}
		return nil, err
	}
	if !expectValid {
		// The validator said invalid but the compiler accepted: the verdicts
		// disagree, which is the harness's problem, not the directive's.
		_ = mod.Close(ctx)
		return nil, errors.Internal(errors.PhaseCompile, "invalid module compiled anyway")
	}
	return mod, nil
}

// BuildInstance compiles the payload, resolves imports from src (the
// harness registry when src is nil), and instantiates. The steps run in
// that order; the first rejection short-circuits the rest. Bindings made
// for a one-off source last only for this instantiation; the registry
// stays the sole cross-module wiring afterwards.
func (h *Harness) BuildInstance(ctx context.Context, moduleBytes []byte, src ImportSource) (*engine.Instance, error) {
	mod, err := h.BuildModule(ctx, moduleBytes, true)
	if err != nil {
		return nil, err
	}

	if src == nil {
		src = h
	}
	imports, err := src.resolve(ctx)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, errors.Wrap(errors.PhaseInstantiate, errors.KindInternal, err, "resolve imports")
	}

	_, registryScoped := src.(*Harness)
	var scoped []string
	for name, inst := range imports {
		if err := h.bind(ctx, name, inst); err != nil {
			_ = h.restoreAll(ctx, scoped)
			_ = mod.Close(ctx)
			return nil, err
		}
		if !registryScoped {
			scoped = append(scoped, name)
		}
	}

	inst, ierr := mod.Instantiate(ctx, "")
	rerr := h.restoreAll(ctx, scoped)
	if ierr != nil {
		_ = mod.Close(ctx)
		return nil, ierr
	}
	if rerr != nil {
		_ = inst.Close(ctx)
		_ = mod.Close(ctx)
		return nil, rerr
	}

	h.owned = append(h.owned, ownedModule{inst: inst, mod: mod})
	return inst, nil
}

// instantiate is BuildInstance without an import source, for payloads the
// harness synthesized itself.
func (h *Harness) instantiate(ctx context.Context, moduleBytes []byte) (*engine.Instance, error) {
	mod, err := h.eng.Compile(ctx, moduleBytes)
	if err != nil {
		return nil, err
	}
	inst, err := mod.Instantiate(ctx, "")
	if err != nil {
		_ = mod.Close(ctx)
		return nil, err
	}
	h.owned = append(h.owned, ownedModule{inst: inst, mod: mod})
	return inst, nil
}

// Register binds inst's exports under name for all later instantiations.
// Re-registering a name replaces the previous binding; modules already
// linked against it are unaffected.
func (h *Harness) Register(ctx context.Context, name string, inst *engine.Instance) error {
	if err := h.bind(ctx, name, inst); err != nil {
		return err
	}
	h.registry[name] = inst
	return nil
}

// Call invokes an exported function of a built instance.
func (h *Harness) Call(ctx context.Context, inst *engine.Instance, fn string, args ...engine.Value) ([]engine.Value, error) {
	return inst.Call(ctx, fn, args...)
}

// Get reads an exported global of a built instance.
func (h *Harness) Get(inst *engine.Instance, name string) (engine.Value, error) {
	return inst.Global(name)
}

// bind materializes (name -> inst's exports) in the engine namespace by
// synthesizing a module that imports everything inst exports, under inst's
// unique engine name, and re-exports it under the public one.
func (h *Harness) bind(ctx context.Context, name string, inst *engine.Instance) error {
	if prev, ok := h.bound[name]; ok {
		if prev.src == inst {
			return nil
		}
		if err := h.unbind(ctx, name); err != nil {
			return err
		}
	}

	aliasBytes, err := aliasModule(inst)
	if err != nil {
		return err
	}
	mod, err := h.eng.Compile(ctx, aliasBytes)
	if err != nil {
		return errors.Wrap(errors.PhaseInstantiate, errors.KindInternal, err, "compile export binding")
	}
	alias, err := mod.Instantiate(ctx, name)
	if err != nil {
		_ = mod.Close(ctx)
		return errors.Wrap(errors.PhaseInstantiate, errors.KindInternal, err, "bind exports")
	}

	h.bound[name] = boundEntry{alias: alias, mod: mod, src: inst}
	return nil
}

// unbind removes name's alias from the engine namespace and releases it.
func (h *Harness) unbind(ctx context.Context, name string) error {
	entry, ok := h.bound[name]
	if !ok {
		return nil
	}
	delete(h.bound, name)
	if err := entry.alias.Close(ctx); err != nil {
		return errors.Wrap(errors.PhaseInstantiate, errors.KindInternal, err, "unbind previous instance")
	}
	return entry.mod.Close(ctx)
}

// restoreAll puts each name back to its registry binding, or unbinds it when
// the name was never registered.
func (h *Harness) restoreAll(ctx context.Context, names []string) error {
	var first error
	for _, name := range names {
		var err error
		if reg, ok := h.registry[name]; ok {
			err = h.bind(ctx, name, reg)
		} else {
			err = h.unbind(ctx, name)
		}
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// aliasModule synthesizes the re-export module for bind.
func aliasModule(inst *engine.Instance) ([]byte, error) {
	ex := inst.Exports()
	from := inst.Name()

	b := wasm.NewModuleBuilder()
	for _, f := range ex.Funcs {
		b.ImportFunc(from, f.Name, f.Name, f.Params, f.Results)
	}
	for _, g := range ex.Globals {
		b.ImportGlobal(from, g.Name, g.Name, g.ValType, g.Mutable)
	}
	if len(ex.Tables) > 1 || len(ex.Memories) > 1 {
		return nil, errors.Internal(errors.PhaseInstantiate,
			"cannot rebind %s: multiple tables or memories", from)
	}
	for _, t := range ex.Tables {
		b.ImportTable(from, t.Name, t.Name, t.Min)
	}
	for _, m := range ex.Memories {
		b.ImportMemory(from, m.Name, m.Name, m.Min)
	}
	return b.Build(), nil
}
