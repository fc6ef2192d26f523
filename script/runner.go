package script

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-spectest/engine"
	"github.com/wippyai/wasm-spectest/errors"
	"github.com/wippyai/wasm-spectest/harness"
)

// Runner executes script files, one fresh harness (and one fresh engine
// namespace) per file.
type Runner struct {
	cfg *RunConfig
}

// NewRunner creates a runner. A nil config means defaults.
func NewRunner(cfg *RunConfig) *Runner {
	if cfg == nil {
		cfg = &RunConfig{}
	}
	return &Runner{cfg: cfg}
}

// ListScripts returns the script files under dir, sorted by name.
func ListScripts(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInternal, err, "list scripts")
	}
	return matches, nil
}

// RunDir runs every script under the configured directory.
func (r *Runner) RunDir(ctx context.Context) ([]*Report, error) {
	files, err := ListScripts(r.cfg.Dir)
	if err != nil {
		return nil, err
	}
	reports := make([]*Report, 0, len(files))
	for _, f := range files {
		report, err := r.RunFile(ctx, f)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// RunFile runs one script file. The returned error covers harness plumbing
// only; directive failures land in the report.
func (r *Runner) RunFile(ctx context.Context, path string) (*Report, error) {
	report := NewReport(filepath.Base(path))
	if r.cfg.Skipped(path) {
		report.add(Result{Name: "file", Status: StatusSkip, Detail: "on skip list"})
		return report, nil
	}

	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	st := &fileState{
		ctx:    ctx,
		dir:    filepath.Dir(path),
		report: report,
		named:  make(map[string]*engine.Instance),
	}
	h, err := harness.New(ctx, st, harness.Config{SoftValidate: r.cfg.SoftValidate})
	if err != nil {
		return nil, err
	}
	defer h.Close(ctx)
	st.h = h

	for i := range s.Commands {
		st.command(ctx, &s.Commands[i])
	}

	pass, fail, skip := report.Counts()
	Logger().Debug("script done",
		zap.String("file", report.File),
		zap.Int("pass", pass), zap.Int("fail", fail), zap.Int("skip", skip))
	return report, nil
}

// fileState is the per-file command interpreter. It doubles as the
// harness.Runner so directive verdicts land in the report with the current
// command's line number.
type fileState struct {
	ctx    context.Context
	h      *harness.Harness
	dir    string
	report *Report
	named  map[string]*engine.Instance
	last   *engine.Instance
	line   int
}

// Run implements harness.Runner: execute the directive inline, record the
// verdict.
func (st *fileState) Run(name string, fn func(ctx context.Context) error) {
	res := Result{Name: name, Line: st.line, Status: StatusPass}
	if err := fn(st.ctx); err != nil {
		res.Status = StatusFail
		res.Detail = err.Error()
	}
	st.report.add(res)
}

func (st *fileState) pass(cmd *Command) {
	st.report.add(Result{Name: cmd.Type, Line: cmd.Line, Status: StatusPass})
}

func (st *fileState) fail(cmd *Command, err error) {
	st.report.add(Result{Name: cmd.Type, Line: cmd.Line, Status: StatusFail, Detail: err.Error()})
}

func (st *fileState) skip(cmd *Command, why string) {
	st.report.add(Result{Name: cmd.Type, Line: cmd.Line, Status: StatusSkip, Detail: why})
}

func (st *fileState) command(ctx context.Context, cmd *Command) {
	st.line = cmd.Line

	switch cmd.Type {
	case "module":
		st.module(ctx, cmd)
	case "register":
		st.register(ctx, cmd)
	case "action":
		st.actionCommand(cmd)
	case "assert_return":
		st.assertReturn(cmd, NaNNone)
	case "assert_return_canonical_nan":
		st.assertReturn(cmd, NaNCanonical)
	case "assert_return_arithmetic_nan":
		st.assertReturn(cmd, NaNArithmetic)
	case "assert_trap":
		if action, ok := st.action(cmd); ok {
			st.h.AssertTrap(cmd.Type, action)
		}
	case "assert_exhaustion":
		if action, ok := st.action(cmd); ok {
			st.h.AssertExhaustion(cmd.Type, action)
		}
	case "assert_invalid":
		st.payloadAssert(cmd, st.h.AssertInvalid)
	case "assert_malformed":
		st.payloadAssert(cmd, st.h.AssertMalformed)
	case "assert_soft_invalid":
		st.payloadAssert(cmd, st.h.AssertSoftInvalid)
	case "assert_unlinkable":
		st.payloadAssert(cmd, st.h.AssertUnlinkable)
	case "assert_uninstantiable":
		st.payloadAssert(cmd, st.h.AssertUninstantiable)
	default:
		st.skip(cmd, "unsupported command")
	}
}

func (st *fileState) module(ctx context.Context, cmd *Command) {
	if cmd.ModuleType == "text" {
		st.skip(cmd, "text module")
		return
	}
	payload, err := st.read(cmd.Filename)
	if err != nil {
		st.fail(cmd, err)
		return
	}
	inst, err := st.h.BuildInstance(ctx, payload, nil)
	if err != nil {
		st.fail(cmd, err)
		return
	}
	st.last = inst
	if cmd.Name != "" {
		st.named[cmd.Name] = inst
	}
	st.pass(cmd)
}

func (st *fileState) register(ctx context.Context, cmd *Command) {
	inst, err := st.instance(cmd.Name)
	if err != nil {
		st.fail(cmd, err)
		return
	}
	if err := st.h.Register(ctx, cmd.As, inst); err != nil {
		st.fail(cmd, err)
		return
	}
	st.pass(cmd)
}

// actionCommand runs an action for its side effect only.
func (st *fileState) actionCommand(cmd *Command) {
	action, ok := st.action(cmd)
	if !ok {
		return
	}
	st.Run(cmd.Type, func(ctx context.Context) error {
		_, err := action(ctx)
		return err
	})
}

func (st *fileState) assertReturn(cmd *Command, class NaNClass) {
	action, ok := st.action(cmd)
	if !ok {
		return
	}

	var exps []Expectation
	if class == NaNNone {
		var err error
		exps, err = parseExpectations(cmd.Expected)
		if err != nil {
			if isUnsupported(err) {
				st.skip(cmd, err.Error())
			} else {
				st.fail(cmd, err)
			}
			return
		}
	} else {
		// Legacy command form: expected entries carry only a float type.
		exps = make([]Expectation, len(cmd.Expected))
		for i, tv := range cmd.Expected {
			t, ok := valueType(tv.Type)
			if !ok {
				st.skip(cmd, "unsupported value type "+tv.Type)
				return
			}
			exps[i] = Expectation{Value: engine.Raw(t, 0), NaN: class}
		}
	}

	if concrete(exps) {
		want := make([]engine.Value, len(exps))
		for i, e := range exps {
			want[i] = e.Value
		}
		st.h.AssertReturn(cmd.Type, action, want...)
		return
	}

	// NaN-class expectations need their own comparison; report it through
	// the same path as the harness directives.
	st.Run(cmd.Type, func(ctx context.Context) error {
		got, err := action(ctx)
		if err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
		if len(got) != len(exps) {
			return fmt.Errorf("have %d results, want %d", len(got), len(exps))
		}
		for i, e := range exps {
			if !e.matches(got[i]) {
				return fmt.Errorf("result %d: have %v, want %s", i, got[i], e)
			}
		}
		return nil
	})
}

func (st *fileState) payloadAssert(cmd *Command, directive func(desc string, moduleBytes []byte)) {
	if cmd.ModuleType == "text" {
		st.skip(cmd, "text module")
		return
	}
	payload, err := st.read(cmd.Filename)
	if err != nil {
		st.fail(cmd, err)
		return
	}
	directive(cmd.Type, payload)
}

// action builds the callable an assertion drives. A false return means the
// command's verdict is already recorded.
func (st *fileState) action(cmd *Command) (harness.Action, bool) {
	inv := cmd.Action
	if inv == nil {
		st.fail(cmd, errors.Internal(errors.PhaseScript, "command carries no action"))
		return nil, false
	}
	inst, err := st.instance(inv.Module)
	if err != nil {
		st.fail(cmd, err)
		return nil, false
	}

	switch inv.Type {
	case "invoke":
		args, err := parseValues(inv.Args)
		if err != nil {
			if isUnsupported(err) {
				st.skip(cmd, err.Error())
			} else {
				st.fail(cmd, err)
			}
			return nil, false
		}
		field := inv.Field
		return func(ctx context.Context) ([]engine.Value, error) {
			return st.h.Call(ctx, inst, field, args...)
		}, true
	case "get":
		field := inv.Field
		return func(ctx context.Context) ([]engine.Value, error) {
			v, err := st.h.Get(inst, field)
			if err != nil {
				return nil, err
			}
			return []engine.Value{v}, nil
		}, true
	default:
		st.skip(cmd, "unsupported action "+inv.Type)
		return nil, false
	}
}

func (st *fileState) instance(name string) (*engine.Instance, error) {
	if name == "" {
		if st.last == nil {
			return nil, errors.Internal(errors.PhaseScript, "no module instantiated yet")
		}
		return st.last, nil
	}
	inst, ok := st.named[name]
	if !ok {
		return nil, errors.Internal(errors.PhaseScript, "unknown module %s", name)
	}
	return inst, nil
}

func (st *fileState) read(name string) ([]byte, error) {
	if name == "" {
		return nil, errors.Internal(errors.PhaseScript, "command carries no module file")
	}
	data, err := os.ReadFile(filepath.Join(st.dir, name))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInternal, err, "read module file")
	}
	return data, nil
}
