package harness

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wippyai/wasm-spectest/engine"
	"github.com/wippyai/wasm-spectest/errors"
)

// Action produces the values a behavioral assertion checks, usually by
// calling an exported function or reading an exported global.
type Action func(ctx context.Context) ([]engine.Value, error)

// run registers one directive case with the runner. fn runs exactly once;
// a panic inside it fails the case instead of taking down the run.
func (h *Harness) run(directive, desc string, fn func(ctx context.Context) error) {
	h.seq++
	name := desc
	if name == "" {
		name = fmt.Sprintf("%s_%d", directive, h.seq)
	}
	h.runner.Run(name, func(ctx context.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = errors.Internal(errors.PhaseScript, "directive panicked: %v", r)
			}
		}()
		return fn(ctx)
	})
}

// expectKind checks that err carries exactly the asserted category.
func expectKind(err error, want errors.Kind) error {
	if err == nil {
		return fmt.Errorf("operation succeeded, want %s", want)
	}
	if got := errors.KindOf(err); got != want {
		return fmt.Errorf("got %s, want %s (%v)", got, want, err)
	}
	return nil
}

// AssertInvalid checks that the payload is rejected with a compile error.
func (h *Harness) AssertInvalid(desc string, moduleBytes []byte) {
	h.run("assert_invalid", desc, func(ctx context.Context) error {
		_, err := h.BuildModule(ctx, moduleBytes, false)
		return expectKind(err, errors.KindCompile)
	})
}

// AssertMalformed checks that the payload is rejected with a compile error.
// The engine does not distinguish malformed from invalid, and neither does
// the assertion.
func (h *Harness) AssertMalformed(desc string, moduleBytes []byte) {
	h.run("assert_malformed", desc, func(ctx context.Context) error {
		_, err := h.BuildModule(ctx, moduleBytes, false)
		return expectKind(err, errors.KindCompile)
	})
}

// AssertSoftInvalid behaves like AssertInvalid when Config.SoftValidate is
// set and passes unconditionally otherwise.
func (h *Harness) AssertSoftInvalid(desc string, moduleBytes []byte) {
	h.run("assert_soft_invalid", desc, func(ctx context.Context) error {
		if !h.cfg.SoftValidate {
			return nil
		}
		_, err := h.BuildModule(ctx, moduleBytes, false)
		return expectKind(err, errors.KindCompile)
	})
}

// AssertUnlinkable checks that instantiating the payload against the
// registry fails with a link error.
func (h *Harness) AssertUnlinkable(desc string, moduleBytes []byte) {
	h.run("assert_unlinkable", desc, func(ctx context.Context) error {
		_, err := h.BuildInstance(ctx, moduleBytes, nil)
		return expectKind(err, errors.KindLink)
	})
}

// AssertUninstantiable checks that instantiation fails with a runtime error,
// i.e. the start section traps.
func (h *Harness) AssertUninstantiable(desc string, moduleBytes []byte) {
	h.run("assert_uninstantiable", desc, func(ctx context.Context) error {
		_, err := h.BuildInstance(ctx, moduleBytes, nil)
		return expectKind(err, errors.KindRuntime)
	})
}

// AssertTrap checks that the action fails with a runtime error.
func (h *Harness) AssertTrap(desc string, action Action) {
	h.run("assert_trap", desc, func(ctx context.Context) error {
		_, err := action(ctx)
		return expectKind(err, errors.KindRuntime)
	})
}

// AssertExhaustion checks that the action fails with the platform's
// resource-exhaustion category, the one the engine probed at startup.
func (h *Harness) AssertExhaustion(desc string, action Action) {
	h.run("assert_exhaustion", desc, func(ctx context.Context) error {
		_, err := action(ctx)
		return expectKind(err, errors.KindExhaustion)
	})
}

// AssertReturn checks that the action resolves with exactly the expected
// values under same-value comparison: +0 and -0 differ, a NaN equals a NaN
// of the same type.
func (h *Harness) AssertReturn(desc string, action Action, want ...engine.Value) {
	h.run("assert_return", desc, func(ctx context.Context) error {
		got, err := action(ctx)
		if err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
		return sameValues(got, want)
	})
}

// AssertReturnNaN checks that the action resolves with a single
// floating-point NaN of any payload.
func (h *Harness) AssertReturnNaN(desc string, action Action) {
	h.run("assert_return_nan", desc, func(ctx context.Context) error {
		got, err := action(ctx)
		if err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
		if len(got) != 1 {
			return fmt.Errorf("have %d results, want 1", len(got))
		}
		if !got[0].IsNaN() {
			return fmt.Errorf("have %v, want NaN", got[0])
		}
		return nil
	})
}

func sameValues(got, want []engine.Value) error {
	if len(got) != len(want) {
		return fmt.Errorf("have %s, want %s", formatValues(got), formatValues(want))
	}
	for i := range want {
		if !got[i].Same(want[i]) {
			return fmt.Errorf("result %d: have %v, want %v (all: have %s, want %s)",
				i, got[i], want[i], formatValues(got), formatValues(want))
		}
	}
	return nil
}

func formatValues(vals []engine.Value) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = v.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// MessageCheck matches an error message either literally or as a pattern.
type MessageCheck interface {
	match(msg string) bool
	String() string
}

type exactMessage string

func (e exactMessage) match(msg string) bool { return msg == string(e) }
func (e exactMessage) String() string        { return fmt.Sprintf("%q", string(e)) }

// Exact matches the message literally.
func Exact(s string) MessageCheck { return exactMessage(s) }

type patternMessage struct{ re *regexp.Regexp }

func (p patternMessage) match(msg string) bool { return p.re.MatchString(msg) }
func (p patternMessage) String() string        { return fmt.Sprintf("pattern %v", p.re) }

// Pattern matches the message against a regular expression.
func Pattern(re *regexp.Regexp) MessageCheck { return patternMessage{re} }

// AssertErrorMessage invokes fn synchronously and checks that it fails with
// the given category and a message accepted by check. Not failing at all
// fails the case.
func (h *Harness) AssertErrorMessage(desc string, fn func() error, kind errors.Kind, check MessageCheck) {
	h.run("assert_error_message", desc, func(context.Context) error {
		err := fn()
		if err == nil {
			return fmt.Errorf("no error raised, want %s matching %s", kind, check)
		}
		if got := errors.KindOf(err); got != kind {
			return fmt.Errorf("got %s, want %s (%v)", got, kind, err)
		}
		if !check.match(err.Error()) {
			return fmt.Errorf("message %q does not match %s", err.Error(), check)
		}
		return nil
	})
}
