package harness

import (
	"context"
	"testing"
)

// Runner reports directive outcomes to an external test framework. Run
// registers one case under name; the case passes when fn returns nil.
// The harness imposes no ordering across cases beyond calling Run in
// directive order; whether cases run inline or later is the runner's
// business.
type Runner interface {
	Run(name string, fn func(ctx context.Context) error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(name string, fn func(ctx context.Context) error)

func (f RunnerFunc) Run(name string, fn func(ctx context.Context) error) {
	f(name, fn)
}

// TRunner reports directives as subtests of T.
type TRunner struct {
	T *testing.T
}

func (r TRunner) Run(name string, fn func(ctx context.Context) error) {
	r.T.Run(name, func(t *testing.T) {
		if err := fn(context.Background()); err != nil {
			t.Fatal(err)
		}
	})
}
