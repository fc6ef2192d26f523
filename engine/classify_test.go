package engine

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/wasm-spectest/errors"
)

func TestIsTrap(t *testing.T) {
	if !isTrap(stderrors.New("wasm error: unreachable\nwasm stack trace:\n\t.f()")) {
		t.Error("trap text not recognized")
	}
	if !isTrap(fmt.Errorf("module closed: %w", sys.NewExitError(7))) {
		t.Error("exit error not recognized")
	}
	if isTrap(stderrors.New(`module[m] not instantiated`)) {
		t.Error("link failure misread as trap")
	}
}

func TestExhaustionMarker(t *testing.T) {
	err := stderrors.New("failed to invoke f: wasm error: stack overflow\nwasm stack trace:\n\t.f()")
	if got := exhaustionMarker(err); got != "stack overflow" {
		t.Errorf("marker = %q", got)
	}

	// Stack exhaustion comes back without the trap prefix; the first line
	// is the category then.
	if got := exhaustionMarker(stderrors.New("stack overflow")); got != "stack overflow" {
		t.Errorf("marker = %q", got)
	}
	if got := exhaustionMarker(stderrors.New("stack overflow\nwasm stack trace:\n\t.f()")); got != "stack overflow" {
		t.Errorf("marker = %q", got)
	}

	// No trailing newline after the category line.
	if got := exhaustionMarker(stderrors.New("wasm error: stack overflow")); got != "stack overflow" {
		t.Errorf("marker = %q", got)
	}
}

func TestClassifyCallUsesProbedCategory(t *testing.T) {
	e := &Engine{exhaustion: "stack overflow"}

	err := e.classifyCall(stderrors.New("wasm error: stack overflow\nwasm stack trace:"))
	if kind := errors.KindOf(err); kind != errors.KindExhaustion {
		t.Errorf("kind = %s", kind)
	}

	err = e.classifyCall(stderrors.New("wasm error: unreachable\nwasm stack trace:"))
	if kind := errors.KindOf(err); kind != errors.KindRuntime {
		t.Errorf("kind = %s", kind)
	}
}
