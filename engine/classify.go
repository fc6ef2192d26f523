package engine

import (
	stderrors "errors"
	"strings"

	"github.com/tetratelabs/wazero/sys"

	"github.com/wippyai/wasm-spectest/errors"
)

// classifyInstantiate splits instantiation failures into runtime errors
// (a trapping start section) and link errors (everything else: missing
// modules, missing exports, signature mismatches).
func classifyInstantiate(err error) error {
	if isTrap(err) {
		return errors.Wrap(errors.PhaseInstantiate, errors.KindRuntime, err, "start section trapped")
	}
	return errors.Wrap(errors.PhaseInstantiate, errors.KindLink, err, "instantiate module")
}

// classifyCall splits invocation failures into exhaustion and plain traps,
// using the category the startup probe detected.
func (e *Engine) classifyCall(err error) error {
	if e.exhaustion != "" && strings.Contains(err.Error(), e.exhaustion) {
		return errors.Wrap(errors.PhaseInvoke, errors.KindExhaustion, err, "call exhausted resources")
	}
	return errors.Wrap(errors.PhaseInvoke, errors.KindRuntime, err, "call trapped")
}

// isTrap reports whether err originated inside running wasm code, as opposed
// to the host-side linking machinery. Guest exits count as traps.
func isTrap(err error) bool {
	var exit *sys.ExitError
	if stderrors.As(err, &exit) {
		return true
	}
	return strings.Contains(err.Error(), "wasm error:")
}

// exhaustionMarker extracts the failure category from a trap error: the text
// after "wasm error: " up to the end of that line. Stack exhaustion skips
// that prefix and reports a bare "stack overflow", so without it the first
// line of the message is the category.
func exhaustionMarker(err error) string {
	msg := err.Error()

	const prefix = "wasm error: "
	if i := strings.Index(msg, prefix); i >= 0 {
		msg = msg[i+len(prefix):]
	}
	if nl := strings.IndexByte(msg, '\n'); nl >= 0 {
		msg = msg[:nl]
	}
	return strings.TrimSpace(msg)
}
