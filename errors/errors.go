package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred.
type Phase string

const (
	PhaseDecode      Phase = "decode"      // byte-payload decoding
	PhaseValidate    Phase = "validate"    // validator verdict
	PhaseCompile     Phase = "compile"     // parse+compile
	PhaseInstantiate Phase = "instantiate" // linking and start execution
	PhaseInvoke      Phase = "invoke"      // exported function calls
	PhaseProbe       Phase = "probe"       // exhaustion-category detection
	PhaseScript      Phase = "script"      // script loading and dispatch
)

// Kind is the category a directive asserts on.
type Kind string

const (
	KindCompile    Kind = "compile_error" // malformed or invalid bytes
	KindLink       Kind = "link_error"    // unsatisfiable imports
	KindRuntime    Kind = "runtime_error" // trap, including start traps
	KindExhaustion Kind = "exhaustion"    // resource exhaustion (probed)
	KindInternal   Kind = "internal"      // harness plumbing failure
)

// Error is the structured error type used throughout the harness.
// Engine errors are forwarded wrapped in an Error so their category is
// preserved; harness-internal failures carry KindInternal and are therefore
// distinguishable from anything the engine reports.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by phase and kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// New constructs an error with a formatted detail message.
func New(phase Phase, kind Kind, detail string, args ...any) *Error {
	if len(args) > 0 {
		detail = fmt.Sprintf(detail, args...)
	}
	return &Error{Phase: phase, Kind: kind, Detail: detail}
}

// Wrap wraps an existing error with a phase, kind, and context message.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{Phase: phase, Kind: kind, Detail: detail, Cause: cause}
}

// Internal is shorthand for a harness-internal failure.
func Internal(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInternal, detail, args...)
}

// KindOf extracts the category of err, or KindInternal if err carries none.
// A nil err has no kind and returns the empty string.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given category.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
