package script

import (
	"encoding/json"
	"os"

	"github.com/wippyai/wasm-spectest/errors"
)

// Script is one wast2json output file.
type Script struct {
	SourceFilename string    `json:"source_filename"`
	Commands       []Command `json:"commands"`
}

// Command is one entry of the script's command list. Which fields are set
// depends on Type.
type Command struct {
	Type       string       `json:"type"`
	Line       int          `json:"line"`
	Name       string       `json:"name,omitempty"`
	As         string       `json:"as,omitempty"`
	Filename   string       `json:"filename,omitempty"`
	ModuleType string       `json:"module_type,omitempty"`
	Text       string       `json:"text,omitempty"`
	Action     *Invocation  `json:"action,omitempty"`
	Expected   []TypedValue `json:"expected,omitempty"`
}

// Invocation names an export to drive: "invoke" calls a function, "get"
// reads a global. Module is the $-name of the providing instance, empty for
// the most recent one.
type Invocation struct {
	Type   string       `json:"type"`
	Module string       `json:"module,omitempty"`
	Field  string       `json:"field"`
	Args   []TypedValue `json:"args,omitempty"`
}

// TypedValue is a value literal: the type name plus the raw bits as an
// unsigned decimal string, or a NaN class for expected results. Vector and
// reference values carry non-string payloads; those stay raw and make the
// command skip.
type TypedValue struct {
	Type     string          `json:"type"`
	RawValue json.RawMessage `json:"value,omitempty"`
}

// Lit returns the value literal when it is a plain string.
func (tv TypedValue) Lit() (string, bool) {
	var s string
	if err := json.Unmarshal(tv.RawValue, &s); err != nil {
		return "", false
	}
	return s, true
}

// Load reads and parses one script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInternal, err, "read script")
	}
	return Parse(data)
}

// Parse decodes script JSON.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInternal, err, "parse script")
	}
	return &s, nil
}
