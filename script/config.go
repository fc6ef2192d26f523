package script

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/wasm-spectest/errors"
)

// RunConfig configures a suite run.
type RunConfig struct {
	// Dir is the directory holding the script JSON files and the .wasm
	// modules they reference.
	Dir string `yaml:"dir"`
	// SoftValidate turns assert_soft_invalid directives into real checks.
	SoftValidate bool `yaml:"soft_validate"`
	// Skip lists script file names (base names) to leave out of a run.
	Skip []string `yaml:"skip"`
}

// LoadConfig reads a YAML run configuration.
func LoadConfig(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInternal, err, "read config")
	}
	var cfg RunConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseScript, errors.KindInternal, err, "parse config")
	}
	return &cfg, nil
}

// Skipped reports whether the script file is on the skip list.
func (c *RunConfig) Skipped(file string) bool {
	base := filepath.Base(file)
	for _, s := range c.Skip {
		if s == base {
			return true
		}
	}
	return false
}
