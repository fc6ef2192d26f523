package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dir: suite/json
soft_validate: true
skip:
  - simd_lane.wast.json
  - names.wast.json
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "suite/json", cfg.Dir)
	assert.True(t, cfg.SoftValidate)
	assert.Len(t, cfg.Skip, 2)

	assert.True(t, cfg.Skipped("names.wast.json"))
	assert.True(t, cfg.Skipped("/abs/path/names.wast.json"))
	assert.False(t, cfg.Skipped("address.wast.json"))
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("dir: [unterminated"), 0o644))
	_, err = LoadConfig(bad)
	require.Error(t, err)
}
