package guard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigResolvesToBlock(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.resolve())
	assert.Equal(t, Block, cfg.globalStrategy)
}

func TestLoadFromFileParsesYAML(t *testing.T) {
	content := []byte(`
dialect: postgres
strategy: WARN
policy:
  deniedTables: ["secrets"]
  maxPageSize: 500
rules:
  write-safety.dummy-condition:
    strategy: BLOCK
  admin.metadata-statement:
    disabled: true
    strategy: INHERIT
`)
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, Warn, cfg.globalStrategy)
	assert.Equal(t, []string{"secrets"}, cfg.Policy.DeniedTables)
	assert.EqualValues(t, 500, cfg.Policy.MaxPageSize)

	require.Contains(t, cfg.Rules, "write-safety.dummy-condition")
	assert.Equal(t, Block, cfg.Rules["write-safety.dummy-condition"].Strategy)

	require.Contains(t, cfg.Rules, "admin.metadata-statement")
	assert.True(t, cfg.Rules["admin.metadata-statement"].Disabled)
}

func TestLoadFromFileRejectsUnknownStrategy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: NONSENSE\n"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestLoadFromFileMissingFile(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadFromFileAcceptsTrailingWildcard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  deniedTables: [\"tmp_*\"]\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"tmp_*"}, cfg.Policy.DeniedTables)
}

func TestLoadFromFileRejectsMisplacedWildcard(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  deniedTables: [\"tmp_*_bak\"]\n"), 0o644))

	_, err := LoadFromFile(path)
	require.Error(t, err)
}

func TestLoadFromFileParsesEnforceForAllQueries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enforceForAllQueries: true\n"), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.EnforceForAllQueries)
}
