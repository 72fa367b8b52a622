package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsAndResolution(t *testing.T) {
	dir := t.TempDir()
	casePath := filepath.Join(dir, "case.json")
	require.NoError(t, os.WriteFile(casePath, []byte("{}"), 0o644))

	path := writeConfig(t, dir, `
case_file: case.json
consensus:
  agents: 4
  max_rounds: 50
`)
	cfg, warns, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, warns)

	assert.Equal(t, casePath, cfg.CaseFile)
	assert.Equal(t, 100, cfg.Scenarios.Count)
	assert.Equal(t, uint64(1), cfg.Scenarios.Seed)
	assert.Equal(t, 4, cfg.Consensus.Agents)
	assert.Equal(t, 50, cfg.Consensus.MaxRounds)
}

func TestLoadUnknownKeysWarn(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
case_file: /tmp/case.json
scenarios:
  count: 10
  histogram: true
typo_section: 1
`)
	_, warns, err := Load(path)
	require.NoError(t, err)
	require.Len(t, warns, 2)
	joined := warns[0] + " " + warns[1]
	assert.Contains(t, joined, "typo_section")
	assert.Contains(t, joined, "scenarios.histogram")
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	_, _, err := Load(writeConfig(t, dir, "scenarios:\n  count: 5\n"))
	assert.Error(t, err, "case_file is required")

	_, _, err = Load(writeConfig(t, dir, "case_file: c.json\nscenarios:\n  correlation: 1.5\n"))
	assert.Error(t, err)

	_, _, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadUncheckedSkipsValidation(t *testing.T) {
	dir := t.TempDir()
	cfg, _, err := LoadUnchecked(writeConfig(t, dir, "scenarios:\n  count: 5\n"))
	require.NoError(t, err)
	assert.Equal(t, "", cfg.CaseFile)
	assert.Equal(t, 5, cfg.Scenarios.Count)
}
