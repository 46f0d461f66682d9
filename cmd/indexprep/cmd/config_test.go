package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexprep/configs"
	"github.com/Aman-CERP/indexprep/internal/config"
	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
)

func TestConfigInit_CreatesUserConfigFromTemplate(t *testing.T) {
	// Given: no user config
	isolateEnv(t)

	// When: running config init
	stdout, _, err := execute(t, "config", "init")

	// Then: the template is written to the user config path
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created configuration")

	data, err := os.ReadFile(config.GetUserConfigPath())
	require.NoError(t, err)
	assert.Equal(t, configs.ConfigTemplate, string(data))
}

func TestConfigInit_ExistingWithoutForce(t *testing.T) {
	dir := isolateEnv(t)
	path := writeFile(t, dir, ".indexprep.yaml", "logging: {level: debug}\n")

	stdout, _, err := execute(t, "config", "init", "--project")

	require.NoError(t, err)
	assert.Contains(t, stdout, "already exists")
	data, _ := os.ReadFile(path)
	assert.Equal(t, "logging: {level: debug}\n", string(data))
}

func TestConfigInit_ForceBacksUpAndPreservesSettings(t *testing.T) {
	// Given: an existing project config with a custom setting
	dir := isolateEnv(t)
	path := writeFile(t, dir, ".indexprep.yaml", "logging: {level: debug}\n")

	// When: forcing an upgrade
	stdout, _, err := execute(t, "config", "init", "--project", "--force")

	// Then: a backup exists and the rewritten file keeps the setting and
	// gains the defaults
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration upgraded")

	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	require.Len(t, backups, 1)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := config.Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Processors.IgnoreCharacter.Enabled)
	assert.Contains(t, string(data), "ignore_character:")
}

func TestConfigShow_YAMLWithSources(t *testing.T) {
	dir := isolateEnv(t)
	writeFile(t, dir, ".indexprep.yaml", "sink: {backend: sqlite, path: x.db}\n")

	stdout, _, err := execute(t, "config", "show")

	require.NoError(t, err)
	assert.Contains(t, stdout, "# source: ")
	assert.Contains(t, stdout, "backend: sqlite")
}

func TestConfigShow_JSONDefaults(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "config", "show", "--defaults", "--json")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	processors := got["processors"].(map[string]any)
	ic := processors["ignore_character"].(map[string]any)
	assert.Equal(t, true, ic["enabled"])
	assert.Equal(t, "['¿¡!?,.:;]", ic["ignorable"])
}

func TestConfigPath(t *testing.T) {
	dir := isolateEnv(t)

	stdout, _, err := execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "xdg", "indexprep", "config.yaml"), strings.TrimSpace(stdout))

	stdout, _, err = execute(t, "config", "path", "--project")
	require.NoError(t, err)
	assert.Equal(t, ".indexprep.yaml", filepath.Base(strings.TrimSpace(stdout)))
}

func TestConfigRestore_NewestBackup(t *testing.T) {
	// Given: a project config upgraded with --force and then edited
	dir := isolateEnv(t)
	path := writeFile(t, dir, ".indexprep.yaml", "logging: {level: debug}\n")
	_, _, err := execute(t, "config", "init", "--project", "--force")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte("logging: {level: error}\n"), 0o644))

	// When: restoring without naming a backup
	stdout, _, err := execute(t, "config", "restore", "--project")

	// Then: the original file is back and the edited one was backed up
	require.NoError(t, err)
	assert.Contains(t, stdout, "Configuration restored")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "logging: {level: debug}\n", string(data))

	backups, err := config.ListBackups(path)
	require.NoError(t, err)
	assert.NotEmpty(t, backups)
}

func TestConfigRestore_ExplicitBackup(t *testing.T) {
	dir := isolateEnv(t)
	path := writeFile(t, dir, ".indexprep.yaml", "logging: {level: error}\n")
	backup := writeFile(t, dir, "saved.yaml", "logging: {level: warn}\n")

	_, _, err := execute(t, "config", "restore", "--project", "--backup", backup)

	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "logging: {level: warn}\n", string(data))
}

func TestConfigRestore_NoBackups(t *testing.T) {
	dir := isolateEnv(t)
	writeFile(t, dir, ".indexprep.yaml", "logging: {level: debug}\n")

	_, _, err := execute(t, "config", "restore", "--project")

	require.Error(t, err)
	assert.Equal(t, amerrors.ErrCodeConfigNotFound, amerrors.GetCode(err))
}
