package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testBatch = `items:
  - id: "entity:user/1:en"
    datasource: "entity:user"
    source: {type: user, id: "1", roles: [authenticated]}
    fields:
      "entity:user|name": {type: string, values: ["Alice!"]}
      "entity:user|mail": {type: string, values: ["alice@example.com"]}
      "search_api_aggregation_1": {type: string}
  - id: "entity:user/2:en"
    datasource: "entity:user"
    source: {type: user, id: "2", roles: [authenticated, blocked]}
    fields:
      "entity:user|name": {type: string, values: ["Bob"]}
      "search_api_aggregation_1": {type: string}
`

const testConfig = `version: 1
index:
  id: users
  datasources: ["entity:user"]
processors:
  role_filter:
    enabled: true
    include_selected: true
    roles: [blocked]
  aggregated_field:
    enabled: true
    fields:
      search_api_aggregation_1:
        label: Name and mail
        type: concatenation
        fields: ["entity:user|name", "entity:user|mail"]
watch:
  debounce: 50ms
`

// isolateEnv keeps user config and INDEXPREP_* variables of the host out of
// the test and runs it in a fresh working directory.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
	t.Setenv("HOME", filepath.Join(dir, "home"))
	for _, v := range []string{"INDEXPREP_LOG_LEVEL", "INDEXPREP_WORKERS", "INDEXPREP_SINK_BACKEND", "INDEXPREP_SINK_PATH", "NO_COLOR"} {
		t.Setenv(v, "")
	}
	t.Chdir(dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return executeContext(context.Background(), t, args...)
}

func executeContext(ctx context.Context, t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}
