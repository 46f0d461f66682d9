package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testLog = `{"time":"2026-01-02T10:00:00Z","level":"DEBUG","msg":"batch_decoded","items":2}
{"time":"2026-01-02T10:00:01Z","level":"INFO","msg":"pipeline_run_complete","removed":1}
{"time":"2026-01-02T10:00:02Z","level":"WARN","msg":"watcher_error"}
`

func TestLogsCmd_TailWithFilters(t *testing.T) {
	// Given: a log file
	dir := isolateEnv(t)
	path := writeFile(t, dir, "indexprep.log", testLog)

	// When: viewing info and above
	stdout, _, err := execute(t, "logs", "--file", path, "--level", "info", "--no-color")

	// Then: the debug entry is hidden
	require.NoError(t, err)
	assert.NotContains(t, stdout, "batch_decoded")
	assert.Contains(t, stdout, "INFO  pipeline_run_complete removed=1")
	assert.Contains(t, stdout, "WARN  watcher_error")
}

func TestLogsCmd_LinesAndPattern(t *testing.T) {
	dir := isolateEnv(t)
	path := writeFile(t, dir, "indexprep.log", testLog)

	stdout, _, err := execute(t, "logs", "--file", path, "-n", "2", "--pattern", "pipeline_")

	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(stdout, "\n"))
	assert.Contains(t, stdout, "pipeline_run_complete")
}

func TestLogsCmd_InvalidPattern(t *testing.T) {
	dir := isolateEnv(t)
	path := writeFile(t, dir, "indexprep.log", testLog)

	_, _, err := execute(t, "logs", "--file", path, "--pattern", "(")

	assert.Error(t, err)
}

func TestLogsCmd_NoLogFile(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "logs")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no log file found")
}

func TestLogsCmd_FollowStopsOnCancel(t *testing.T) {
	// Given: a log file being followed
	dir := isolateEnv(t)
	path := writeFile(t, dir, "indexprep.log", testLog)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := executeContext(ctx, t, "logs", "--file", path, "-f", "-n", "0")
		done <- err
	}()

	// When: appending and cancelling
	time.Sleep(200 * time.Millisecond)
	f, err := os.OpenFile(filepath.Clean(path), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString(`{"level":"INFO","msg":"appended"}` + "\n")
	require.NoError(t, f.Close())
	time.Sleep(300 * time.Millisecond)
	cancel()

	// Then: the command returns without error
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("logs -f did not stop")
	}
}
