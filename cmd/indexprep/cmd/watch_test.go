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

func TestWatchCmd_ReprocessesOnInputChange(t *testing.T) {
	// Given: a running watch over a batch
	dir := isolateEnv(t)
	input := writeFile(t, dir, "items.yaml", testBatch)
	cfg := writeFile(t, dir, "indexprep.yaml", testConfig)
	out := filepath.Join(dir, "out.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		_, _, err := executeContext(ctx, t, "watch", "--config", cfg, "-i", input, "-o", out)
		done <- err
	}()

	readOut := func() string {
		data, err := os.ReadFile(out)
		if err != nil {
			return ""
		}
		return string(data)
	}
	require.Eventually(t, func() bool {
		return strings.Contains(readOut(), "entity:user/1:en")
	}, 5*time.Second, 20*time.Millisecond, "initial run did not write output")
	// Let the watcher register before changing the input.
	time.Sleep(300 * time.Millisecond)

	// When: a user is added to the input
	added := testBatch + `  - id: "entity:user/3:en"
    datasource: "entity:user"
    source: {type: user, id: "3", roles: [authenticated]}
    fields:
      "entity:user|name": {type: string, values: ["Carol"]}
`
	require.NoError(t, os.WriteFile(input, []byte(added), 0o644))

	// Then: the output is regenerated
	require.Eventually(t, func() bool {
		return strings.Contains(readOut(), "entity:user/3:en")
	}, 5*time.Second, 20*time.Millisecond, "watch did not reprocess")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCmd_KeepsPreviousConfigWhenReloadFails(t *testing.T) {
	// Given: a running watch whose config drops the blocked user
	dir := isolateEnv(t)
	input := writeFile(t, dir, "items.yaml", testBatch)
	cfg := writeFile(t, dir, "indexprep.yaml", testConfig)
	out := filepath.Join(dir, "out.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	type result struct {
		stderr string
		err    error
	}
	done := make(chan result, 1)
	go func() {
		_, stderr, err := executeContext(ctx, t, "watch", "--config", cfg, "-i", input, "-o", out)
		done <- result{stderr, err}
	}()

	readOut := func() string {
		data, err := os.ReadFile(out)
		if err != nil {
			return ""
		}
		return string(data)
	}
	require.Eventually(t, func() bool {
		return strings.Contains(readOut(), "entity:user/1:en")
	}, 5*time.Second, 20*time.Millisecond, "initial run did not write output")
	time.Sleep(300 * time.Millisecond)

	// When: the config is broken and then the input changes
	require.NoError(t, os.WriteFile(cfg, []byte("processors: [\n"), 0o644))
	time.Sleep(200 * time.Millisecond)
	added := testBatch + `  - id: "entity:user/3:en"
    datasource: "entity:user"
    source: {type: user, id: "3", roles: [authenticated]}
    fields:
      "entity:user|name": {type: string, values: ["Carol"]}
`
	require.NoError(t, os.WriteFile(input, []byte(added), 0o644))

	// Then: the input is reprocessed with the previous role filter
	require.Eventually(t, func() bool {
		return strings.Contains(readOut(), "entity:user/3:en")
	}, 5*time.Second, 20*time.Millisecond, "watch did not reprocess")
	assert.NotContains(t, readOut(), "entity:user/2:en")

	cancel()
	select {
	case res := <-done:
		assert.NoError(t, res.err)
		assert.Contains(t, res.stderr, "keeping the previous one")
	case <-time.After(3 * time.Second):
		t.Fatal("watch did not stop after cancel")
	}
}

func TestWatchCmd_RequiresOutput(t *testing.T) {
	dir := isolateEnv(t)
	input := writeFile(t, dir, "items.yaml", testBatch)

	_, _, err := execute(t, "watch", "-i", input)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "output")
}
