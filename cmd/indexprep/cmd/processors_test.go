package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
)

func TestProcessorsCmd_Table(t *testing.T) {
	// Given: a config enabling role_filter and aggregated_field
	dir := isolateEnv(t)
	cfg := writeFile(t, dir, "indexprep.yaml", testConfig)

	// When: listing processors
	stdout, _, err := execute(t, "processors", "--config", cfg)

	// Then: every processor is listed with its kind, weight and state
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "DESCRIPTION")

	rows := make(map[string][]string)
	for _, l := range lines[1:] {
		fields := strings.Fields(l)
		rows[fields[0]] = fields
	}
	assert.Equal(t, []string{"role_filter", "filter", "-10", "yes"}, rows["role_filter"][:4])
	assert.Equal(t, []string{"aggregated_field", "transform", "-5", "yes"}, rows["aggregated_field"][:4])
	assert.Equal(t, []string{"ignore_character", "transform", "0", "yes"}, rows["ignore_character"][:4])
}

func TestProcessorsCmd_DisabledByDefault(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := execute(t, "processors")

	require.NoError(t, err)
	for _, l := range strings.Split(stdout, "\n") {
		if strings.HasPrefix(l, "role_filter") {
			assert.NotContains(t, l, "yes")
		}
	}
}

func TestProcessorsCmd_Detail(t *testing.T) {
	dir := isolateEnv(t)
	cfg := writeFile(t, dir, "indexprep.yaml", testConfig)

	stdout, _, err := execute(t, "processors", "--config", cfg, "role_filter")

	require.NoError(t, err)
	assert.Contains(t, stdout, "Role filter")
	assert.Contains(t, stdout, "filter")
	assert.Contains(t, stdout, "true")
	assert.Contains(t, stdout, "-10")
	assert.Contains(t, stdout, "Filters out users based on their role.")
	assert.NotContains(t, stdout, "aggregated_field")
}

func TestProcessorsCmd_UnknownID(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "processors", "stemmer")

	require.Error(t, err)
	assert.Equal(t, amerrors.ErrCodeUnknownProcessor, amerrors.GetCode(err))
}
