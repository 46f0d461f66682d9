package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/indexprep/internal/config"
)

func TestConfigTemplate_DecodesToDefaults(t *testing.T) {
	// Given: the embedded template
	require.NotEmpty(t, ConfigTemplate)

	// When: parsing it
	cfg, err := config.Parse([]byte(ConfigTemplate))

	// Then: it is valid and matches the defaults apart from the index id
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	defaults := config.NewConfig()
	defaults.Index.ID = "default"
	assert.Equal(t, defaults, cfg)
}
