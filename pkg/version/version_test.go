package version

import (
	"encoding/json"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_FollowsSemverOrDev(t *testing.T) {
	// Given: the version package is imported

	// When: accessing Version

	// Then: it is "dev" or a semver string injected by ldflags
	if Version == "dev" {
		return
	}
	semverRegex := regexp.MustCompile(`^\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	require.True(t, semverRegex.MatchString(Version), "Version should follow semver format, got: %s", Version)
}

func TestString_ReturnsFormattedString(t *testing.T) {
	// When: calling String()
	str := String()

	// Then: it names the program and carries build info
	assert.Contains(t, str, "indexprep "+Version)
	assert.Contains(t, str, "commit:")
	assert.Contains(t, str, runtime.Version())
}

func TestShort_ReturnsVersion(t *testing.T) {
	assert.Equal(t, Version, Short())
}

func TestGetInfo_JSON(t *testing.T) {
	// Given: the build info
	info := GetInfo()

	// When: encoding it as JSON
	data, err := json.Marshal(info)
	require.NoError(t, err)

	// Then: snake_case keys and the platform are present
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "indexprep", decoded["name"])
	assert.Equal(t, runtime.GOOS, decoded["os"])
	assert.Equal(t, runtime.GOARCH, decoded["arch"])
	assert.Contains(t, decoded, "go_version")
	assert.NotEmpty(t, decoded["commit"])
}

func TestGetInfo_LdflagsCommitWins(t *testing.T) {
	old := Commit
	Commit = "abc1234"
	defer func() { Commit = old }()

	assert.Equal(t, "abc1234", GetInfo().Commit)
}
