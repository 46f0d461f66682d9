package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatJSON_BasicError(t *testing.T) {
	// Given: an error with details and a cause
	err := New(ErrCodeConfigInvalid, "invalid configuration", errors.New("missing parenthesis")).
		WithDetail("processor", "ignore_character")

	// When: formatting as JSON
	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	// Then: all fields are present
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, ErrCodeConfigInvalid, decoded["code"])
	assert.Equal(t, "CONFIG", decoded["category"])
	assert.Equal(t, "ERROR", decoded["severity"])
	assert.Equal(t, "missing parenthesis", decoded["cause"])
	assert.Equal(t, "ignore_character", decoded["details"].(map[string]any)["processor"])
}

func TestFormatJSON_StandardError(t *testing.T) {
	data, err := FormatJSON(errors.New("boom"))
	require.NoError(t, err)
	assert.Contains(t, string(data), ErrCodeInternal)
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	err := New(ErrCodeIndexLocked, "sink is locked", nil).WithSuggestion("retry later")

	result := FormatForCLI(err, false)

	assert.Equal(t, "Error: sink is locked\n  Hint: retry later\n  Code: ERR_206_INDEX_LOCKED\n", result)
}

func TestFormatForCLI_DetailsSortedAndCauseWhenVerbose(t *testing.T) {
	// Given: an error with two details and a cause
	err := New(ErrCodeConfigInvalid, "invalid configuration", errors.New("missing parenthesis")).
		WithDetail("processor", "ignore_character").
		WithDetail("option", "ignorable")

	// Then: details are listed in key order, the cause only when verbose
	quiet := FormatForCLI(err, false)
	assert.Less(t, strings.Index(quiet, "option: ignorable"), strings.Index(quiet, "processor: ignore_character"))
	assert.NotContains(t, quiet, "missing parenthesis")

	assert.Contains(t, FormatForCLI(err, true), "  Cause: missing parenthesis\n")
}

func TestFormatForCLI_StandardAndNil(t *testing.T) {
	result := FormatForCLI(errors.New("something went wrong"), false)

	assert.Contains(t, result, "Error: something went wrong")
	assert.Contains(t, result, "Code: "+ErrCodeInternal)
	assert.Equal(t, "", FormatForCLI(nil, false))
}

func TestLogAttrs_IncludesDetails(t *testing.T) {
	err := New(ErrCodeConfigInvalid, "bad", errors.New("cause")).WithDetail("option", "roles")

	attrs := map[string]string{}
	for _, a := range LogAttrs(err) {
		attrs[a.Key] = a.Value.String()
	}

	assert.Equal(t, ErrCodeConfigInvalid, attrs["error_code"])
	assert.Equal(t, "CONFIG", attrs["category"])
	assert.Equal(t, "cause", attrs["cause"])
	assert.Equal(t, "roles", attrs["detail_option"])
}

func TestLogAttrs_StandardAndNil(t *testing.T) {
	assert.Nil(t, LogAttrs(nil))

	attrs := LogAttrs(fmt.Errorf("wrapped: %w", errors.New("plain")))
	require.Len(t, attrs, 1)
	assert.Equal(t, "error", attrs[0].Key)
	assert.Equal(t, "wrapped: plain", attrs[0].Value.String())
}
