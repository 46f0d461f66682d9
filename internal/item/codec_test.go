package item

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlBatch = `
items:
  - id: "entity:user/1:en"
    source: {type: user, id: "1", roles: [authenticated, editor]}
    fields:
      "entity:user|name": {type: string, values: [alice]}
      "entity:user|uid": {type: integer, values: [1]}
      "search_api_aggregation_1": {type: string}
  - id: "entity:node/7:en"
    source: {type: node, id: "7"}
    fields:
      "entity:node|title": {type: text, values: ["Hello, world!"]}
`

func TestDecode_YAML(t *testing.T) {
	// When: decoding a YAML batch
	b, err := Decode(strings.NewReader(yamlBatch))
	require.NoError(t, err)

	// Then: items, fields and sources are populated
	require.Equal(t, 2, b.Len())
	user := b.Items[0]
	assert.Equal(t, "entity:user", user.Datasource)
	assert.Equal(t, []any{"alice"}, user.Fields["entity:user|name"].Values)
	assert.Equal(t, []any{int64(1)}, user.Fields["entity:user|uid"].Values)

	slot, ok := user.Field("search_api_aggregation_1")
	require.True(t, ok)
	assert.True(t, slot.IsEmpty())

	rh, ok := user.Source.(RoleHolder)
	require.True(t, ok)
	assert.Equal(t, []string{"authenticated", "editor"}, rh.Roles())

	node := b.Items[1]
	_, ok = node.Source.(RoleHolder)
	assert.False(t, ok)
	assert.Equal(t, "node", node.Source.Type())
}

func TestDecode_JSON(t *testing.T) {
	input := `{"items":[{"id":"a","fields":{"n":{"type":"decimal","values":[1.5, 2]}}}]}`

	b, err := Decode(strings.NewReader(input))
	require.NoError(t, err)

	require.Equal(t, 1, b.Len())
	assert.Equal(t, []any{1.5, 2.0}, b.Items[0].Fields["n"].Values)
	assert.Nil(t, b.Items[0].Source)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing id", `items: [{fields: {}}]`},
		{"duplicate id", `items: [{id: a}, {id: a}]`},
		{"bad type", `items: [{id: a, fields: {x: {type: blob, values: [1]}}}]`},
		{"bad value", `items: [{id: a, fields: {x: {type: integer, values: [abc]}}}]`},
		{"not yaml", `items: [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestDecode_LargeIntegersKeepPrecision(t *testing.T) {
	// Given: an integer just above 2^53
	input := `items: [{id: a, fields: {n: {type: integer, values: [9007199254740993, -9223372036854775808]}}}]`

	// When: decoding
	b, err := Decode(strings.NewReader(input))
	require.NoError(t, err)

	// Then: no digit is lost
	assert.Equal(t, []any{int64(9007199254740993), int64(-9223372036854775808)}, b.Items[0].Fields["n"].Values)
}

func TestDecode_IntegerOutOfRange(t *testing.T) {
	input := `items: [{id: a, fields: {n: {type: integer, values: [10000000000000000000]}}}]`

	_, err := Decode(strings.NewReader(input))
	assert.ErrorContains(t, err, "out of integer range")
}

func TestDecode_EmptyInput(t *testing.T) {
	b, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestEncode_JSONRoundTripKeepsSource(t *testing.T) {
	// Given: a decoded batch
	b, err := Decode(strings.NewReader(yamlBatch))
	require.NoError(t, err)

	// When: encoding as JSON
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b, FormatJSON))

	// Then: the output is valid JSON carrying the user's roles
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	items := out["items"].([]any)
	require.Len(t, items, 2)
	src := items[0].(map[string]any)["source"].(map[string]any)
	assert.Equal(t, "user", src["type"])
	assert.Equal(t, []any{"authenticated", "editor"}, src["roles"])
}

func TestEncode_YAML(t *testing.T) {
	b := NewBatch(New("a", "ds"))
	b.Items[0].SetField("f", NewField(TypeString, "x"))

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, b, FormatYAML))

	assert.Contains(t, buf.String(), "id: a")
	assert.Contains(t, buf.String(), "datasource: ds")
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	f, err = ParseFormat("yml")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
