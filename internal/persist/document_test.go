package persist

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	disabled := false
	testCases := []struct {
		name    string
		raw     map[string]any
		want    *Document
		wantErr string
	}{
		{
			name: "missing format is legacy",
			raw:  map[string]any{"block": []any{map[string]any{"key": "variable", "name": "a"}}},
			want: &Document{Format: 0, Blocks: []BlockRecord{{Key: "variable", Name: "a"}}},
		},
		{
			name: "scalars become text",
			raw: map[string]any{
				"format": 1,
				"block": []any{map[string]any{
					"key":  "variable",
					"name": "a",
					"param": []any{
						map[string]any{"key": "value", "value": 2.5},
						map[string]any{"key": "flag", "value": true},
						map[string]any{"key": "count", "value": 3},
					},
				}},
				"connection": []any{map[string]any{
					"source_block_id": "a", "source_key": 0,
					"sink_block_id": "b", "sink_key": 1,
					"enabled": false,
				}},
			},
			want: &Document{
				Format: 1,
				Blocks: []BlockRecord{{Key: "variable", Name: "a", Params: []ParamRecord{
					{Key: "value", Value: "2.5"},
					{Key: "flag", Value: "true"},
					{Key: "count", Value: "3"},
				}}},
				Connections: []ConnectionRecord{{SourceBlock: "a", SourceKey: "0", SinkBlock: "b", SinkKey: "1", Enabled: &disabled}},
			},
		},
		{
			name:    "negative format",
			raw:     map[string]any{"format": -1},
			wantErr: "invalid document format",
		},
		{
			name:    "wrong shape",
			raw:     map[string]any{"block": "not a list"},
			wantErr: "failed to decode document",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.raw)
			if tc.wantErr != "" {
				assert.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Decode mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRead_KeepsScalarText(t *testing.T) {
	doc, err := Read(strings.NewReader(`
block:
  - key: variable
    name: a
    coordinate: [1, 2]
    param:
      - key: value
        value: 1.0
  - key: variable
    name: b
    param:
      - key: value
        value: ~
`))
	require.NoError(t, err)
	require.Len(t, doc.Blocks, 2)
	v, _ := doc.Blocks[0].Param("value")
	assert.Equal(t, "1.0", v)
	assert.Equal(t, []int{1, 2}, doc.Blocks[0].Coordinate)
	v, ok := doc.Blocks[1].Param("value")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.ErrorContains(t, err, "empty")

	_, err = Read(strings.NewReader("- just\n- a list\n"))
	assert.ErrorContains(t, err, "mapping")

	_, err = Read(strings.NewReader("block: [\n"))
	assert.ErrorContains(t, err, "failed to parse document")
}

func TestEncode(t *testing.T) {
	disabled := false
	doc := &Document{
		Format: 1,
		Blocks: []BlockRecord{{
			Key: "variable", Name: "a", State: "enabled", Coordinate: []int{3, 4},
			Params: []ParamRecord{{Key: "value", Value: "10"}},
		}},
		Connections: []ConnectionRecord{{SourceBlock: "src", SourceKey: "0", SinkBlock: "dst", SinkKey: "en", Enabled: &disabled}},
	}
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, doc))

	want := `format: 1
block:
  - key: variable
    name: a
    state: enabled
    coordinate: [3, 4]
    param:
      - key: value
        value: "10"
connection:
  - source_block_id: src
    source_key: "0"
    sink_block_id: dst
    sink_key: en
    enabled: false
`
	assert.Equal(t, want, buf.String())

	back, err := Unmarshal(buf.Bytes())
	require.NoError(t, err)
	if diff := cmp.Diff(doc, back); diff != "" {
		t.Errorf("decode after encode (-want +got):\n%s", diff)
	}
}
