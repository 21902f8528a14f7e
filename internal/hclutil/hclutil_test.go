package hclutil

import (
	"testing"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseBody(t *testing.T, src string) *hclsyntax.Body {
	t.Helper()
	file, diags := hclsyntax.ParseConfig([]byte(src), "test.hcl", hcl.Pos{Line: 1, Column: 1})
	require.False(t, diags.HasErrors(), diags.Error())
	return file.Body.(*hclsyntax.Body)
}

func TestFindUniqueBlock(t *testing.T) {
	schema := &hcl.BodySchema{Blocks: []hcl.BlockHeaderSchema{{Type: "bus_structure"}, {Type: "other"}}}

	t.Run("single block", func(t *testing.T) {
		content, diags := parseBody(t, "bus_structure {}\nother {}\n").Content(schema)
		require.False(t, diags.HasErrors())
		block, diags := FindUniqueBlock(content.Blocks, "bus_structure")
		assert.False(t, diags.HasErrors())
		require.NotNil(t, block)
		assert.Equal(t, "bus_structure", block.Type)
	})

	t.Run("missing block", func(t *testing.T) {
		content, _ := parseBody(t, "other {}\n").Content(schema)
		block, diags := FindUniqueBlock(content.Blocks, "bus_structure")
		assert.Nil(t, block)
		assert.Empty(t, diags)
	})

	t.Run("duplicate block", func(t *testing.T) {
		content, _ := parseBody(t, "bus_structure {}\nbus_structure {}\n").Content(schema)
		_, diags := FindUniqueBlock(content.Blocks, "bus_structure")
		require.True(t, diags.HasErrors())
		assert.Contains(t, diags.Error(), "Duplicate")
	})
}

func TestDecoders(t *testing.T) {
	attrs, diags := parseBody(t, `
label   = "Add"
hidden  = true
options = ["a", "b"]
count   = 3
expr    = "num_inputs"
`).JustAttributes()
	require.False(t, diags.HasErrors())

	s, diags := DecodeString(attrs, "label", "")
	require.False(t, diags.HasErrors())
	assert.Equal(t, "Add", s)

	s, _ = DecodeString(attrs, "missing", "fallback")
	assert.Equal(t, "fallback", s)

	b, diags := DecodeBool(attrs, "hidden", false)
	require.False(t, diags.HasErrors())
	assert.True(t, b)

	list, diags := DecodeStringList(attrs, "options")
	require.False(t, diags.HasErrors())
	assert.Equal(t, []string{"a", "b"}, list)

	text, diags := DecodeExpressionText(attrs, "count", "1")
	require.False(t, diags.HasErrors())
	assert.Equal(t, "3", text)

	text, _ = DecodeExpressionText(attrs, "expr", "1")
	assert.Equal(t, "num_inputs", text)

	text, _ = DecodeExpressionText(attrs, "missing", "1")
	assert.Equal(t, "1", text)

	_, diags = DecodeExpressionText(attrs, "options", "1")
	assert.True(t, diags.HasErrors())
}
