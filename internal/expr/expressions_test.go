package expr_test

import (
	"fmt"
	"testing"

	"github.com/specialistvlad/flowgraph/internal/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownSet(names ...string) func(string) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(name string) bool {
		_, ok := set[name]
		return ok
	}
}

func TestReferences(t *testing.T) {
	known := knownSet("a", "b", "samp_rate", "freq", "ab")

	testCases := []struct {
		name string
		text string
		want []string
	}{
		{name: "literal", text: "42", want: nil},
		{name: "single name", text: "a + 1", want: []string{"a"}},
		{name: "first occurrence order", text: "b * a + b", want: []string{"b", "a"}},
		{name: "whole words only", text: "abc + ab", want: []string{"ab"}},
		{name: "unknown names are dropped", text: "x + samp_rate", want: []string{"samp_rate"}},
		{name: "string literal contents ignored", text: `"a and b"`, want: nil},
		{name: "template interpolation counts", text: `"rate-${samp_rate}"`, want: []string{"samp_rate"}},
		{name: "attribute after dot ignored", text: "freq.a", want: []string{"freq"}},
		{name: "function arguments", text: "max(a, b)", want: []string{"a", "b"}},
		{name: "for expression locals excluded", text: "[for a in [1, 2] : a * freq]", want: []string{"freq"}},
		{name: "unparseable falls back to tokens", text: "a + * b", want: []string{"a", "b"}},
		{name: "fallback ignores quoted text", text: `a + "b" +`, want: []string{"a"}},
		{name: "empty text", text: "", want: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := expr.References(tc.text, known)
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestReferences_NilKnownAcceptsAll(t *testing.T) {
	assert.Equal(t, []string{"x", "y"}, expr.References("x + y", nil))
}

func TestCalledFunctions(t *testing.T) {
	assert.Equal(t, []string{"lower", "max", "upper"}, expr.CalledFunctions(`upper(lower("x")) == "" ? max(1, 2) : 0`))
	assert.Equal(t, []string{"length"}, expr.CalledFunctions(`{ k = length([1]) }`))
	assert.Empty(t, expr.CalledFunctions("a + 1"))
	assert.Empty(t, expr.CalledFunctions("max(1,"))
}

func TestAnalyzer(t *testing.T) {
	a := expr.NewAnalyzer()

	refs := a.References("a + b", knownSet("a"))
	require.Equal(t, []string{"a"}, refs)

	// Same text, different scope: memoized candidates are filtered again.
	refs = a.References("a + b", knownSet("a", "b"))
	assert.Equal(t, []string{"a", "b"}, refs)
	assert.Equal(t, 1, a.Len())

	assert.Equal(t, []string{"min"}, a.CalledFunctions("min(a, 1)"))
	assert.Equal(t, 2, a.Len())

	// Callers may not mutate memoized state through returned slices.
	refs[0] = "mutated"
	assert.Equal(t, []string{"a", "b"}, a.References("a + b", nil))

	a.Reset()
	assert.Equal(t, 0, a.Len())
}

func TestAnalyzer_Bounded(t *testing.T) {
	a := expr.NewAnalyzer()
	for i := 0; i < 5000; i++ {
		a.References(fmt.Sprintf("a + %d", i), nil)
	}
	assert.LessOrEqual(t, a.Len(), 4096)
	assert.Equal(t, []string{"a"}, a.References("a + 1", nil))
}
