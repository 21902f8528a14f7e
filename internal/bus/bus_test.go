package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestResize(t *testing.T) {
	testCases := []struct {
		name    string
		current int
		want    int
		drop    []int
		add     []int
	}{
		{name: "unchanged", current: 2, want: 2},
		{name: "grow from one to three", current: 1, want: 3, add: []int{1, 2}},
		{name: "shrink drops tail highest first", current: 4, want: 1, drop: []int{3, 2, 1}},
		{name: "grow from nothing", current: 0, want: 2, add: []int{0, 1}},
		{name: "negative want drops everything", current: 2, want: -1, drop: []int{1, 0}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := Resize(tc.current, tc.want)
			assert.Equal(t, tc.drop, d.Drop)
			assert.Equal(t, tc.add, d.Add)
			assert.Equal(t, len(tc.drop) == 0 && len(tc.add) == 0, d.Empty())
		})
	}
}

func TestDefault(t *testing.T) {
	assert.Nil(t, Default(0))
	assert.Equal(t, Structure{{0, 1, 2}}, Default(3))
}

func TestFromMultiplicity(t *testing.T) {
	s := FromMultiplicity([]int{2, 1, 0, 3})
	assert.Equal(t, Structure{{0, 1}, {2}, {3}, {4, 5, 6}}, s)
	require.NoError(t, s.Validate(7))
	assert.Nil(t, FromMultiplicity(nil))
}

func TestStructureValidate(t *testing.T) {
	testCases := []struct {
		name    string
		s       Structure
		n       int
		wantErr string
	}{
		{name: "valid", s: Structure{{0, 1}, {2}}, n: 3},
		{name: "partial cover is valid", s: Structure{{1}}, n: 3},
		{name: "out of range", s: Structure{{0, 3}}, n: 3, wantErr: "references port 3"},
		{name: "negative", s: Structure{{-1}}, n: 3, wantErr: "references port -1"},
		{name: "shared port", s: Structure{{0, 1}, {1}}, n: 3, wantErr: "port 1 is in bus group 0 and bus group 1"},
		{name: "empty group", s: Structure{{0}, {}}, n: 3, wantErr: "bus group 1 is empty"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.s.Validate(tc.n)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestFromValue(t *testing.T) {
	t.Run("tuple of tuples", func(t *testing.T) {
		v := cty.TupleVal([]cty.Value{
			cty.TupleVal([]cty.Value{cty.NumberIntVal(0), cty.NumberIntVal(1)}),
			cty.TupleVal([]cty.Value{cty.NumberIntVal(2)}),
		})
		s, err := FromValue(v)
		require.NoError(t, err)
		assert.Equal(t, Structure{{0, 1}, {2}}, s)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("null", func(t *testing.T) {
		s, err := FromValue(cty.NullVal(cty.DynamicPseudoType))
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("wrong shape", func(t *testing.T) {
		_, err := FromValue(cty.StringVal("nope"))
		assert.ErrorContains(t, err, "list of lists")
	})
}

func TestStructureEqualAndMembers(t *testing.T) {
	a := Structure{{0, 1}, {2}}
	assert.True(t, a.Equal(Structure{{0, 1}, {2}}))
	assert.False(t, a.Equal(Structure{{0}, {1, 2}}))
	assert.False(t, a.Equal(nil))
	assert.Equal(t, map[int]bool{0: true, 1: true, 2: true}, a.Members())
}
