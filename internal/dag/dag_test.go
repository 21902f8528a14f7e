package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	g := New()
	require.NotNil(t, g)
	assert.NotNil(t, g.nodes)
	assert.Empty(t, g.nodes)
	assert.Equal(t, 0, g.Len())
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Len(t, g.nodes, 1)
	nodeA, ok := g.nodes["a"]
	require.True(t, ok)
	assert.Equal(t, "a", nodeA.id)
	assert.Equal(t, 0, nodeA.index)

	g.AddNode("a") // Test idempotency
	assert.Len(t, g.nodes, 1)

	g.AddNode("b")
	assert.Equal(t, 2, g.Len())
	assert.True(t, g.Has("b"))
	assert.Equal(t, 1, g.nodes["b"].index)
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := New()
		g.AddNode("a")
		g.AddNode("b")

		err := g.AddEdge("a", "b") // b depends on a
		require.NoError(t, err)

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := New()
		g.AddNode("a")

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		_, err = g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
		_, err = g.Dependents("dne")
		assert.ErrorContains(t, err, "node not found")
		_, err = g.Downstream("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestResolve(t *testing.T) {
	testCases := []struct {
		name     string
		entities []Entity
		want     []string
	}{
		{
			name: "empty",
			want: []string{},
		},
		{
			name:     "independent entities keep insertion order",
			entities: []Entity{{ID: "c"}, {ID: "a"}, {ID: "b"}},
			want:     []string{"c", "a", "b"},
		},
		{
			name:     "dependency declared later is pulled forward",
			entities: []Entity{{ID: "b", Deps: []string{"a"}}, {ID: "a"}},
			want:     []string{"a", "b"},
		},
		{
			name: "diamond",
			entities: []Entity{
				{ID: "d", Deps: []string{"b", "c"}},
				{ID: "c", Deps: []string{"a"}},
				{ID: "b", Deps: []string{"a"}},
				{ID: "a"},
			},
			want: []string{"a", "c", "b", "d"},
		},
		{
			name:     "unknown dependencies are ignored",
			entities: []Entity{{ID: "a", Deps: []string{"samp_rate_not_a_var"}}},
			want:     []string{"a"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Resolve(tc.entities)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assertRespectsDeps(t, tc.entities, got)
		})
	}
}

func TestResolve_Deterministic(t *testing.T) {
	entities := []Entity{
		{ID: "e", Deps: []string{"a", "d"}},
		{ID: "d", Deps: []string{"b"}},
		{ID: "c"},
		{ID: "b", Deps: []string{"a"}},
		{ID: "a"},
	}
	first, err := Resolve(entities)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Resolve(entities)
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
	assertRespectsDeps(t, entities, first)
}

func TestResolve_Cycles(t *testing.T) {
	t.Run("two node cycle", func(t *testing.T) {
		_, err := Resolve([]Entity{
			{ID: "a", Deps: []string{"b"}},
			{ID: "b", Deps: []string{"a"}},
		})
		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Contains(t, []string{"a", "b"}, cycleErr.ID())
		assert.True(t, cycleErr.Involves("a"))
		assert.True(t, cycleErr.Involves("b"))
		assert.ErrorContains(t, err, "dependency cycle detected")
	})

	t.Run("self dependency", func(t *testing.T) {
		_, err := Resolve([]Entity{{ID: "a", Deps: []string{"a"}}})
		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"a"}, cycleErr.Path)
		assert.ErrorContains(t, err, "depends on itself")
	})

	t.Run("cycle path excludes upstream entry", func(t *testing.T) {
		_, err := Resolve([]Entity{
			{ID: "entry", Deps: []string{"x"}},
			{ID: "x", Deps: []string{"y"}},
			{ID: "y", Deps: []string{"z"}},
			{ID: "z", Deps: []string{"x"}},
		})
		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"x", "y", "z"}, cycleErr.Path)
		assert.False(t, cycleErr.Involves("entry"))
	})
}

func TestSortAll(t *testing.T) {
	g := Build([]Entity{
		{ID: "b", Deps: []string{"a"}},
		{ID: "x", Deps: []string{"y"}},
		{ID: "y", Deps: []string{"x"}},
		{ID: "a"},
	})

	order, cycles := g.SortAll()
	require.Len(t, cycles, 1)
	assert.ElementsMatch(t, []string{"x", "y"}, cycles[0].Path)
	assert.Equal(t, []string{"a", "b", "y", "x"}, order)
}

func TestDownstream(t *testing.T) {
	g := Build([]Entity{
		{ID: "a"},
		{ID: "b", Deps: []string{"a"}},
		{ID: "c", Deps: []string{"b"}},
		{ID: "d"},
	})

	down, err := g.Downstream("a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, down)

	down, err = g.Downstream("d")
	require.NoError(t, err)
	assert.Empty(t, down)
}

// assertRespectsDeps checks that every entity appears after all the entities
// it depends on.
func assertRespectsDeps(t *testing.T, entities []Entity, order []string) {
	t.Helper()
	pos := make(map[string]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	for _, e := range entities {
		for _, dep := range e.Deps {
			depPos, ok := pos[dep]
			if !ok {
				continue
			}
			assert.Less(t, depPos, pos[e.ID], "%s must come after %s", e.ID, dep)
		}
	}
}
