package bus

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Structure groups port indices into buses. Structure{{0, 1}, {2}} is two
// bus ports: the first aggregates ports 0 and 1, the second port 2.
type Structure [][]int

var structureType = cty.List(cty.List(cty.Number))

// Default is the structure used when a block enables a bus without declaring
// one: a single group holding every port.
func Default(n int) Structure {
	if n <= 0 {
		return nil
	}
	group := make([]int, n)
	for i := range group {
		group[i] = i
	}
	return Structure{group}
}

// FromMultiplicity builds one group per declared port, each spanning the
// contiguous run of ports that declaration expanded into. A count below one is
// treated as one.
func FromMultiplicity(counts []int) Structure {
	if len(counts) == 0 {
		return nil
	}
	s := make(Structure, 0, len(counts))
	next := 0
	for _, c := range counts {
		if c < 1 {
			c = 1
		}
		group := make([]int, c)
		for i := range group {
			group[i] = next
			next++
		}
		s = append(s, group)
	}
	return s
}

// FromValue decodes an evaluated bus structure expression such as
// [[0, 1], [2]]. A null value yields a nil structure.
func FromValue(v cty.Value) (Structure, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("bus structure is not known")
	}
	converted, err := convert.Convert(v, structureType)
	if err != nil {
		return nil, fmt.Errorf("bus structure must be a list of lists of port indices: %w", err)
	}
	var out [][]int
	if err := gocty.FromCtyValue(converted, &out); err != nil {
		return nil, fmt.Errorf("bus structure must be a list of lists of port indices: %w", err)
	}
	return Structure(out), nil
}

// Len returns the number of groups, which is the number of bus ports.
func (s Structure) Len() int {
	return len(s)
}

// Validate checks that every index names one of n ports and that no port
// belongs to two groups.
func (s Structure) Validate(n int) error {
	seen := make(map[int]int, n)
	for g, group := range s {
		if len(group) == 0 {
			return fmt.Errorf("bus group %d is empty", g)
		}
		for _, idx := range group {
			if idx < 0 || idx >= n {
				return fmt.Errorf("bus group %d references port %d, block has %d ports", g, idx, n)
			}
			if prev, ok := seen[idx]; ok {
				return fmt.Errorf("port %d is in bus group %d and bus group %d", idx, prev, g)
			}
			seen[idx] = g
		}
	}
	return nil
}

// Equal reports whether two structures group the same ports in the same
// order.
func (s Structure) Equal(other Structure) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if len(s[i]) != len(other[i]) {
			return false
		}
		for j := range s[i] {
			if s[i][j] != other[i][j] {
				return false
			}
		}
	}
	return true
}

// Members returns the set of port indices that belong to some group.
func (s Structure) Members() map[int]bool {
	out := make(map[int]bool)
	for _, group := range s {
		for _, idx := range group {
			out[idx] = true
		}
	}
	return out
}
