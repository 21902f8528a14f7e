package dag

import (
	"fmt"
	"strings"
)

// CycleError reports a dependency cycle. Path lists the members of the cycle
// in dependency order, starting with the node that was reached twice.
type CycleError struct {
	Path []string
}

// ID returns the offending id the cycle was detected at.
func (e *CycleError) ID() string {
	if len(e.Path) == 0 {
		return ""
	}
	return e.Path[0]
}

// Involves reports whether id is a member of the cycle.
func (e *CycleError) Involves(id string) bool {
	for _, p := range e.Path {
		if p == id {
			return true
		}
	}
	return false
}

func (e *CycleError) Error() string {
	if len(e.Path) == 1 {
		return fmt.Sprintf("dependency cycle detected: '%s' depends on itself", e.Path[0])
	}
	return fmt.Sprintf("dependency cycle detected involving '%s': %s -> %s",
		e.ID(), strings.Join(e.Path, " -> "), e.Path[0])
}
