package persist

import (
	"fmt"

	"github.com/specialistvlad/flowgraph/internal/flowgraph"
)

// UnknownBlockKeyError reports a persisted block whose key is not registered.
// The block is loaded as a placeholder.
type UnknownBlockKeyError struct {
	Name string
	Key  string
}

func (e *UnknownBlockKeyError) Error() string {
	return fmt.Sprintf("block '%s' has unknown key '%s' and was loaded as a placeholder", e.Name, e.Key)
}

func (e *UnknownBlockKeyError) Unwrap() error { return flowgraph.ErrUnknownKey }

// UnresolvedPortError reports a persisted connection with an endpoint that
// does not exist. The connection is skipped.
type UnresolvedPortError struct {
	Connection string
	Block      string
	Key        string
	Direction  flowgraph.Direction
}

func (e *UnresolvedPortError) Error() string {
	return fmt.Sprintf("connection %s: %s port '%s:%s' does not exist", e.Connection, e.Direction, e.Block, e.Key)
}
