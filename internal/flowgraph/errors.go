package flowgraph

import (
	"errors"
	"fmt"
)

// ErrUnknownKey is wrapped by every error about a block key with no
// definition.
var ErrUnknownKey = errors.New("unknown block key")

// ErrOptionsRequired is returned when removing the options block.
var ErrOptionsRequired = errors.New("the options block cannot be removed")

// InvalidConnectionError rejects a connection at construction time.
type InvalidConnectionError struct {
	Source string
	Sink   string
	Reason string
}

func (e *InvalidConnectionError) Error() string {
	return fmt.Sprintf("invalid connection %s -> %s: %s", e.Source, e.Sink, e.Reason)
}

// DuplicateNameError rejects a block name that is already taken.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("a block named '%s' already exists", e.Name)
}

// InvalidNameError rejects a block name that is not an identifier.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("'%s' is not a valid block name", e.Name)
}

// NotFoundError reports a lookup of a block, port or parameter that does not
// exist.
type NotFoundError struct {
	What string
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%s' not found", e.What, e.Name)
}
