package eval

import "fmt"

// EvalError is the failure of one expression. Name is the entity the
// expression belongs to, when known.
type EvalError struct {
	Name string
	Text string
	Err  error
}

func (e *EvalError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("failed to evaluate '%s' (%q): %v", e.Name, e.Text, e.Err)
	}
	return fmt.Sprintf("failed to evaluate %q: %v", e.Text, e.Err)
}

func (e *EvalError) Unwrap() error {
	return e.Err
}

// ImportError reports a library that could not be imported.
type ImportError struct {
	Library string
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("unknown library '%s'", e.Library)
}
