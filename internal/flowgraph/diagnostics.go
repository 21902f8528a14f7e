package flowgraph

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Severity grades a diagnostic.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Diagnostic is a non-fatal problem with the design, attached to the entity
// it concerns. Block, Param and Port are empty when they do not apply.
type Diagnostic struct {
	Severity Severity
	Block    string
	Param    string
	Port     string
	Err      error
}

func (d Diagnostic) Error() string {
	var where []string
	if d.Block != "" {
		where = append(where, fmt.Sprintf("block '%s'", d.Block))
	}
	if d.Param != "" {
		where = append(where, fmt.Sprintf("param '%s'", d.Param))
	}
	if d.Port != "" {
		where = append(where, fmt.Sprintf("port '%s'", d.Port))
	}
	if len(where) == 0 {
		return fmt.Sprintf("%s: %v", d.Severity, d.Err)
	}
	return fmt.Sprintf("%s: %s: %v", d.Severity, strings.Join(where, " "), d.Err)
}

func (d Diagnostic) Unwrap() error { return d.Err }

// Diagnostics is a list of diagnostics.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic is an error.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// For returns the diagnostics attached to a block.
func (ds Diagnostics) For(block string) Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.Block == block {
			out = append(out, d)
		}
	}
	return out
}

// Err folds the error diagnostics into one error, nil when there are none.
func (ds Diagnostics) Err() error {
	var result *multierror.Error
	for _, d := range ds {
		if d.Severity == SeverityError {
			result = multierror.Append(result, d)
		}
	}
	return result.ErrorOrNil()
}

func errorDiag(block, param, port string, err error) Diagnostic {
	return Diagnostic{Severity: SeverityError, Block: block, Param: param, Port: port, Err: err}
}

func warningDiag(block, param, port string, err error) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Block: block, Param: param, Port: port, Err: err}
}
