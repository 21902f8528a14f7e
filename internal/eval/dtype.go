package eval

import (
	"fmt"
	"strings"
)

// DType is the declared data type of a parameter. It decides how the
// expression text is interpreted and what the result is converted to.
type DType string

const (
	// Raw evaluates the expression and keeps whatever it produces.
	Raw DType = "raw"
	// Int requires a whole number.
	Int DType = "int"
	// Real requires a number.
	Real DType = "real"
	// Bool requires a boolean.
	Bool DType = "bool"
	// String evaluates the expression and falls back to the text itself when
	// that fails, so bare words need no quoting.
	String DType = "string"
	// ID is an identifier taken verbatim.
	ID DType = "id"
	// Enum is one of a fixed set of options, taken verbatim.
	Enum DType = "enum"
	// IntVector is a list of whole numbers. A single number is accepted.
	IntVector DType = "int_vector"
	// RealVector is a list of numbers. A single number is accepted.
	RealVector DType = "real_vector"
	// Import names libraries to bring into scope.
	Import DType = "import"
)

var dtypes = []DType{Raw, Int, Real, Bool, String, ID, Enum, IntVector, RealVector, Import}

// ParseDType validates a data type name. An empty name means Raw.
func ParseDType(s string) (DType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Raw, nil
	}
	for _, d := range dtypes {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown data type '%s'", s)
}

// Evaluated reports whether text of this type goes through the expression
// evaluator at all.
func (d DType) Evaluated() bool {
	switch d {
	case ID, Enum, Import:
		return false
	default:
		return true
	}
}
