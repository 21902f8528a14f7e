package eval

import (
	"sort"
	"strings"
	"unicode"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// CoreLibrary is always in scope.
const CoreLibrary = "core"

// Library is a named set of functions that an import block can bring into
// scope.
type Library map[string]function.Function

// Names returns the library's function names, sorted.
func (l Library) Names() []string {
	names := make([]string, 0, len(l))
	for name := range l {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultLibraries returns the libraries every engine starts with.
func DefaultLibraries() map[string]Library {
	return map[string]Library{
		CoreLibrary: {
			"abs":       stdlib.AbsoluteFunc,
			"ceil":      stdlib.CeilFunc,
			"coalesce":  stdlib.CoalesceFunc,
			"concat":    stdlib.ConcatFunc,
			"contains":  stdlib.ContainsFunc,
			"element":   stdlib.ElementFunc,
			"floor":     stdlib.FloorFunc,
			"format":    stdlib.FormatFunc,
			"int":       stdlib.IntFunc,
			"join":      stdlib.JoinFunc,
			"keys":      stdlib.KeysFunc,
			"length":    stdlib.LengthFunc,
			"lookup":    stdlib.LookupFunc,
			"lower":     stdlib.LowerFunc,
			"max":       stdlib.MaxFunc,
			"merge":     stdlib.MergeFunc,
			"min":       stdlib.MinFunc,
			"range":     stdlib.RangeFunc,
			"replace":   stdlib.ReplaceFunc,
			"split":     stdlib.SplitFunc,
			"strlen":    stdlib.StrlenFunc,
			"substr":    stdlib.SubstrFunc,
			"tobool":    stdlib.MakeToFunc(cty.Bool),
			"tonumber":  stdlib.MakeToFunc(cty.Number),
			"tostring":  stdlib.MakeToFunc(cty.String),
			"trimspace": stdlib.TrimSpaceFunc,
			"upper":     stdlib.UpperFunc,
			"values":    stdlib.ValuesFunc,
		},
		"math": {
			"log":      stdlib.LogFunc,
			"parseint": stdlib.ParseIntFunc,
			"pow":      stdlib.PowFunc,
			"signum":   stdlib.SignumFunc,
		},
		"strings": {
			"chomp":  stdlib.ChompFunc,
			"strrev": stdlib.ReverseFunc,
			"title":  stdlib.TitleFunc,
		},
		"collections": {
			"chunklist": stdlib.ChunklistFunc,
			"distinct":  stdlib.DistinctFunc,
			"flatten":   stdlib.FlattenFunc,
			"reverse":   stdlib.ReverseListFunc,
			"slice":     stdlib.SliceFunc,
			"sort":      stdlib.SortFunc,
			"zipmap":    stdlib.ZipmapFunc,
		},
		"encoding": {
			"csvdecode":  stdlib.CSVDecodeFunc,
			"jsondecode": stdlib.JSONDecodeFunc,
			"jsonencode": stdlib.JSONEncodeFunc,
		},
		"sets": {
			"setintersection":        stdlib.SetIntersectionFunc,
			"setsubtract":            stdlib.SetSubtractFunc,
			"setsymmetricdifference": stdlib.SetSymmetricDifferenceFunc,
			"setunion":               stdlib.SetUnionFunc,
		},
		"regex": {
			"regex":        stdlib.RegexFunc,
			"regexall":     stdlib.RegexAllFunc,
			"regexreplace": stdlib.RegexReplaceFunc,
		},
	}
}

// ParseImports splits the text of an import parameter into library names.
// Names are separated by commas or whitespace; an optional leading "import"
// keyword is accepted for each statement.
func ParseImports(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "import" {
			continue
		}
		out = append(out, f)
	}
	return out
}
