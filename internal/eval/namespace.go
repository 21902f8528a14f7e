package eval

import (
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Epoch identifies one evaluation namespace. Version is the flowgraph's
// mutation counter at build time; Hash is derived from the namespace content.
type Epoch struct {
	Version uint64
	Hash    uint64
}

// Source is one named expression contributing to a namespace.
type Source struct {
	Name  string
	Text  string
	DType DType
}

// Input is everything a namespace is built from. Parameters and Variables
// must already be in dependency order.
type Input struct {
	Imports    []string
	Parameters []Source
	Variables  []Source
}

// Namespace is the set of names and functions expressions are evaluated
// against. A name whose expression failed is absent from Values and present
// in Errors.
type Namespace struct {
	Epoch
	Values       map[string]cty.Value
	Functions    map[string]function.Function
	Errors       map[string]*EvalError
	ImportErrors []*ImportError
	Libraries    []string
}

// Value returns the value bound to name.
func (ns *Namespace) Value(name string) (cty.Value, bool) {
	v, ok := ns.Values[name]
	return v, ok
}

// Names returns the bound names, sorted.
func (ns *Namespace) Names() []string {
	names := make([]string, 0, len(ns.Values))
	for name := range ns.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hashNamespace digests everything an evaluation result can depend on.
func hashNamespace(ns *Namespace) uint64 {
	d := xxhash.New()
	writeValues(d, ns.Values)
	fnames := make([]string, 0, len(ns.Functions))
	for name := range ns.Functions {
		fnames = append(fnames, name)
	}
	sort.Strings(fnames)
	for _, name := range fnames {
		writeString(d, "fn:"+name)
	}
	return d.Sum64()
}

func hashValues(values map[string]cty.Value) uint64 {
	if len(values) == 0 {
		return 0
	}
	d := xxhash.New()
	writeValues(d, values)
	return d.Sum64()
}

func writeValues(d *xxhash.Digest, values map[string]cty.Value) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := values[name]
		writeString(d, name)
		if ty, err := ctyjson.MarshalType(v.Type()); err == nil {
			writeBytes(d, ty)
		} else {
			writeString(d, v.Type().GoString())
		}
		if b, err := ctyjson.Marshal(v, v.Type()); err == nil {
			writeBytes(d, b)
		} else {
			writeString(d, fmt.Sprintf("%#v", v))
		}
	}
}

// Every field is length-prefixed so that adjacent fields cannot be shifted
// into each other.
func writeBytes(d *xxhash.Digest, b []byte) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(b)))
	_, _ = d.Write(n[:])
	_, _ = d.Write(b)
}

func writeString(d *xxhash.Digest, s string) {
	writeBytes(d, []byte(s))
}
