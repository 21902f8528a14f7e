package persist

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the format written by Export. Format 0 is the legacy
// layout without a format field.
const FormatVersion = 1

// Document is the persisted form of a flowgraph.
type Document struct {
	Format      int                `yaml:"format" mapstructure:"format"`
	Blocks      []BlockRecord      `yaml:"block,omitempty" mapstructure:"block"`
	Connections []ConnectionRecord `yaml:"connection,omitempty" mapstructure:"connection"`
}

// BlockRecord is one persisted block.
type BlockRecord struct {
	Key        string        `yaml:"key" mapstructure:"key"`
	Name       string        `yaml:"name" mapstructure:"name"`
	State      string        `yaml:"state,omitempty" mapstructure:"state"`
	Coordinate []int         `yaml:"coordinate,flow,omitempty" mapstructure:"coordinate"`
	Rotation   int           `yaml:"rotation,omitempty" mapstructure:"rotation"`
	BusSink    bool          `yaml:"bus_sink,omitempty" mapstructure:"bus_sink"`
	BusSource  bool          `yaml:"bus_source,omitempty" mapstructure:"bus_source"`
	Params     []ParamRecord `yaml:"param,omitempty" mapstructure:"param"`
}

// Param returns the value of the parameter with key.
func (r BlockRecord) Param(key string) (string, bool) {
	for _, p := range r.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// ParamRecord is one parameter's text.
type ParamRecord struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Value string `yaml:"value" mapstructure:"value"`
}

// ConnectionRecord is one persisted connection. Enabled is omitted for
// enabled connections.
type ConnectionRecord struct {
	SourceBlock string `yaml:"source_block_id" mapstructure:"source_block_id"`
	SourceKey   string `yaml:"source_key" mapstructure:"source_key"`
	SinkBlock   string `yaml:"sink_block_id" mapstructure:"sink_block_id"`
	SinkKey     string `yaml:"sink_key" mapstructure:"sink_key"`
	Enabled     *bool  `yaml:"enabled,omitempty" mapstructure:"enabled"`
}

// IsEnabled reports whether the connection is enabled.
func (r ConnectionRecord) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

func (r ConnectionRecord) String() string {
	return r.SourceBlock + ":" + r.SourceKey + "->" + r.SinkBlock + ":" + r.SinkKey
}

// Decode converts a generic nested map, as produced by a YAML or JSON
// decoder, into a Document. Scalars are accepted wherever text is expected,
// so `value: 1` and `source_key: 0` read as "1" and "0". A missing format
// field means format 0.
func Decode(raw map[string]any) (*Document, error) {
	var doc Document
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       scalarToStringHook,
		WeaklyTypedInput: true,
		Result:           &doc,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	if doc.Format < 0 {
		return nil, fmt.Errorf("invalid document format %d", doc.Format)
	}
	return &doc, nil
}

// scalarToStringHook spells booleans and numbers the way they were written
// instead of mapstructure's weak defaults (true would become "1").
func scalarToStringHook(from, to reflect.Kind, data any) (any, error) {
	if to != reflect.String {
		return data, nil
	}
	switch v := data.(type) {
	case bool:
		return strconv.FormatBool(v), nil
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32), nil
	}
	return data, nil
}

var _ mapstructure.DecodeHookFuncKind = scalarToStringHook

// Read parses a YAML document. Scalars are taken as written, so a
// parameter spelled `1.0` keeps its text.
func Read(r io.Reader) (*Document, error) {
	var node yaml.Node
	if err := yaml.NewDecoder(r).Decode(&node); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("document is empty")
		}
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	raw, ok := nodeValue(&node).(map[string]any)
	if !ok {
		return nil, errors.New("document must be a mapping")
	}
	return Decode(raw)
}

// nodeValue converts a YAML node into nested maps and slices with every
// scalar kept as its source text.
func nodeValue(n *yaml.Node) any {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil
		}
		return nodeValue(n.Content[0])
	case yaml.MappingNode:
		m := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			m[n.Content[i].Value] = nodeValue(n.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		s := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			s = append(s, nodeValue(c))
		}
		return s
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.ScalarNode:
		if n.ShortTag() == "!!null" {
			return nil
		}
		return n.Value
	}
	return nil
}

// Unmarshal parses a YAML document held in memory.
func Unmarshal(data []byte) (*Document, error) {
	return Read(bytes.NewReader(data))
}

// Encode writes doc as YAML.
func Encode(w io.Writer, doc *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return enc.Close()
}

// Marshal returns doc as YAML.
func Marshal(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
