package eval

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/specialistvlad/flowgraph/internal/ctxlog"
	"github.com/specialistvlad/flowgraph/internal/metrics"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
)

// Engine builds namespaces and evaluates expressions against them. It keeps
// one result cache, which is dropped whenever it is asked to evaluate against
// a namespace with a different hash.
//
// An Engine is owned by one flowgraph and is not safe for concurrent use.
type Engine struct {
	libraries map[string]Library
	logger    *slog.Logger
	metrics   *metrics.Engine

	cache     map[cacheKey]result
	cacheHash uint64
	stats     Stats
}

type cacheKey struct {
	dtype  DType
	text   string
	locals uint64
}

type result struct {
	value cty.Value
	err   error
}

// Stats counts the engine's work since it was created.
type Stats struct {
	Builds  int
	Hits    int
	Misses  int
	Entries int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records cache and error counters.
func WithMetrics(m *metrics.Engine) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLibrary adds or replaces a library.
func WithLibrary(name string, lib Library) Option {
	return func(e *Engine) { e.libraries[name] = lib }
}

// NewEngine creates an engine with the default libraries.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		libraries: DefaultLibraries(),
		logger:    ctxlog.Discard(),
		cache:     make(map[cacheKey]result),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasLibrary reports whether name can be imported.
func (e *Engine) HasLibrary(name string) bool {
	_, ok := e.libraries[name]
	return ok
}

// Libraries returns the importable library names, sorted.
func (e *Engine) Libraries() []string {
	names := make([]string, 0, len(e.libraries))
	for name := range e.libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LibraryOf returns the first library, by name, that defines the function
// fn.
func (e *Engine) LibraryOf(fn string) (string, bool) {
	for _, name := range e.Libraries() {
		if _, ok := e.libraries[name][fn]; ok {
			return name, true
		}
	}
	return "", false
}

// Stats returns the engine's counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Entries = len(e.cache)
	return s
}

// Build creates the namespace for one epoch. Imports are merged first, each
// unknown library is recorded and otherwise ignored. Parameters are then
// evaluated in the given order, then variables on top of them. Each source
// sees the names bound before it.
func (e *Engine) Build(version uint64, in Input) *Namespace {
	ns := &Namespace{
		Epoch:     Epoch{Version: version},
		Values:    make(map[string]cty.Value),
		Functions: make(map[string]function.Function),
		Errors:    make(map[string]*EvalError),
	}

	e.mergeLibrary(ns, CoreLibrary)
	for _, name := range in.Imports {
		if name == CoreLibrary {
			continue
		}
		if !e.HasLibrary(name) {
			ns.ImportErrors = append(ns.ImportErrors, &ImportError{Library: name})
			e.logger.Debug("Ignoring unknown library import", "library", name)
			continue
		}
		e.mergeLibrary(ns, name)
	}

	for _, group := range [][]Source{in.Parameters, in.Variables} {
		for _, src := range group {
			v, err := e.evaluate(ns, src.Text, src.DType, nil)
			if err != nil {
				ns.Errors[src.Name] = asEvalError(err, src.Name, src.Text)
				e.metrics.EvalError(string(src.DType))
				continue
			}
			ns.Values[src.Name] = v
		}
	}

	ns.Hash = hashNamespace(ns)
	e.stats.Builds++
	e.metrics.NamespaceBuilt(len(ns.Values))
	e.logger.Debug("Built evaluation namespace",
		"version", version,
		"hash", ns.Hash,
		"names", len(ns.Values),
		"errors", len(ns.Errors),
		"libraries", ns.Libraries,
	)
	return ns
}

func (e *Engine) mergeLibrary(ns *Namespace, name string) {
	for _, l := range ns.Libraries {
		if l == name {
			return
		}
	}
	for fname, fn := range e.libraries[name] {
		ns.Functions[fname] = fn
	}
	ns.Libraries = append(ns.Libraries, name)
}

// Evaluate evaluates text as dtype against ns, with locals shadowing
// namespace names. Results, failures included, are cached until the engine
// sees a namespace with another hash. Errors are *EvalError.
func (e *Engine) Evaluate(ns *Namespace, text string, dtype DType, locals map[string]cty.Value) (cty.Value, error) {
	if ns.Hash != e.cacheHash {
		e.cache = make(map[cacheKey]result)
		e.cacheHash = ns.Hash
	}

	key := cacheKey{dtype: dtype, text: text, locals: hashValues(locals)}
	if r, ok := e.cache[key]; ok {
		e.stats.Hits++
		e.metrics.CacheHit()
		return r.value, r.err
	}
	e.stats.Misses++
	e.metrics.CacheMiss()

	v, err := e.evaluate(ns, text, dtype, locals)
	if err != nil {
		err = asEvalError(err, "", text)
		e.metrics.EvalError(string(dtype))
	}
	e.cache[key] = result{value: v, err: err}
	return v, err
}

func (e *Engine) evaluate(ns *Namespace, text string, dtype DType, locals map[string]cty.Value) (cty.Value, error) {
	trimmed := strings.TrimSpace(text)

	switch dtype {
	case ID:
		if !hclsyntax.ValidIdentifier(trimmed) {
			return cty.NilVal, fmt.Errorf("'%s' is not a valid identifier", trimmed)
		}
		return cty.StringVal(trimmed), nil
	case Enum:
		return cty.StringVal(trimmed), nil
	case Import:
		names := ParseImports(trimmed)
		vals := make([]cty.Value, 0, len(names))
		for _, name := range names {
			if !e.HasLibrary(name) {
				return cty.NilVal, &ImportError{Library: name}
			}
			vals = append(vals, cty.StringVal(name))
		}
		if len(vals) == 0 {
			return cty.ListValEmpty(cty.String), nil
		}
		return cty.ListVal(vals), nil
	case String:
		if trimmed == "" {
			return cty.StringVal(""), nil
		}
		v, err := e.expression(ns, trimmed, locals)
		if err == nil {
			if s, convErr := convert.Convert(v, cty.String); convErr == nil && s.IsKnown() && !s.IsNull() {
				return s, nil
			}
		}
		return cty.StringVal(text), nil
	}

	if trimmed == "" {
		return cty.NilVal, errors.New("expression is empty")
	}
	v, err := e.expression(ns, trimmed, locals)
	if err != nil {
		return cty.NilVal, err
	}

	switch dtype {
	case Int:
		return toInt(v)
	case Real:
		return convertTo(v, cty.Number, "a number")
	case Bool:
		return convertTo(v, cty.Bool, "a bool")
	case IntVector:
		return toVector(v, true)
	case RealVector:
		return toVector(v, false)
	default:
		return v, nil
	}
}

func (e *Engine) expression(ns *Namespace, text string, locals map[string]cty.Value) (cty.Value, error) {
	parsed, diags := hclsyntax.ParseExpression([]byte(text), "expression", hcl.InitialPos)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}

	vars := ns.Values
	if len(locals) > 0 {
		vars = make(map[string]cty.Value, len(ns.Values)+len(locals))
		for k, v := range ns.Values {
			vars[k] = v
		}
		for k, v := range locals {
			vars[k] = v
		}
	}

	v, diags := parsed.Value(&hcl.EvalContext{Variables: vars, Functions: ns.Functions})
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, errors.New("expression result is not known")
	}
	return v, nil
}

func convertTo(v cty.Value, ty cty.Type, what string) (cty.Value, error) {
	out, err := convert.Convert(v, ty)
	if err != nil {
		return cty.NilVal, fmt.Errorf("expected %s: %w", what, err)
	}
	if out.IsNull() {
		return cty.NilVal, fmt.Errorf("expected %s, got null", what)
	}
	return out, nil
}

func toInt(v cty.Value) (cty.Value, error) {
	n, err := convertTo(v, cty.Number, "an integer")
	if err != nil {
		return cty.NilVal, err
	}
	if !n.AsBigFloat().IsInt() {
		return cty.NilVal, fmt.Errorf("expected an integer, got %s", n.AsBigFloat().Text('g', -1))
	}
	return n, nil
}

func toVector(v cty.Value, whole bool) (cty.Value, error) {
	ty := v.Type()
	if ty.Equals(cty.Number) || ty.Equals(cty.String) {
		v = cty.TupleVal([]cty.Value{v})
	}
	list, err := convertTo(v, cty.List(cty.Number), "a list of numbers")
	if err != nil {
		return cty.NilVal, err
	}
	if whole {
		for it := list.ElementIterator(); it.Next(); {
			_, el := it.Element()
			if el.IsNull() || !el.AsBigFloat().IsInt() {
				return cty.NilVal, errors.New("expected a list of integers")
			}
		}
	}
	return list, nil
}

func asEvalError(err error, name, text string) *EvalError {
	var ee *EvalError
	if errors.As(err, &ee) {
		if ee.Name == "" && name != "" {
			cp := *ee
			cp.Name = name
			return &cp
		}
		return ee
	}
	return &EvalError{Name: name, Text: text, Err: err}
}
