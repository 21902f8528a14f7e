package flowgraph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/flowgraph/internal/eval"
	"github.com/zclconf/go-cty/cty"
)

// SetParam replaces a parameter's text. The graph version moves, so this
// parameter's cached value and those of everything depending on it are
// recomputed on next access.
func (fg *FlowGraph) SetParam(name, key, text string) error {
	p, err := fg.Param(name, key)
	if err != nil {
		return err
	}
	if p.text == text {
		return nil
	}
	p.text = text
	fg.bump()
	fg.logger.Debug("Set param", "block", name, "param", key, "text", text)
	return nil
}

// Param looks up a parameter by block name and key.
func (fg *FlowGraph) Param(name, key string) (*Param, error) {
	b, ok := fg.byName[name]
	if !ok {
		return nil, &NotFoundError{What: "block", Name: name}
	}
	p, ok := b.Param(key)
	if !ok {
		return nil, &NotFoundError{What: "param", Name: name + "." + key}
	}
	return p, nil
}

// ParamValue returns a parameter's evaluated value. Failures are
// *eval.EvalError and concern this parameter only.
func (fg *FlowGraph) ParamValue(name, key string) (cty.Value, error) {
	p, err := fg.Param(name, key)
	if err != nil {
		return cty.NilVal, err
	}
	return fg.paramValue(p)
}

func (fg *FlowGraph) paramValue(p *Param) (cty.Value, error) {
	if p.fresh() {
		return p.value, p.err
	}

	b := p.block
	if b.IsPlaceholder() {
		return cty.NilVal, fmt.Errorf("param '%s' of block '%s' cannot be evaluated: %w '%s'", p.key, b.name, ErrUnknownKey, b.Key())
	}

	ns := fg.Namespace()
	var v cty.Value
	var err error
	if fg.isBoundValue(p) {
		if bound, ok := ns.Value(b.name); ok {
			v = bound
		} else if nsErr, ok := ns.Errors[b.name]; ok {
			err = nsErr
		} else {
			v, err = fg.engine.Evaluate(ns, p.text, p.dtype, nil)
		}
	} else {
		v, err = fg.engine.Evaluate(ns, p.text, p.dtype, nil)
	}

	if err == nil && p.dtype == eval.Enum && p.def != nil && !p.def.HasOption(v.AsString()) {
		err = &eval.EvalError{
			Text: p.text,
			Err:  fmt.Errorf("'%s' is not one of %s", v.AsString(), strings.Join(p.def.Options, ", ")),
		}
	}
	err = scopeError(err, p.key)

	p.value, p.err = v, err
	p.stamp, p.valid = fg.version, true
	return v, err
}

// isBoundValue reports whether p is the value parameter of a variable-like
// block that the namespace binds.
func (fg *FlowGraph) isBoundValue(p *Param) bool {
	b := p.block
	if !b.VariableLike() || !b.Enabled() {
		return false
	}
	def, _ := b.Definition()
	return def.ValueParam == p.key
}

// scopeError names the parameter on an evaluation error without touching the
// engine's cached error value.
func scopeError(err error, key string) error {
	if err == nil {
		return nil
	}
	var ee *eval.EvalError
	if errors.As(err, &ee) {
		cp := *ee
		cp.Name = key
		return &cp
	}
	return &eval.EvalError{Name: key, Err: err}
}

// locals returns the successfully evaluated parameters of b, for expressions
// that may refer to the block's own parameters.
func (fg *FlowGraph) locals(b *Block) map[string]cty.Value {
	out := make(map[string]cty.Value, len(b.params))
	for _, p := range b.params {
		if v, err := fg.paramValue(p); err == nil {
			out[p.key] = v
		}
	}
	return out
}

// evaluateLocal evaluates a definition expression of b with b's parameters in
// scope.
func (fg *FlowGraph) evaluateLocal(b *Block, text string, dtype eval.DType) (cty.Value, error) {
	return fg.engine.Evaluate(fg.Namespace(), text, dtype, fg.locals(b))
}
