package flowgraph

import (
	"fmt"
	"strconv"

	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/bus"
	"github.com/specialistvlad/flowgraph/internal/eval"
	"github.com/zclconf/go-cty/cty"
)

// maxMultiplicity bounds how many ports one declaration may expand into.
const maxMultiplicity = 1024

// Rewrite brings every block's ports in line with its current parameters and
// recomputes the variable evaluation order. It is idempotent.
func (fg *FlowGraph) Rewrite() {
	fg.Elements()
	for _, b := range fg.blocks {
		fg.rewriteBlock(b)
	}
	fg.resolve()
	fg.logger.Debug("Rewrote flowgraph",
		"blocks", len(fg.blocks),
		"connections", len(fg.conns),
		"version", fg.version,
	)
}

func (fg *FlowGraph) rewriteBlock(b *Block) {
	def, ok := b.Definition()
	if !ok {
		return
	}
	for _, dir := range []Direction{Sink, Source} {
		defs := portDefs(def, dir)
		counts := fg.multiplicities(b, dir, defs)
		fg.reconcilePorts(b, dir, defs, counts)
		fg.applyBus(b, dir, def, counts)
	}
}

func portDefs(def *blockdef.Definition, dir Direction) []blockdef.PortDef {
	if dir == Source {
		return def.Sources
	}
	return def.Sinks
}

// multiplicities evaluates each port declaration's multiplicity. When an
// expression does not evaluate, the declaration keeps the ports it has so a
// half-typed edit does not drop connections.
func (fg *FlowGraph) multiplicities(b *Block, dir Direction, defs []blockdef.PortDef) []int {
	current := make([]int, len(defs))
	for _, p := range b.portList(dir) {
		if p.defIndex >= 0 && p.defIndex < len(defs) {
			current[p.defIndex]++
		}
	}

	counts := make([]int, len(defs))
	for i, pd := range defs {
		if pd.Multiplicity == "" {
			counts[i] = 1
			continue
		}
		n, err := fg.multiplicity(b, pd.Multiplicity)
		if err != nil {
			counts[i] = current[i]
			if counts[i] == 0 {
				counts[i] = 1
			}
			continue
		}
		counts[i] = n
	}
	return counts
}

func (fg *FlowGraph) multiplicity(b *Block, text string) (int, error) {
	v, err := fg.evaluateLocal(b, text, eval.Int)
	if err != nil {
		return 0, err
	}
	return checkMultiplicity(v)
}

func checkMultiplicity(v cty.Value) (int, error) {
	n, _ := v.AsBigFloat().Int64()
	if n < 0 || n > maxMultiplicity {
		return 0, fmt.Errorf("port multiplicity %d is outside 0..%d", n, maxMultiplicity)
	}
	return int(n), nil
}

// reconcilePorts resizes each declaration's run of ports to its count.
// Surplus ports come off the tail of the run together with their
// connections; new ones are appended as clones of the run's first port.
func (fg *FlowGraph) reconcilePorts(b *Block, dir Direction, defs []blockdef.PortDef, counts []int) {
	groups := make([][]*Port, len(defs))
	var busPorts []*Port
	for _, p := range b.portList(dir) {
		switch {
		case p.IsBus():
			busPorts = append(busPorts, p)
		case p.defIndex >= 0 && p.defIndex < len(defs):
			groups[p.defIndex] = append(groups[p.defIndex], p)
		}
	}

	changed := false
	for i, pd := range defs {
		delta := bus.Resize(len(groups[i]), counts[i])
		if delta.Empty() {
			continue
		}
		changed = true
		for _, idx := range delta.Drop {
			fg.disconnectPort(groups[i][idx])
		}
		if len(delta.Drop) > 0 {
			groups[i] = groups[i][:counts[i]]
		}
		for range delta.Add {
			p := newPort(b, dir, i, pd)
			if len(groups[i]) > 0 {
				p.master = groups[i][0]
			}
			groups[i] = append(groups[i], p)
		}
	}
	if !changed {
		return
	}

	var ports []*Port
	for _, g := range groups {
		ports = append(ports, g...)
	}
	ports = append(ports, busPorts...)
	b.setPortList(dir, ports)
	rekey(ports, defs)
	fg.logger.Debug("Reconciled ports", "block", b.name, "direction", dir.String(), "count", len(ports))
}

func newPort(b *Block, dir Direction, defIndex int, pd blockdef.PortDef) *Port {
	label := pd.Label
	if label == "" {
		if dir == Source {
			label = "out"
		} else {
			label = "in"
		}
	}
	return &Port{
		block:    b,
		dir:      dir,
		label:    label,
		domain:   pd.Domain,
		dtype:    pd.DType,
		optional: pd.Optional,
		hidden:   pd.Hidden,
		defIndex: defIndex,
	}
}

// rekey assigns port keys. Ports declared with an id keep it, their clones
// get the id followed by the clone number. The others are numbered per
// domain in order.
func rekey(ports []*Port, defs []blockdef.PortDef) {
	domainIndex := make(map[string]int)
	cloneIndex := make(map[int]int)
	busIndex := 0
	for _, p := range ports {
		if p.IsBus() {
			p.key = "bus" + strconv.Itoa(busIndex)
			busIndex++
			continue
		}
		if id := defs[p.defIndex].ID; id != "" {
			if p.master == nil {
				p.key = id
			} else {
				cloneIndex[p.defIndex]++
				p.key = id + strconv.Itoa(cloneIndex[p.defIndex])
			}
			continue
		}
		p.key = strconv.Itoa(domainIndex[p.domain])
		domainIndex[p.domain]++
	}
}
