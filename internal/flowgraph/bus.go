package flowgraph

import (
	"strconv"

	"github.com/specialistvlad/flowgraph/internal/blockdef"
	"github.com/specialistvlad/flowgraph/internal/bus"
	"github.com/specialistvlad/flowgraph/internal/eval"
)

// pendingFanout is a connection out of a source bus port waiting to be
// re-attached after the bus was regrouped.
type pendingFanout struct {
	index   int
	sink    *Port
	enabled bool
}

// applyBus reconciles the bus ports on one side of b with the block's bus
// flag and structure. Bus ports follow the regular ports and are keyed bus0,
// bus1 and so on. Ports aggregated by a bus port are hidden.
func (fg *FlowGraph) applyBus(b *Block, dir Direction, def *blockdef.Definition, counts []int) {
	var regular, busPorts []*Port
	for _, p := range b.portList(dir) {
		if p.IsBus() {
			busPorts = append(busPorts, p)
		} else {
			p.inBus = false
			regular = append(regular, p)
		}
	}

	if !b.Bus(dir) {
		if len(busPorts) == 0 {
			return
		}
		for _, p := range busPorts {
			fg.disconnectPort(p)
		}
		b.setPortList(dir, regular)
		fg.logger.Debug("Removed bus ports", "block", b.name, "direction", dir.String())
		return
	}

	structure := fg.busStructure(b, dir, def, counts, len(regular))
	changed := !sameGrouping(busPorts, structure)

	// Fan-out of a regrouped source bus is detached and re-attached to the
	// port at the same index, keeping every sink. Ports that disappear take
	// their connections with them.
	var fanout []pendingFanout
	if dir == Source && changed {
		for i, p := range busPorts {
			if i >= structure.Len() {
				break
			}
			for _, c := range append([]*Connection(nil), p.conns...) {
				fanout = append(fanout, pendingFanout{index: i, sink: c.sink, enabled: c.enabled})
				fg.detach(c)
			}
		}
	}

	delta := bus.Resize(len(busPorts), structure.Len())
	for _, idx := range delta.Drop {
		fg.disconnectPort(busPorts[idx])
	}
	if len(delta.Drop) > 0 {
		busPorts = busPorts[:structure.Len()]
	}
	for _, idx := range delta.Add {
		busPorts = append(busPorts, &Port{
			block:    b,
			dir:      dir,
			key:      "bus" + strconv.Itoa(idx),
			label:    "bus" + strconv.Itoa(idx),
			domain:   blockdef.DomainBus,
			defIndex: -1,
		})
	}

	for i, p := range busPorts {
		p.busMembers = append([]int(nil), structure[i]...)
	}
	members := structure.Members()
	for i, p := range regular {
		p.inBus = members[i]
	}
	b.setPortList(dir, append(regular, busPorts...))

	for _, f := range fanout {
		fg.attach(&Connection{source: busPorts[f.index], sink: f.sink, enabled: f.enabled})
	}
	if changed {
		fg.logger.Debug("Regrouped bus ports", "block", b.name, "direction", dir.String(), "groups", structure.Len())
	}
}

// busStructure returns the grouping for one side of b: the declared
// structure when it evaluates to a valid one, otherwise a group per port
// declaration when any declaration expands to several ports, otherwise one
// group holding every port.
func (fg *FlowGraph) busStructure(b *Block, dir Direction, def *blockdef.Definition, counts []int, n int) bus.Structure {
	if s, err := fg.declaredBusStructure(b, dir, def); err == nil && s.Len() > 0 && s.Validate(n) == nil {
		return s
	}
	for _, c := range counts {
		if c > 1 {
			if s := bus.FromMultiplicity(counts); s.Validate(n) == nil {
				return s
			}
			break
		}
	}
	return bus.Default(n)
}

// declaredBusStructure evaluates the definition's bus structure expression.
// It returns nil without error when none is declared.
func (fg *FlowGraph) declaredBusStructure(b *Block, dir Direction, def *blockdef.Definition) (bus.Structure, error) {
	text := def.BusStructureSink
	if dir == Source {
		text = def.BusStructureSource
	}
	if text == "" {
		return nil, nil
	}
	v, err := fg.evaluateLocal(b, text, eval.Raw)
	if err != nil {
		return nil, err
	}
	return bus.FromValue(v)
}

func sameGrouping(busPorts []*Port, s bus.Structure) bool {
	current := make(bus.Structure, len(busPorts))
	for i, p := range busPorts {
		current[i] = p.busMembers
	}
	return current.Equal(s)
}
