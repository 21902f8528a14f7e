package flowgraph

import "fmt"

// Connect joins a source port to a sink port. Structural mistakes are
// rejected with *InvalidConnectionError: both ports on the same block, a port
// on the wrong side, a port this graph does not own, or a connection that
// already exists. Type compatibility is left to Validate.
func (fg *FlowGraph) Connect(src, sink *Port) (*Connection, error) {
	invalid := func(reason string) error {
		return &InvalidConnectionError{Source: portName(src), Sink: portName(sink), Reason: reason}
	}

	if src == nil || sink == nil {
		return nil, invalid("both ports are required")
	}
	if !fg.owns(src) || !fg.owns(sink) {
		return nil, invalid("port does not belong to this flowgraph")
	}
	if src.dir != Source || sink.dir != Sink {
		return nil, invalid("direction mismatch, connections run from a source to a sink")
	}
	if src.block == sink.block {
		return nil, invalid("source and sink are on the same block")
	}
	for _, c := range src.conns {
		if c.sink == sink {
			return nil, invalid("connection already exists")
		}
	}

	c := &Connection{source: src, sink: sink, enabled: true}
	fg.attach(c)
	fg.logger.Debug("Connected ports", "source", src.String(), "sink", sink.String())
	return c, nil
}

// ConnectByKey connects ports looked up by block name and port key.
func (fg *FlowGraph) ConnectByKey(srcBlock, srcKey, sinkBlock, sinkKey string) (*Connection, error) {
	src, err := fg.Port(srcBlock, Source, srcKey)
	if err != nil {
		return nil, err
	}
	sink, err := fg.Port(sinkBlock, Sink, sinkKey)
	if err != nil {
		return nil, err
	}
	return fg.Connect(src, sink)
}

// Port looks up a port by block name, direction and key.
func (fg *FlowGraph) Port(block string, dir Direction, key string) (*Port, error) {
	b, ok := fg.byName[block]
	if !ok {
		return nil, &NotFoundError{What: "block", Name: block}
	}
	p, ok := b.Port(dir, key)
	if !ok {
		return nil, &NotFoundError{What: dir.String() + " port", Name: block + ":" + key}
	}
	return p, nil
}

// RemoveConnection removes c from the graph and from both of its ports.
func (fg *FlowGraph) RemoveConnection(c *Connection) error {
	if c == nil || !fg.detach(c) {
		return fmt.Errorf("connection is not part of this flowgraph")
	}
	fg.logger.Debug("Removed connection", "connection", c.String())
	return nil
}

// SetConnectionEnabled sets a connection's stored enabled flag.
func (fg *FlowGraph) SetConnectionEnabled(c *Connection, enabled bool) error {
	if c == nil || fg.indexOf(c) < 0 {
		return fmt.Errorf("connection is not part of this flowgraph")
	}
	c.enabled = enabled
	return nil
}

func (fg *FlowGraph) owns(p *Port) bool {
	if p.block == nil || p.block.fg != fg {
		return false
	}
	for _, q := range p.block.portList(p.dir) {
		if q == p {
			return true
		}
	}
	return false
}

func (fg *FlowGraph) attach(c *Connection) {
	fg.conns = append(fg.conns, c)
	c.source.conns = append(c.source.conns, c)
	c.sink.conns = append(c.sink.conns, c)
}

func (fg *FlowGraph) indexOf(c *Connection) int {
	for i, existing := range fg.conns {
		if existing == c {
			return i
		}
	}
	return -1
}

func (fg *FlowGraph) detach(c *Connection) bool {
	i := fg.indexOf(c)
	if i < 0 {
		return false
	}
	fg.conns = append(fg.conns[:i], fg.conns[i+1:]...)
	c.source.conns = without(c.source.conns, c)
	c.sink.conns = without(c.sink.conns, c)
	return true
}

// disconnectPort removes every connection on p and returns how many.
func (fg *FlowGraph) disconnectPort(p *Port) int {
	n := 0
	for _, c := range append([]*Connection(nil), p.conns...) {
		if fg.detach(c) {
			n++
		}
	}
	return n
}

func without(conns []*Connection, c *Connection) []*Connection {
	out := conns[:0]
	for _, existing := range conns {
		if existing != c {
			out = append(out, existing)
		}
	}
	return out
}

func portName(p *Port) string {
	if p == nil {
		return "<nil>"
	}
	return p.String()
}
