package bus

// Delta is the result of reconciling a port count. Drop lists the indices to
// remove, highest first so they can be removed one by one without shifting
// the others. Add lists the indices to create, in order.
type Delta struct {
	Drop []int
	Add  []int
}

// Empty reports whether the delta changes nothing.
func (d Delta) Empty() bool {
	return len(d.Drop) == 0 && len(d.Add) == 0
}

// Resize plans the change from current ports to want ports. Excess ports come
// off the tail; missing ones are appended and numbered contiguously from the
// current count. Ports that survive keep their index, and with it their
// connections.
func Resize(current, want int) Delta {
	if current < 0 {
		current = 0
	}
	if want < 0 {
		want = 0
	}

	var d Delta
	for i := current - 1; i >= want; i-- {
		d.Drop = append(d.Drop, i)
	}
	for i := current; i < want; i++ {
		d.Add = append(d.Add, i)
	}
	return d
}
