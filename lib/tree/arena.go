package tree

// Slot 0 is never handed out, so a zero link means "no child".
const nilIdx uint32 = 0

// arena owns every node of one map. Links between nodes are slot
// indices, a node is destroyed only by release.
// Pointers returned by at are invalidated by the next alloc.
type arena[N any] struct {
	slots    []N
	recycled []uint32
}

func newArena[N any](capacity int) *arena[N] {
	return &arena[N]{
		slots:    make([]N, 1, capacity+1),
		recycled: make([]uint32, 0, 16),
	}
}

func (a *arena[N]) alloc(node N) uint32 {
	if rl := len(a.recycled); rl > 0 {
		idx := a.recycled[rl-1]
		a.recycled = a.recycled[:rl-1]
		a.slots[idx] = node
		return idx
	}
	a.slots = append(a.slots, node)
	return uint32(len(a.slots) - 1)
}

func (a *arena[N]) at(idx uint32) *N {
	if idx == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[omap] dereference the nil slot")
	}
	return &a.slots[idx]
}

func (a *arena[N]) release(idx uint32) {
	if idx == nilIdx {
		// impossible run to here
		panic( /* debug assertion */ "[omap] release the nil slot")
	}
	var zero N
	a.slots[idx] = zero
	a.recycled = append(a.recycled, idx)
}

func (a *arena[N]) live() int {
	return len(a.slots) - 1 - len(a.recycled)
}

func (a *arena[N]) reset() {
	clear(a.slots)
	a.slots = a.slots[:1]
	a.recycled = a.recycled[:0]
}
