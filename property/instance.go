package property

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// Handle addresses a component instance in its runtime's arena. A handle
// outlives the instance it names: once the instance is destroyed and its slot
// reused, the generation no longer matches and lookups fail.
type Handle struct {
	index      uint32
	generation uint32
}

func (h Handle) IsZero() bool {
	return h.generation == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("%d@%d", h.index, h.generation)
}

type slot struct {
	inst       *Instance
	generation uint32
}

type arena struct {
	slots []slot
	free  []uint32
}

func (a *arena) insert(inst *Instance) Handle {
	var index uint32
	if n := len(a.free); n > 0 {
		index = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		index = uint32(len(a.slots))
		a.slots = append(a.slots, slot{})
	}
	s := &a.slots[index]
	s.generation++
	if s.generation == 0 {
		s.generation = 1
	}
	s.inst = inst
	return Handle{index: index, generation: s.generation}
}

func (a *arena) get(h Handle) *Instance {
	if h.IsZero() || int(h.index) >= len(a.slots) {
		return nil
	}
	s := a.slots[h.index]
	if s.generation != h.generation {
		return nil
	}
	return s.inst
}

func (a *arena) remove(h Handle) {
	if a.get(h) == nil {
		return
	}
	a.slots[h.index].inst = nil
	a.free = append(a.free, h.index)
}

// Instance is a component instance: a named group of cells and trackers that
// are created together and destroyed together.
type Instance struct {
	rt        *Runtime
	name      string
	handle    Handle
	nodes     []*node
	free      []int
	destroyed bool
}

func (rt *Runtime) NewInstance(name string) *Instance {
	inst := &Instance{
		rt:   rt,
		name: name,
	}
	inst.handle = rt.arena.insert(inst)
	return inst
}

// Lookup resolves a handle to a live instance.
func (rt *Runtime) Lookup(h Handle) (*Instance, error) {
	inst := rt.arena.get(h)
	if inst == nil {
		return nil, fmt.Errorf("instance %s: %w", h, ErrDanglingReference)
	}
	return inst, nil
}

func (inst *Instance) Runtime() *Runtime {
	return inst.rt
}

func (inst *Instance) adopt(n *node) {
	n.owner = inst
	if k := len(inst.free); k > 0 {
		n.slot = inst.free[k-1]
		inst.free = inst.free[:k-1]
		inst.nodes[n.slot] = n
		return
	}
	n.slot = len(inst.nodes)
	inst.nodes = append(inst.nodes, n)
}

// release gives the slot of a detached node back for reuse.
func (inst *Instance) release(n *node) {
	if n.slot >= len(inst.nodes) || inst.nodes[n.slot] != n {
		return
	}
	inst.nodes[n.slot] = nil
	inst.free = append(inst.free, n.slot)
}

func (inst *Instance) Handle() Handle {
	return inst.handle
}

func (inst *Instance) Name() string {
	return inst.name
}

func (inst *Instance) Alive() bool {
	return !inst.destroyed
}

// Destroy tears the instance down. Every owned cell loses its binding, its
// listeners and all of its edges; cells of other instances that depended on
// one of them are marked dirty so that their next read sees the dangling
// reference. The handle becomes stale and the slot is reused.
func (inst *Instance) Destroy() {
	if inst.destroyed {
		return
	}
	inst.destroyed = true

	dependents := mapset.NewThreadUnsafeSet[*node]()
	for _, n := range inst.nodes {
		if n == nil {
			continue
		}
		n.subs.Each(func(sub *node) bool {
			if sub.owner != inst {
				dependents.Add(sub)
			}
			return false
		})
	}

	for _, n := range inst.nodes {
		if n != nil && n.flags&fDestroyed == 0 {
			n.detach()
		}
	}
	inst.rt.arena.remove(inst.handle)

	dependents.Each(func(sub *node) bool {
		if sub.flags&fDestroyed == 0 {
			inst.rt.propagate(sub, sub.markDirty())
		}
		return false
	})
}

// Ref is a relation to a cell held by handle rather than by pointer, the way
// one component instance refers to a property of another. Once the owning
// instance is gone, reads return the last value seen through the ref along
// with ErrDanglingReference.
type Ref[T any] struct {
	rt    *Runtime
	owner Handle
	index int
	id    uint64
	cell  *Cell[T]
	last  T
}

func RefOf[T any](c *Cell[T]) *Ref[T] {
	r := &Ref[T]{
		rt:   c.rt,
		last: c.value,
	}
	inst := c.owner
	if inst == nil {
		r.cell = c
		return r
	}
	r.owner = inst.handle
	r.index = c.slot
	r.id = c.id
	return r
}

func (r *Ref[T]) resolve() *Cell[T] {
	if r.cell != nil {
		if r.cell.flags&fDestroyed != 0 {
			return nil
		}
		return r.cell
	}
	inst := r.rt.arena.get(r.owner)
	if inst == nil {
		return nil
	}
	n := inst.nodes[r.index]
	if n == nil || n.id != r.id {
		return nil
	}
	c, _ := n.self.(*Cell[T])
	return c
}

// Handle is the handle of the owning instance, zero for runtime-owned cells.
func (r *Ref[T]) Handle() Handle {
	return r.owner
}

func (r *Ref[T]) Alive() bool {
	return r.resolve() != nil
}

func (r *Ref[T]) Get() T {
	v, _ := r.TryGet()
	return v
}

func (r *Ref[T]) TryGet() (T, error) {
	c := r.resolve()
	if c == nil {
		return r.last, r.dangling()
	}
	v, err := c.TryGet()
	r.last = v
	return v, err
}

func (r *Ref[T]) Set(v T) {
	_ = r.TrySet(v)
}

func (r *Ref[T]) TrySet(v T) error {
	c := r.resolve()
	if c == nil {
		return r.dangling()
	}
	return c.TrySet(v)
}

func (r *Ref[T]) dangling() error {
	name := "ref " + r.owner.String()
	if r.cell != nil {
		name = r.cell.label()
	}
	err := &BindingError{
		Kind: ErrDanglingReference,
		Cell: name,
	}
	r.rt.report(err)
	return err
}
