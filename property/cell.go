package property

// Cell is a reactive property: a cached value and an optional binding that
// computes it from other cells. Bindings are evaluated lazily on read; writes
// only mark dependents dirty.
//
// Write policy: writing a plain input cell that has a binding drops the
// binding and stores the value. Cells created with ReadOnly, and cells marked
// constant, reject writes with ErrReadOnly.
type Cell[T any] struct {
	node
	value   T
	eq      func(a, b T) bool
	binding *binding[T]
}

func New[T comparable](owner Owner, value T, opts ...CellOption) *Cell[T] {
	return NewFunc(owner, value, func(a, b T) bool {
		return a == b
	}, opts...)
}

// NewFunc creates a cell for values that are not comparable with ==, or that
// need a looser notion of equality.
func NewFunc[T any](owner Owner, value T, eq func(a, b T) bool, opts ...CellOption) *Cell[T] {
	c := &Cell[T]{
		value: value,
		eq:    eq,
	}
	c.node.init(owner, c, "cell", opts)
	c.node.release = func() {
		c.takeBinding().release()
	}
	return c
}

// Get returns the current value, evaluating the binding first if the cell is
// dirty. Failures are reported to the runtime's diagnostics channel and the
// last good value is returned.
func (c *Cell[T]) Get() T {
	v, _ := c.TryGet()
	return v
}

// TryGet is Get that also returns the failure of this read, if any. A
// circular binding makes every read fail until the binding is replaced.
func (c *Cell[T]) TryGet() (T, error) {
	n := &c.node
	if n.flags&fDestroyed != 0 {
		return c.value, n.destroyedError()
	}
	n.rt.readNotify(n)
	err := c.refresh()
	return c.value, err
}

// GetUntracked is Get without registering a dependency of the binding being
// evaluated on this cell.
func (c *Cell[T]) GetUntracked() T {
	n := &c.node
	if n.flags&fDestroyed != 0 {
		n.destroyedError()
		return c.value
	}
	c.refresh()
	return c.value
}

func (c *Cell[T]) refresh() error {
	n := &c.node
	if n.flags&fEvaluating != 0 {
		err := n.circular()
		n.rt.fail(err)
		return err
	}
	if n.flags&fDirty == 0 {
		return nil
	}
	if c.binding == nil {
		n.flags &^= fDirty
		return nil
	}
	if err := c.evaluate(); err != nil {
		n.rt.fail(err)
		return err
	}
	return nil
}

func (c *Cell[T]) evaluate() error {
	n := &c.node
	b := c.binding
	start := n.version

	var (
		value  T
		result BindingResult
	)
	err := n.track(func() {
		value, result = b.eval(c.value)
	})
	if c.binding != b {
		// The binding replaced itself while running; its result is stale.
		if c.binding == nil {
			n.unlinkDeps()
		}
		return err
	}
	if err != nil {
		n.err = err
		return err
	}

	n.err = nil
	c.value = value
	if n.version == start {
		n.flags &^= fDirty
	}
	if result == RemoveBinding {
		c.clearBinding()
		n.flags &^= fDirty
	}
	return nil
}

func (c *Cell[T]) Set(v T) {
	_ = c.TrySet(v)
}

// TrySet writes v. If the cell is bound the binding is dropped, unless it is a
// two-way alias, in which case the write goes to the shared cell.
func (c *Cell[T]) TrySet(v T) error {
	if err := c.checkWritable(true); err != nil {
		return err
	}
	if b := c.binding; b != nil {
		if b.interceptSet != nil {
			return b.interceptSet(v)
		}
		c.clearBinding()
	}
	return c.store(v)
}

func (c *Cell[T]) checkWritable(value bool) error {
	n := &c.node
	var kind error
	switch {
	case n.flags&fDestroyed != 0:
		kind = ErrDanglingReference
	case n.flags&fConstant != 0, value && n.flags&fReadOnly != 0:
		kind = ErrReadOnly
	case n.flags&fNotifying != 0:
		kind = ErrReentrantMutation
	default:
		return nil
	}
	err := newBindingError(kind, n)
	n.rt.report(err, n)
	return err
}

// store makes the cell clean with value v and, if that changed what readers
// observe, marks every dependent dirty.
func (c *Cell[T]) store(v T) error {
	n := &c.node
	wasDirty := n.flags&fDirty != 0
	n.flags &^= fDirty
	n.err = nil
	if !wasDirty && c.eq(c.value, v) {
		return nil
	}
	c.value = v
	n.version++
	n.rt.propagate(n, true)
	return nil
}

// SetBinding installs fn as the cell's binding. fn is not called until the
// cell is read.
func (c *Cell[T]) SetBinding(fn func() T) {
	c.SetBindingWith(BindingFunc[T](func(T) (T, BindingResult) {
		return fn(), KeepBinding
	}))
}

func (c *Cell[T]) SetBindingWith(b Binding[T]) {
	c.setBinding(newBinding(b))
}

func (c *Cell[T]) setBinding(nb *binding[T]) error {
	if err := c.checkWritable(false); err != nil {
		return err
	}
	if old := c.binding; old != nil && old.interceptSetBinding != nil {
		return old.interceptSetBinding(nb)
	}
	c.install(nb)
	return nil
}

// install replaces whatever binding the cell has with nb, bypassing any
// interception, and dirties the cell and its dependents.
func (c *Cell[T]) install(nb *binding[T]) {
	n := &c.node
	n.unlinkDeps()
	c.binding.release()
	c.binding = nb
	n.flags |= fHasBinding
	n.err = nil
	n.rt.forget(n)
	n.markDirty()
	n.rt.propagate(n, true)
}

func (c *Cell[T]) clearBinding() {
	c.takeBinding().release()
}

// takeBinding detaches the binding from the cell without releasing it, so
// that it can be installed elsewhere.
func (c *Cell[T]) takeBinding() *binding[T] {
	n := &c.node
	b := c.binding
	c.binding = nil
	n.flags &^= fHasBinding
	n.unlinkDeps()
	n.rt.forget(n)
	return b
}

func (c *Cell[T]) HasBinding() bool {
	return c.binding != nil
}

// MarkDirty forces the cell (if bound) and everything depending on it to be
// considered stale, whether or not any input changed.
func (c *Cell[T]) MarkDirty() {
	n := &c.node
	if n.flags&fDestroyed != 0 {
		return
	}
	if c.binding != nil {
		n.markDirty()
	} else {
		n.version++
	}
	n.rt.propagate(n, true)
}

// SetConstant promises that a plain cell will never change again: reads stop
// recording dependencies on it and writes are rejected. It has no effect on a
// bound cell.
func (c *Cell[T]) SetConstant() {
	if c.binding != nil {
		return
	}
	c.node.flags |= fConstant
}

// common returns the shared cell if c is one side of a two-way alias.
func (c *Cell[T]) common() *Cell[T] {
	if c.binding == nil {
		return nil
	}
	return c.binding.common
}
