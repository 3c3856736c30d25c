package property

// forwarder stops a write that is being redirected to a shared cell from
// coming back to the same alias, which would otherwise recurse forever when
// aliases end up chained in a loop.
type forwarder struct {
	forwarding bool
	n          *node
}

func (f *forwarder) forward(fn func() error) error {
	if f.forwarding {
		err := newBindingError(ErrReentrantMutation, f.n)
		f.n.rt.report(err, f.n)
		return err
	}
	f.forwarding = true
	defer func() {
		f.forwarding = false
	}()
	return fn()
}

// aliasOf returns the binding that makes a cell a plain alias of common: it
// reads common, and writes or re-bindings of the cell land on common.
func aliasOf[T any](common *Cell[T]) *binding[T] {
	guard := &forwarder{n: &common.node}
	return &binding[T]{
		common: common,
		eval: func(T) (T, BindingResult) {
			return common.Get(), KeepBinding
		},
		interceptSet: func(v T) error {
			return guard.forward(func() error {
				return common.TrySet(v)
			})
		},
		interceptSetBinding: func(nb *binding[T]) error {
			return guard.forward(func() error {
				return common.setBinding(nb)
			})
		},
	}
}

// root follows a chain of aliases to the cell that actually holds the value.
func root[T any](c *Cell[T]) *Cell[T] {
	for {
		next := c.common()
		if next == nil || next == c {
			return c
		}
		c = next
	}
}

// LinkTwoWay makes a and b aliases of each other: after the call both read the
// same value and a write to either is visible through both. The value of b
// wins. If b had a binding, that binding keeps driving the pair. Linking cells
// that are already aliases of each other is a no-op.
func LinkTwoWay[T any](a, b *Cell[T]) {
	value := b.GetUntracked()

	ca, cb := a.common(), b.common()
	if ca != nil && cb != nil && root(ca) == root(cb) {
		return
	}

	switch {
	case ca != nil:
		shared := root(ca)
		if cb != nil {
			b.setBinding(aliasOf(shared))
			b.TrySet(value)
			return
		}
		nb := b.takeBinding()
		b.install(aliasOf(shared))
		if nb != nil {
			shared.install(nb)
		} else {
			b.TrySet(value)
		}
	case cb != nil:
		a.install(aliasOf(root(cb)))
	default:
		common := NewFunc(b.rt, value, b.eq, Named("<"+a.label()+"<=>"+b.label()+">"))
		if nb := b.takeBinding(); nb != nil {
			common.install(nb)
		}
		a.install(aliasOf(common))
		b.install(aliasOf(common))
	}
}

// LinkTwoWayMap links b to a through a pair of conversions. b reads
// mapTo(a); a write of v to b stores mapFrom(current a, v) in a. The value of
// a wins. If b had a binding, it keeps driving the pair through mapFrom.
func LinkTwoWayMap[T, U any](a *Cell[T], b *Cell[U], mapTo func(T) U, mapFrom func(old T, v U) T) {
	common := a.common()
	if common != nil {
		common = root(common)
	} else {
		common = NewFunc(a.rt, a.GetUntracked(), a.eq, Named(a.label()+"*"))
		if nb := a.takeBinding(); nb != nil {
			common.install(nb)
		}
		a.install(aliasOf(common))
	}

	old := b.takeBinding()
	b.install(mappedAliasOf(common, mapTo, mapFrom))
	if old != nil {
		b.setBinding(old)
	}
}

func mappedAliasOf[T, U any](common *Cell[T], mapTo func(T) U, mapFrom func(old T, v U) T) *binding[U] {
	guard := &forwarder{n: &common.node}
	return &binding[U]{
		eval: func(U) (U, BindingResult) {
			return mapTo(common.Get()), KeepBinding
		},
		interceptSet: func(v U) error {
			return guard.forward(func() error {
				return common.TrySet(mapFrom(common.GetUntracked(), v))
			})
		},
		interceptSetBinding: func(nb *binding[U]) error {
			return guard.forward(func() error {
				return common.setBinding(mapBinding(nb, mapTo, mapFrom))
			})
		},
	}
}

// mapBinding turns a binding producing U into one producing T, so that a
// binding set on the mapped side of a link drives the shared cell.
func mapBinding[T, U any](nb *binding[U], mapTo func(T) U, mapFrom func(old T, v U) T) *binding[T] {
	mb := &binding[T]{
		eval: func(old T) (T, BindingResult) {
			v, _ := nb.eval(mapTo(old))
			return mapFrom(old, v), KeepBinding
		},
		dispose: nb.release,
	}
	if nb.interceptSet != nil {
		mb.interceptSet = func(v T) error {
			return nb.interceptSet(mapTo(v))
		}
	}
	return mb
}
