package property

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

type nodeFlags uint16

const (
	fDirty nodeFlags = 1 << iota
	fEvaluating
	fNotifying
	fHasBinding
	fReadOnly
	fConstant
	fDestroyed
)

// node is the untyped part of every cell and tracker: identity, flags and
// both directions of the dependency edges.
type node struct {
	rt      *Runtime
	self    any
	owner   *Instance
	slot    int
	id      uint64
	name    string
	kind    string
	flags   nodeFlags
	version uint64
	pass    uint64
	err     error

	// deps are the nodes read during the last evaluation, subs the nodes whose
	// last evaluation read this one. prevDeps is scratch space reused while
	// an evaluation rebuilds deps.
	deps, prevDeps, subs mapset.Set[*node]

	listeners    []*listener
	reportedKeys []uint64
	release      func()
}

type listener struct {
	fn      func()
	stopped bool
}

type CellOption func(o *cellOptions)

type cellOptions struct {
	name     string
	readOnly bool
}

// Named sets the name used in diagnostics and graph dumps.
func Named(name string) CellOption {
	return func(o *cellOptions) {
		o.name = name
	}
}

// ReadOnly marks an output property: it can be bound but not written.
func ReadOnly() CellOption {
	return func(o *cellOptions) {
		o.readOnly = true
	}
}

func (n *node) init(owner Owner, self any, kind string, opts []CellOption) {
	var o cellOptions
	for _, opt := range opts {
		opt(&o)
	}

	rt := owner.Runtime()
	n.rt = rt
	n.self = self
	n.id = rt.newID()
	n.kind = kind
	n.name = o.name
	if n.name == "" {
		n.name = fmt.Sprintf("%s#%d", kind, n.id)
	}
	if o.readOnly {
		n.flags |= fReadOnly
	}
	n.deps = mapset.NewThreadUnsafeSet[*node]()
	n.prevDeps = mapset.NewThreadUnsafeSet[*node]()
	n.subs = mapset.NewThreadUnsafeSet[*node]()
	owner.adopt(n)
}

func (n *node) label() string {
	if n == nil {
		return ""
	}
	if n.owner != nil {
		return n.owner.name + "." + n.name
	}
	return n.name
}

func (n *node) inspect() *node {
	return n
}

func (n *node) ID() uint64 {
	return n.id
}

func (n *node) Name() string {
	return n.label()
}

func (n *node) Runtime() *Runtime {
	return n.rt
}

// Owner is the instance the node was created in, or its runtime.
func (n *node) Owner() Owner {
	if n.owner != nil {
		return n.owner
	}
	return n.rt
}

// Version increases every time the node is marked dirty or written.
func (n *node) Version() uint64 {
	return n.version
}

func (n *node) IsDirty() bool {
	return n.flags&fDirty != 0
}

// Err is the error of the last evaluation, nil once it succeeds.
func (n *node) Err() error {
	return n.err
}

// OnChange registers fn to run synchronously at the end of every propagation
// pass that dirties (bound) or changes (plain) this node. fn must not write
// the node it is attached to, nor the node whose write started the pass; such
// writes are rejected.
func (n *node) OnChange(fn func()) (stop func()) {
	l := &listener{fn: fn}
	n.listeners = append(n.listeners, l)
	return func() {
		if l.stopped {
			return
		}
		l.stopped = true
		n.listeners = slices.DeleteFunc(n.listeners, func(other *listener) bool {
			return other == l
		})
	}
}

// beginTracking moves the current dependency set aside so that the coming
// evaluation records a fresh one.
func (n *node) beginTracking() {
	n.deps, n.prevDeps = n.prevDeps, n.deps
	n.deps.Clear()
}

// endTracking drops the back-references of every dependency that the last
// evaluation did not read again.
func (n *node) endTracking() {
	n.prevDeps.Each(func(dep *node) bool {
		if !n.deps.Contains(dep) {
			dep.subs.Remove(n)
		}
		return false
	})
	n.prevDeps.Clear()
}

func (n *node) unlinkDeps() {
	n.deps.Each(func(dep *node) bool {
		dep.subs.Remove(n)
		return false
	})
	n.deps.Clear()
}

// track runs fn as the evaluation of n: n becomes the active tracking context
// and collects a fresh dependency set. The returned error is the first
// failure recorded against this evaluation.
func (n *node) track(fn func()) (err error) {
	rt := n.rt
	n.flags |= fEvaluating
	n.beginTracking()
	rt.push(n)
	rt.stats.Evaluations++
	defer func() {
		err = rt.pop().err
		n.flags &^= fEvaluating
		n.endTracking()
	}()
	fn()
	return nil
}

// circular builds the error for a read of n while n is still evaluating. The
// path runs from n's own frame to the top of the stack and back to n.
func (n *node) circular() *BindingError {
	rt := n.rt
	start := len(rt.stack) - 1
	for ; start >= 0; start-- {
		if rt.stack[start].n == n {
			break
		}
	}

	var (
		path     []string
		involved []*node
	)
	for _, f := range rt.stack[max(start, 0):] {
		if f.n == nil {
			continue
		}
		path = append(path, f.n.label())
		involved = append(involved, f.n)
	}
	path = append(path, n.label())

	err := newBindingError(ErrCircularBinding, n, path...)
	rt.report(err, involved...)
	return err
}

func (n *node) markDirty() (wasClean bool) {
	wasClean = n.flags&fDirty == 0
	n.flags |= fDirty
	n.version++
	n.rt.stats.Marks++
	return wasClean
}

// propagate marks every node that transitively depends on origin dirty. Each
// node is visited once per pass no matter how many paths lead to it, and no
// binding is evaluated. Listeners run after the whole pass has been marked.
func (rt *Runtime) propagate(origin *node, notifyOrigin bool) {
	rt.pass++
	rt.stats.Passes++
	pass := rt.pass
	origin.pass = pass

	var notify []*node
	if notifyOrigin && len(origin.listeners) > 0 {
		notify = append(notify, origin)
	}

	work := []*node{origin}
	for len(work) > 0 {
		last := len(work) - 1
		n := work[last]
		work = work[:last]

		n.subs.Each(func(sub *node) bool {
			if sub.pass == pass {
				return false
			}
			sub.pass = pass
			if sub.markDirty() && len(sub.listeners) > 0 {
				notify = append(notify, sub)
			}
			work = append(work, sub)
			return false
		})
	}

	if len(notify) == 0 {
		return
	}

	// The origin stays locked while listeners run, so a listener cannot feed
	// a write back into the cell that triggered it.
	locked := origin.flags & fNotifying
	origin.flags |= fNotifying
	defer func() {
		origin.flags = origin.flags&^fNotifying | locked
	}()
	for _, n := range notify {
		if n == origin {
			n.flags = n.flags&^fNotifying | locked
		}
		rt.notify(n)
		if n == origin {
			n.flags |= fNotifying
		}
	}
}

// notify runs the listeners of n. A node whose listeners are already running
// further up the stack is not notified again; the write that re-dirtied it is
// reported instead.
func (rt *Runtime) notify(n *node) {
	if n.flags&fDestroyed != 0 {
		return
	}
	if n.flags&fNotifying != 0 {
		err := newBindingError(ErrReentrantMutation, n)
		rt.report(err, n)
		return
	}
	n.flags |= fNotifying
	defer func() {
		n.flags &^= fNotifying
	}()

	for _, l := range slices.Clone(n.listeners) {
		if !l.stopped {
			l.fn()
		}
	}
}

// detach removes n from the graph for good. Former dependents keep no edge to
// it; reads through stale pointers see the last value and a dangling error.
func (n *node) detach() {
	n.unlinkDeps()
	n.subs.Each(func(sub *node) bool {
		sub.deps.Remove(n)
		return false
	})
	n.subs.Clear()
	for _, l := range n.listeners {
		l.stopped = true
	}
	n.listeners = nil
	if n.release != nil {
		n.release()
	}
	n.flags = n.flags&^(fDirty|fHasBinding) | fDestroyed
	n.rt.forget(n)
	if n.owner != nil {
		n.owner.release(n)
	}
}

func (n *node) destroyedError() *BindingError {
	err := newBindingError(ErrDanglingReference, n)
	n.rt.report(err, n)
	return err
}
