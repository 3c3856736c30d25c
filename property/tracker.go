package property

// Tracker records which cells a piece of code reads and reports when any of
// them changes, without holding a value of its own. Renderers use one per
// item to know whether the item needs to be drawn again.
type Tracker struct {
	node
}

// NewTracker creates a tracker that starts dirty. onDirty, if not nil, runs
// once every time the tracker goes from clean to dirty.
func NewTracker(owner Owner, onDirty func(), opts ...CellOption) *Tracker {
	t := &Tracker{}
	t.node.init(owner, t, "tracker", opts)
	t.node.flags |= fDirty
	if onDirty != nil {
		t.OnChange(onDirty)
	}
	return t
}

// RegisterAsDependency makes the evaluation currently running depend on
// everything the tracker depends on.
func (t *Tracker) RegisterAsDependency() {
	t.node.rt.readNotify(&t.node)
}

// Evaluate runs fn with the tracker as the tracking context and registers the
// tracker as a dependency of any enclosing evaluation.
func (t *Tracker) Evaluate(fn func()) error {
	t.RegisterAsDependency()
	return t.EvaluateAsRoot(fn)
}

// EvaluateAsRoot runs fn with the tracker as the tracking context, replacing
// its previous dependencies with the cells fn reads. The tracker is clean
// afterwards unless fn failed or one of the cells it read changed meanwhile.
// A failure also fails the evaluation enclosing this call, if any.
func (t *Tracker) EvaluateAsRoot(fn func()) error {
	n := &t.node
	if n.flags&fDestroyed != 0 {
		return n.destroyedError()
	}
	if n.flags&fEvaluating != 0 {
		err := n.circular()
		n.rt.fail(err)
		return err
	}

	start := n.version
	err := n.track(fn)
	if err != nil {
		n.err = err
		n.rt.fail(err)
		return err
	}
	n.err = nil
	if n.version == start {
		n.flags &^= fDirty
	}
	return nil
}

// EvaluateIfDirty calls EvaluateAsRoot only if the tracker is dirty and
// reports whether it did.
func (t *Tracker) EvaluateIfDirty(fn func()) (bool, error) {
	if !t.IsDirty() {
		return false, nil
	}
	return true, t.EvaluateAsRoot(fn)
}

// SetDirty marks the tracker and its dependents dirty without evaluating.
func (t *Tracker) SetDirty() {
	n := &t.node
	if n.flags&fDestroyed != 0 {
		return
	}
	wasClean := n.markDirty()
	n.rt.propagate(n, wasClean)
}

// Close removes the tracker from the graph. It stops being notified.
func (t *Tracker) Close() {
	if t.node.flags&fDestroyed != 0 {
		return
	}
	t.node.detach()
}
