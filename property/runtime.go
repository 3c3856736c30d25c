package property

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

type OnErrorFunc func(err error)

// Runtime is the graph scope shared by a set of cells. All reads, writes and
// binding evaluations on a runtime must happen on the goroutine that owns it;
// work from other goroutines enters through an event loop queue.
type Runtime struct {
	stack  []frame
	pass   uint64
	nextID uint64
	arena  arena

	logger   *slog.Logger
	onError  OnErrorFunc
	reported mapset.Set[uint64]

	stats Stats
}

// Stats are monotonically increasing counters, useful to assert on how much
// work a write or a read caused.
type Stats struct {
	Evaluations uint64
	Marks       uint64
	Passes      uint64
}

type Option func(rt *Runtime)

func WithLogger(logger *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = logger
	}
}

// WithErrorHandler installs a callback for every distinct binding failure,
// in addition to logging it.
func WithErrorHandler(onError OnErrorFunc) Option {
	return func(rt *Runtime) {
		rt.onError = onError
	}
}

func NewRuntime(opts ...Option) *Runtime {
	rt := &Runtime{
		logger:   slog.Default(),
		reported: mapset.NewThreadUnsafeSet[uint64](),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Owner is either a *Runtime or an *Instance. Cells and trackers created with
// an instance as owner are destroyed with it.
type Owner interface {
	Runtime() *Runtime
	adopt(n *node)
}

func (rt *Runtime) Runtime() *Runtime {
	return rt
}

func (rt *Runtime) adopt(n *node) {}

func (rt *Runtime) Stats() Stats {
	return rt.stats
}

// frame is one entry of the tracking context stack. A frame with a nil node
// is an untracked region.
type frame struct {
	n   *node
	err error
}

func (rt *Runtime) push(n *node) {
	rt.stack = append(rt.stack, frame{n: n})
}

func (rt *Runtime) pop() frame {
	last := len(rt.stack) - 1
	f := rt.stack[last]
	rt.stack[last] = frame{}
	rt.stack = rt.stack[:last]
	return f
}

// fail records err against the innermost frame, so that the evaluation that
// was running when the failure happened does not commit its value.
func (rt *Runtime) fail(err error) {
	if len(rt.stack) == 0 {
		return
	}
	top := &rt.stack[len(rt.stack)-1]
	if top.err == nil {
		top.err = err
	}
}

// IsTracking reports whether reads currently register dependency edges.
func (rt *Runtime) IsTracking() bool {
	return len(rt.stack) > 0 && rt.stack[len(rt.stack)-1].n != nil
}

// Untracked runs fn without registering dependencies on what it reads.
func (rt *Runtime) Untracked(fn func()) {
	rt.push(nil)
	defer func() {
		f := rt.pop()
		if f.err != nil {
			rt.fail(f.err)
		}
	}()
	fn()
}

// readNotify adds an edge from the cell being evaluated to n.
func (rt *Runtime) readNotify(n *node) {
	if len(rt.stack) == 0 {
		return
	}
	sub := rt.stack[len(rt.stack)-1].n
	if sub == nil || sub == n || (n.flags|sub.flags)&(fConstant|fDestroyed) != 0 {
		return
	}
	sub.deps.Add(n)
	n.subs.Add(sub)
}

func (rt *Runtime) newID() uint64 {
	rt.nextID++
	return rt.nextID
}
