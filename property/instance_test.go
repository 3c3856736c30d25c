package property_test

import (
	"testing"

	"github.com/delaneyj/propgraph/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstanceDestroy(t *testing.T) {
	rt, rec := newRuntime(t)

	parent := rt.NewInstance("parent")
	child := rt.NewInstance("child")

	width := property.New(child, 100, property.Named("width"))
	assert.Equal(t, "child.width", width.Name())

	ref := property.RefOf(width)
	total := property.New(parent, 0, property.Named("total"))
	total.SetBinding(func() int { return ref.Get() + 1 })
	direct := property.New(parent, 0, property.Named("direct"))
	direct.SetBinding(func() int { return width.Get() * 2 })

	assert.Equal(t, 101, total.Get())
	assert.Equal(t, 200, direct.Get())

	widthCalls := 0
	width.OnChange(func() { widthCalls++ })

	h := child.Handle()
	found, err := rt.Lookup(h)
	require.NoError(t, err)
	assert.Same(t, child, found)

	child.Destroy()
	assert.False(t, child.Alive())
	assert.False(t, ref.Alive())
	assert.True(t, total.IsDirty())
	assert.True(t, direct.IsDirty())

	// reading through a dead relation is a recoverable no-op
	v, err := total.TryGet()
	require.NoError(t, err)
	assert.Equal(t, 101, v)
	assert.False(t, total.IsDirty())

	v, err = direct.TryGet()
	require.NoError(t, err)
	assert.Equal(t, 200, v)

	v, err = ref.TryGet()
	assert.ErrorIs(t, err, property.ErrDanglingReference)
	assert.Equal(t, 100, v)

	v, err = width.TryGet()
	assert.ErrorIs(t, err, property.ErrDanglingReference)
	assert.Equal(t, 100, v)

	assert.ErrorIs(t, ref.TrySet(5), property.ErrDanglingReference)
	assert.ErrorIs(t, width.TrySet(5), property.ErrDanglingReference)
	assert.Equal(t, 0, widthCalls)

	_, err = rt.Lookup(h)
	assert.ErrorIs(t, err, property.ErrDanglingReference)

	require.NotEmpty(t, rec.errs)
	for _, err := range rec.errs {
		assert.ErrorIs(t, err, property.ErrDanglingReference)
	}

	// the slot is reused under a new generation
	next := rt.NewInstance("next")
	assert.NotEqual(t, h, next.Handle())
	_, err = rt.Lookup(h)
	assert.ErrorIs(t, err, property.ErrDanglingReference)
	assert.False(t, ref.Alive())

	child.Destroy()
}

func TestRefToLiveCell(t *testing.T) {
	rt, rec := newRuntime(t)

	inst := rt.NewInstance("comp")
	other := property.New(inst, "a")
	x := property.New(inst, 1)
	ref := property.RefOf(x)
	assert.Equal(t, inst.Handle(), ref.Handle())
	assert.Equal(t, "a", other.Get())

	sum := property.New(rt, 0)
	sum.SetBinding(func() int { return ref.Get() * 3 })
	assert.Equal(t, 3, sum.Get())

	ref.Set(2)
	assert.Equal(t, 2, x.Get())
	assert.True(t, sum.IsDirty())
	assert.Equal(t, 6, sum.Get())

	rootCell := property.New(rt, 7)
	rootRef := property.RefOf(rootCell)
	assert.True(t, rootRef.Handle().IsZero())
	assert.Equal(t, 7, rootRef.Get())
	assert.Empty(t, rec.errs)
}

func TestSnapshot(t *testing.T) {
	rt, rec := newRuntime(t)

	inst := rt.NewInstance("comp")
	x := property.New(inst, 1, property.Named("x"))
	y := property.New(inst, 0, property.Named("y"))
	z := property.New(rt, 0, property.Named("z"))
	y.SetBinding(func() int { return x.Get() * 2 })
	z.SetBinding(func() int { return y.Get() + x.Get() })
	z.Get()

	nodes := property.Snapshot(z)
	require.Len(t, nodes, 3)
	assert.Equal(t, "comp.x", nodes[0].Name)
	assert.Equal(t, "comp.y", nodes[1].Name)
	assert.Equal(t, "z", nodes[2].Name)
	assert.False(t, nodes[0].Bound)
	assert.True(t, nodes[1].Bound)
	assert.Equal(t, []uint64{x.ID()}, nodes[1].Deps)
	assert.ElementsMatch(t, []uint64{x.ID(), y.ID()}, nodes[2].Deps)

	x.Set(2)
	for _, n := range inst.Snapshot() {
		if n.ID != x.ID() {
			assert.True(t, n.Dirty, n.Name)
		}
	}
	assert.Empty(t, rec.errs)
}

func TestClosedTrackersLeaveInstance(t *testing.T) {
	rt, rec := newRuntime(t)

	inst := rt.NewInstance("comp")
	x := property.New(inst, 1, property.Named("x"))
	ref := property.RefOf(x)

	for range 100 {
		tr := property.NewTracker(inst, nil)
		require.NoError(t, tr.EvaluateAsRoot(func() { x.Get() }))
		tr.Close()
	}
	nodes := inst.Snapshot()
	require.Len(t, nodes, 1)
	assert.Equal(t, "comp.x", nodes[0].Name)

	// a freed slot handed to a new cell is not confused with the old one
	tr := property.NewTracker(inst, nil)
	tr.Close()
	y := property.New(inst, 2, property.Named("y"))
	assert.Len(t, inst.Snapshot(), 2)
	assert.Equal(t, 1, ref.Get())
	assert.Equal(t, 2, y.Get())

	inst.Destroy()
	assert.False(t, ref.Alive())
	assert.Empty(t, inst.Snapshot())
	assert.Empty(t, rec.errs)
}
