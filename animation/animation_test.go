package animation_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/delaneyj/propgraph/animation"
	"github.com/delaneyj/propgraph/property"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*property.Runtime, *animation.Driver) {
	t.Helper()
	rt := property.NewRuntime(
		property.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		property.WithErrorHandler(func(err error) {
			assert.FailNow(t, err.Error())
		}),
	)
	return rt, animation.NewDriver(rt, t0)
}

func at(ms int) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func TestAnimatedValueSettles(t *testing.T) {
	rt, d := setup(t)

	c := property.New(rt, 0.0, property.Named("x"))
	doubled := property.New(rt, 0.0)
	doubled.SetBinding(func() float64 { return c.Get() * 2 })

	animation.SetAnimatedValue(c, d, 100, animation.Details{Duration: 100 * time.Millisecond})
	assert.Equal(t, 0.0, c.Get())
	assert.True(t, d.HasActiveAnimations())

	d.AdvanceTime(at(50))
	assert.False(t, d.HasActiveAnimations())
	assert.True(t, c.IsDirty())
	assert.InDelta(t, 50, c.Get(), 1e-9)
	assert.InDelta(t, 100, doubled.Get(), 1e-9)
	assert.True(t, d.HasActiveAnimations())

	d.AdvanceTime(at(100))
	assert.Equal(t, 100.0, c.Get())
	assert.False(t, c.HasBinding())
	assert.False(t, d.HasActiveAnimations())
	assert.Equal(t, 200.0, doubled.Get())

	d.AdvanceTime(at(150))
	assert.False(t, c.IsDirty())
	assert.Equal(t, 100.0, c.Get())
}

func TestAnimatedValueIsStrictlyBetweenEndpoints(t *testing.T) {
	rt, d := setup(t)

	c := property.New(rt, 10.0)
	animation.SetAnimatedValue(c, d, 20, animation.Details{
		Duration: time.Second,
		Easing:   animation.EaseInOut,
	})
	c.Get()

	last := 10.0
	for ms := 100; ms < 1000; ms += 100 {
		d.AdvanceTime(at(ms))
		v := c.Get()
		assert.Greater(t, v, 10.0)
		assert.Less(t, v, 20.0)
		assert.GreaterOrEqual(t, v, last)
		last = v
	}

	d.AdvanceTime(at(1000))
	assert.Equal(t, 20.0, c.Get())
}

func TestAnimatedValueDelay(t *testing.T) {
	rt, d := setup(t)

	c := property.New(rt, 0)
	animation.SetAnimatedValue(c, d, 100, animation.Details{
		Delay:    50 * time.Millisecond,
		Duration: 100 * time.Millisecond,
	})
	assert.Equal(t, 0, c.Get())

	d.AdvanceTime(at(20))
	assert.Equal(t, 0, c.Get())

	d.AdvanceTime(at(100))
	assert.Equal(t, 50, c.Get())

	d.AdvanceTime(at(150))
	assert.Equal(t, 100, c.Get())
	assert.False(t, c.HasBinding())
}

func TestAnimatedValueAlternate(t *testing.T) {
	rt, d := setup(t)

	c := property.New(rt, 0.0)
	animation.SetAnimatedValue(c, d, 100, animation.Details{
		Duration:       100 * time.Millisecond,
		IterationCount: 2,
		Direction:      animation.Alternate,
	})
	assert.Equal(t, 0.0, c.Get())

	d.AdvanceTime(at(50))
	assert.InDelta(t, 50, c.Get(), 1e-9)

	d.AdvanceTime(at(175))
	assert.InDelta(t, 25, c.Get(), 1e-9)

	d.AdvanceTime(at(200))
	assert.Equal(t, 0.0, c.Get())
	assert.False(t, c.HasBinding())
}

func TestAnimatedValueInfinite(t *testing.T) {
	rt, d := setup(t)

	c := property.New(rt, 0.0)
	animation.SetAnimatedValue(c, d, 100, animation.Details{
		Duration:       100 * time.Millisecond,
		IterationCount: -1,
	})
	c.Get()

	d.AdvanceTime(at(1030))
	assert.InDelta(t, 30, c.Get(), 1e-9)
	assert.True(t, c.HasBinding())
	assert.True(t, d.HasActiveAnimations())
}

func TestSetCancelsAnimation(t *testing.T) {
	rt, d := setup(t)

	c := property.New(rt, 0.0)
	animation.SetAnimatedValue(c, d, 100, animation.Details{Duration: 100 * time.Millisecond})
	c.Get()

	d.AdvanceTime(at(50))
	assert.InDelta(t, 50, c.Get(), 1e-9)

	c.Set(7)
	assert.False(t, c.HasBinding())
	d.AdvanceTime(at(100))
	assert.False(t, c.IsDirty())
	assert.Equal(t, 7.0, c.Get())
}

func TestAnimatedValueRestartsFromCurrent(t *testing.T) {
	rt, d := setup(t)

	c := property.New(rt, 0.0)
	details := animation.Details{Duration: 100 * time.Millisecond}
	animation.SetAnimatedValue(c, d, 100, details)
	c.Get()
	d.AdvanceTime(at(50))
	require.InDelta(t, 50, c.Get(), 1e-9)

	animation.SetAnimatedValue(c, d, 0, details)
	assert.InDelta(t, 50, c.Get(), 1e-9)
	d.AdvanceTime(at(100))
	assert.InDelta(t, 25, c.Get(), 1e-9)
	d.AdvanceTime(at(150))
	assert.Equal(t, 0.0, c.Get())
}

func TestAnimatedBinding(t *testing.T) {
	rt, d := setup(t)

	src := property.New(rt, 40.0, property.Named("src"))
	c := property.New(rt, 0.0, property.Named("c"))
	animation.SetAnimatedBinding(c, d, func() float64 { return src.Get() }, animation.Details{
		Duration: 100 * time.Millisecond,
	})

	// the first value is applied directly
	assert.Equal(t, 40.0, c.Get())
	assert.False(t, d.HasActiveAnimations())

	src.Set(140)
	assert.True(t, c.IsDirty())
	assert.Equal(t, 40.0, c.Get())
	assert.True(t, d.HasActiveAnimations())

	d.AdvanceTime(at(50))
	assert.InDelta(t, 90, c.Get(), 1e-9)

	d.AdvanceTime(at(100))
	assert.Equal(t, 140.0, c.Get())
	assert.False(t, d.HasActiveAnimations())
	assert.True(t, c.HasBinding())

	// once settled, ticks stop dirtying the binding
	d.AdvanceTime(at(120))
	assert.Equal(t, 140.0, c.Get())
	d.AdvanceTime(at(130))
	assert.False(t, c.IsDirty())

	src.Set(40)
	assert.Equal(t, 140.0, c.Get())
	d.AdvanceTime(at(180))
	assert.InDelta(t, 90, c.Get(), 1e-9)

	// a plain write replaces the animated binding
	c.Set(1)
	src.Set(0)
	d.AdvanceTime(at(300))
	assert.Equal(t, 1.0, c.Get())
}

func TestAnimatedBindingRebindDoesNotGrowInstance(t *testing.T) {
	rt, d := setup(t)

	inst := rt.NewInstance("comp")
	src := property.New(rt, 1.0, property.Named("src"))
	c := property.New(inst, 0.0, property.Named("c"))
	for range 1000 {
		animation.SetAnimatedBinding(c, d, func() float64 { return src.Get() }, animation.Details{
			Duration: 100 * time.Millisecond,
		})
		assert.Equal(t, 1.0, c.Get())
	}

	nodes := inst.Snapshot()
	require.Len(t, nodes, 3)
	assert.Equal(t, "src", nodes[0].Name)
	assert.Equal(t, "comp.c", nodes[1].Name)
	assert.Equal(t, "tracker", nodes[2].Kind)
}

func TestDriverAdvanceTimeSameTick(t *testing.T) {
	rt, d := setup(t)

	c := property.New(rt, 0.0)
	animation.SetAnimatedValue(c, d, 10, animation.Details{Duration: time.Second})
	c.Get()
	require.True(t, d.HasActiveAnimations())

	d.AdvanceTime(t0)
	assert.True(t, d.HasActiveAnimations())
	assert.False(t, c.IsDirty())
	assert.Equal(t, t0, d.Tick().GetUntracked())
}
