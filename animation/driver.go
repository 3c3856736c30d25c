// Package animation turns property cells into time-varying values. Time is a
// cell like any other: the host advances it once per frame and every binding
// that read it is dirtied, to be re-evaluated when something reads it again.
package animation

import (
	"time"

	"github.com/delaneyj/propgraph/property"
)

// Driver owns the animation tick of a runtime. It never starts a timer; the
// event loop (or a test) calls AdvanceTime.
type Driver struct {
	tick   *property.Cell[time.Time]
	active bool
}

func NewDriver(owner property.Owner, start time.Time) *Driver {
	return &Driver{
		tick: property.NewFunc(owner, start, time.Time.Equal, property.Named("animation.tick")),
	}
}

// AdvanceTime moves the tick to now. Animations report themselves active
// again when they are next evaluated, so HasActiveAnimations is only
// meaningful after the frame has been read.
func (d *Driver) AdvanceTime(now time.Time) {
	if d.tick.GetUntracked().Equal(now) {
		return
	}
	d.active = false
	d.tick.Set(now)
}

// CurrentTick returns the tick and makes the running binding depend on it.
func (d *Driver) CurrentTick() time.Time {
	return d.tick.Get()
}

func (d *Driver) currentTickUntracked() time.Time {
	return d.tick.GetUntracked()
}

func (d *Driver) HasActiveAnimations() bool {
	return d.active
}

func (d *Driver) markActive() {
	d.active = true
}

// Tick exposes the tick cell, for bindings that want raw time.
func (d *Driver) Tick() *property.Cell[time.Time] {
	return d.tick
}
