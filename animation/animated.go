package animation

import (
	"math"

	"github.com/delaneyj/propgraph/property"
)

type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~float32 | ~float64
}

// Lerp interpolates linearly between from and to. Integer results are
// rounded, unsigned results are clamped to the range of the type.
func Lerp[T Number](from, to T, t float64) T {
	v := float64(from) + t*(float64(to)-float64(from))

	half := 0.5
	if T(half) != 0 {
		return T(v)
	}
	v = math.Round(v)

	var zero T
	if top := zero - 1; top > zero {
		switch {
		case v <= 0:
			return 0
		case v >= float64(top):
			return top
		}
	}
	return T(v)
}

type InterpolateFunc[T any] func(from, to T, t float64) T

// SetAnimatedValue animates c from its current value to target. The animation
// is a binding that reads the driver's tick; it is computed when c is read
// and removes itself once it has finished, leaving c holding exactly target.
// Setting c or giving it another binding cancels the animation.
func SetAnimatedValue[T Number](c *property.Cell[T], d *Driver, target T, details Details) {
	SetAnimatedValueFunc(c, d, target, details, Lerp[T])
}

func SetAnimatedValueFunc[T any](c *property.Cell[T], d *Driver, target T, details Details, lerp InterpolateFunc[T]) {
	tr := newTransition(c.GetUntracked(), target, details, d.currentTickUntracked(), lerp)
	c.SetBindingWith(property.BindingFunc[T](func(T) (T, property.BindingResult) {
		v, finished := tr.value(d.CurrentTick())
		if finished {
			return v, property.RemoveBinding
		}
		d.markActive()
		return v, property.KeepBinding
	}))
}

// SetAnimatedBinding binds c to fn and animates every change of the value fn
// produces. The first value is applied without animation.
func SetAnimatedBinding[T Number](c *property.Cell[T], d *Driver, fn func() T, details Details) {
	SetAnimatedBindingFunc(c, d, fn, details, Lerp[T])
}

func SetAnimatedBindingFunc[T any](c *property.Cell[T], d *Driver, fn func() T, details Details, lerp InterpolateFunc[T]) {
	c.SetBindingWith(&animatedBinding[T]{
		driver:  d,
		source:  property.NewTracker(c.Owner(), nil, property.Named(c.Name()+".source")),
		fn:      fn,
		details: details,
		lerp:    lerp,
	})
}

// animatedBinding evaluates fn under its own tracker, so that it can tell a
// change of fn's inputs (start a new transition) from a tick of the driver
// (advance the running one).
type animatedBinding[T any] struct {
	driver  *Driver
	source  *property.Tracker
	fn      func() T
	details Details
	lerp    InterpolateFunc[T]

	started bool
	target  T
	running *transition[T]
}

func (a *animatedBinding[T]) Evaluate(old T) (T, property.BindingResult) {
	a.source.RegisterAsDependency()

	if !a.started || a.source.IsDirty() {
		var next T
		if err := a.source.EvaluateAsRoot(func() { next = a.fn() }); err != nil {
			return old, property.KeepBinding
		}
		a.target = next
		if !a.started {
			a.started = true
			return next, property.KeepBinding
		}
		a.running = newTransition(old, next, a.details, a.driver.CurrentTick(), a.lerp)
	}

	if a.running == nil {
		return a.target, property.KeepBinding
	}
	v, finished := a.running.value(a.driver.CurrentTick())
	if finished {
		a.running = nil
	} else {
		a.driver.markActive()
	}
	return v, property.KeepBinding
}

// Dispose releases the source tracker once the binding is replaced.
func (a *animatedBinding[T]) Dispose() {
	a.source.Close()
}
