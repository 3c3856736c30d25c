package animation

import "time"

type Direction uint8

const (
	Normal Direction = iota
	Reverse
	Alternate
	AlternateReverse
)

func (d Direction) reversed(iteration uint64) bool {
	switch d {
	case Reverse:
		return true
	case Alternate:
		return iteration%2 == 1
	case AlternateReverse:
		return iteration%2 == 0
	}
	return false
}

// Details describe how a value moves to its target.
type Details struct {
	Delay    time.Duration
	Duration time.Duration
	// IterationCount is the number of times the animation runs, fractions
	// allowed. Zero means once, a negative count repeats forever.
	IterationCount float64
	Direction      Direction
	Easing         Curve
}

func (d Details) iterations() float64 {
	if d.IterationCount == 0 {
		return 1
	}
	return d.IterationCount
}

type phase uint8

const (
	delaying phase = iota
	animating
	done
)

// transition is the running state of one animation from one value to
// another. value is called with the current tick on every evaluation.
type transition[T any] struct {
	from, to  T
	details   Details
	start     time.Time
	phase     phase
	iteration uint64
	lerp      func(from, to T, t float64) T
}

func newTransition[T any](from, to T, details Details, start time.Time, lerp func(from, to T, t float64) T) *transition[T] {
	return &transition[T]{
		from:    from,
		to:      to,
		details: details,
		start:   start,
		lerp:    lerp,
	}
}

// value returns the interpolated value at now and whether the animation has
// finished. Once finished it keeps returning the final value.
func (tr *transition[T]) value(now time.Time) (T, bool) {
	for {
		elapsed := now.Sub(tr.start)

		switch tr.phase {
		case delaying:
			delay := tr.details.Delay
			if delay > 0 && elapsed < delay {
				if tr.details.Direction.reversed(0) {
					return tr.to, false
				}
				return tr.from, false
			}
			if delay > 0 {
				tr.start = now.Add(-(elapsed - delay))
			}
			tr.phase = animating
			tr.iteration = 0

		case animating:
			duration := tr.details.Duration
			if duration <= 0 {
				tr.phase = done
				tr.iteration = 0
				continue
			}
			if elapsed >= duration {
				tr.iteration += uint64(elapsed / duration)
				elapsed %= duration
				tr.start = now.Add(-elapsed)
			}

			count := tr.details.iterations()
			played := float64(tr.iteration)*float64(duration) + float64(elapsed)
			if count < 0 || played < count*float64(duration) {
				progress := min(max(float64(elapsed)/float64(duration), 0), 1)
				if tr.details.Direction.reversed(tr.iteration) {
					progress = 1 - progress
				}
				return tr.lerp(tr.from, tr.to, tr.details.Easing.Apply(progress)), false
			}
			tr.phase = done
			tr.iteration = max(tr.iteration, 1) - 1

		case done:
			if tr.details.Direction.reversed(tr.iteration) {
				return tr.from, true
			}
			return tr.to, true
		}
	}
}
