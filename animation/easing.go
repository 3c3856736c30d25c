package animation

import "math"

type curveKind uint8

const (
	curveLinear curveKind = iota
	curveBezier
	curveInElastic
	curveOutElastic
	curveInOutElastic
	curveInBounce
	curveOutBounce
	curveInOutBounce
)

// Curve maps linear progress in [0, 1] to eased progress. The zero value is
// Linear.
type Curve struct {
	kind curveKind
	ctrl [4]float64
}

// CubicBezier is a CSS-style timing function with control points (x1, y1)
// and (x2, y2).
func CubicBezier(x1, y1, x2, y2 float64) Curve {
	return Curve{kind: curveBezier, ctrl: [4]float64{x1, y1, x2, y2}}
}

var (
	Linear    = Curve{}
	Ease      = CubicBezier(0.25, 0.1, 0.25, 1)
	EaseIn    = CubicBezier(0.42, 0, 1, 1)
	EaseOut   = CubicBezier(0, 0, 0.58, 1)
	EaseInOut = CubicBezier(0.42, 0, 0.58, 1)

	EaseInElastic    = Curve{kind: curveInElastic}
	EaseOutElastic   = Curve{kind: curveOutElastic}
	EaseInOutElastic = Curve{kind: curveInOutElastic}
	EaseInBounce     = Curve{kind: curveInBounce}
	EaseOutBounce    = Curve{kind: curveOutBounce}
	EaseInOutBounce  = Curve{kind: curveInOutBounce}
)

func (c Curve) Apply(t float64) float64 {
	switch c.kind {
	case curveBezier:
		x1, y1, x2, y2 := c.ctrl[0], c.ctrl[1], c.ctrl[2], c.ctrl[3]
		if x1 < 0 || x1 > 1 || x2 < 0 || x2 > 1 {
			return t
		}
		b := bezier{x1: x1, y1: y1, x2: x2, y2: y2}
		return b.y(b.solveX(t, 1e-6))
	case curveInElastic:
		if t == 0 || t == 1 {
			return t
		}
		const c4 = 2 * math.Pi / 3
		return -math.Pow(2, 10*t-10) * math.Sin((t*10-10.75)*c4)
	case curveOutElastic:
		if t == 0 || t == 1 {
			return t
		}
		const c4 = 2 * math.Pi / 3
		return math.Pow(2, -10*t)*math.Sin((t*10-0.75)*c4) + 1
	case curveInOutElastic:
		if t == 0 || t == 1 {
			return t
		}
		const c5 = 2 * math.Pi / 4.5
		if t < 0.5 {
			return -(math.Pow(2, 20*t-10) * math.Sin((20*t-11.125)*c5)) / 2
		}
		return math.Pow(2, -20*t+10)*math.Sin((20*t-11.125)*c5)/2 + 1
	case curveInBounce:
		return 1 - outBounce(1-t)
	case curveOutBounce:
		return outBounce(t)
	case curveInOutBounce:
		if t < 0.5 {
			return (1 - outBounce(1-2*t)) / 2
		}
		return (1 + outBounce(2*t-1)) / 2
	}
	return t
}

func outBounce(t float64) float64 {
	const (
		n1 = 7.5625
		d1 = 2.75
	)
	switch {
	case t < 1/d1:
		return n1 * t * t
	case t < 2/d1:
		t -= 1.5 / d1
		return n1*t*t + 0.75
	case t < 2.5/d1:
		t -= 2.25 / d1
		return n1*t*t + 0.9375
	default:
		t -= 2.625 / d1
		return n1*t*t + 0.984375
	}
}

// bezier is the segment (0,0) (x1,y1) (x2,y2) (1,1).
type bezier struct {
	x1, y1, x2, y2 float64
}

func cubic(p1, p2, t float64) float64 {
	u := 1 - t
	return 3*p1*u*u*t + 3*p2*u*t*t + t*t*t
}

func (b bezier) x(t float64) float64 { return cubic(b.x1, b.x2, t) }
func (b bezier) y(t float64) float64 { return cubic(b.y1, b.y2, t) }

func (b bezier) dx(t float64) float64 {
	u := 1 - t
	return 3*b.x1*u*u + 6*(b.x2-b.x1)*u*t + 3*(1-b.x2)*t*t
}

// solveX finds the parameter t for which x(t) == x, first with a few Newton
// steps and then by bisection.
func (b bezier) solveX(x, tolerance float64) float64 {
	if x <= 0 {
		return 0
	}
	if x >= 1 {
		return 1
	}

	t := x
	for range 8 {
		x2 := b.x(t)
		if math.Abs(x2-x) <= tolerance {
			return t
		}
		d := b.dx(t)
		if d <= 1e-7 {
			break
		}
		t -= (x2 - x) / d
		if t < 0 || t > 1 {
			break
		}
	}

	lo, hi := 0.0, 1.0
	t = 0.5
	for range 64 {
		x2 := b.x(t)
		if math.Abs(x2-x) < tolerance {
			break
		}
		if x > x2 {
			lo = t
		} else {
			hi = t
		}
		t = lo + (hi-lo)/2
	}
	return t
}
