package channel

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	xTolerance = 1e-12
	machineEps = 0x1p-52
	// maxWalk caps the bracket walk; both search spaces hit their bounds
	// well before it.
	maxWalk = 256
)

// searchSpace describes where a root may live and how to walk outward from
// the first estimate. grow multiplies the step after every walk; 1 gives an
// even grid, 2 a geometric one.
type searchSpace struct {
	lo, hi float64
	x0     float64
	step   float64
	grow   float64
}

var (
	relativeDepthSpace = searchSpace{lo: 1e-9, hi: 1, x0: 0.5, step: 1.0 / 64, grow: 1}
	diameterSpace      = searchSpace{lo: 1e-6, hi: 1e4, x0: 1, step: 0.25, grow: 2}
)

// findRoot walks outward from sp.x0 on both sides until f changes sign and
// then refines the bracket with Brent's method. maxIter bounds the Brent
// refinement only; the walk ends at the bounds of sp. Returns the root and
// the iterations spent on both.
func findRoot(f func(float64) float64, sp searchSpace, maxIter int, residualTol float64) (float64, int, error) {
	f0 := f(sp.x0)
	if f0 == 0 {
		return sp.x0, 0, nil
	}

	left, right := sp.x0, sp.x0
	fl, fr := f0, f0
	step := sp.step
	iter := 0
	var a, b, fa, fb float64
	bracketed := false

	for !bracketed && iter < maxWalk {
		iter++
		moved := false
		if right < sp.hi {
			x := math.Min(right+step, sp.hi)
			fx := f(x)
			if fx == 0 {
				return x, iter, nil
			}
			if opposite(fr, fx) {
				a, b, fa, fb = right, x, fr, fx
				bracketed = true
				break
			}
			right, fr = x, fx
			moved = true
		}
		if left > sp.lo {
			x := math.Max(left-step, sp.lo)
			fx := f(x)
			if fx == 0 {
				return x, iter, nil
			}
			if opposite(fl, fx) {
				a, b, fa, fb = x, left, fx, fl
				bracketed = true
				break
			}
			left, fl = x, fx
			moved = true
		}
		if !moved {
			return 0, iter, newError(KindNonConvergence, "no root in [%g, %g]", sp.lo, sp.hi)
		}
		step *= sp.grow
	}
	if !bracketed {
		return 0, iter, newError(KindNonConvergence, "no sign change within %d steps", maxWalk)
	}

	x, n, ok := brent(f, a, b, fa, fb, maxIter)
	iter += n
	if !ok {
		return x, iter, newError(KindNonConvergence, "iteration limit %d reached at x=%g", maxIter, x)
	}
	if r := f(x); math.IsNaN(r) || !scalar.EqualWithinAbs(r, 0, residualTol) {
		return x, iter, newError(KindNonConvergence, "residual %g above tolerance %g", r, residualTol)
	}
	return x, iter, nil
}

func opposite(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Signbit(a) != math.Signbit(b)
}

// brent refines a bracket [a, b] with f(a), f(b) of opposite sign.
func brent(f func(float64) float64, a, b, fa, fb float64, maxIter int) (float64, int, bool) {
	c, fc := b, fb
	var d, e float64
	for iter := 1; iter <= maxIter; iter++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}
		tol := 2*machineEps*math.Abs(b) + 0.5*xTolerance
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol || fb == 0 {
			return b, iter, true
		}
		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			s := fb / fa
			var p, q float64
			if a == c {
				p = 2 * xm * s
				q = 1 - s
			} else {
				q = fa / fc
				r := fb / fc
				p = s * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			if 2*p < math.Min(3*xm*q-math.Abs(tol*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}
		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, xm)
		}
		fb = f(b)
		if math.IsNaN(fb) {
			return b, iter, false
		}
	}
	return b, maxIter, false
}
