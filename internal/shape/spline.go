package shape

import "math"

// CatmullRom evaluates the uniform Catmull-Rom segment between p1 and p2.
func CatmullRom(p0, p1, p2, p3, t float64) float64 {
	t2 := t * t
	t3 := t2 * t
	return 0.5 * (2*p1 +
		(-p0+p2)*t +
		(2*p0-5*p1+4*p2-p3)*t2 +
		(-p0+3*p1-3*p2+p3)*t3)
}

// CatmullRomSlope is the derivative of CatmullRom with respect to t.
func CatmullRomSlope(p0, p1, p2, p3, t float64) float64 {
	return 0.5 * ((-p0 + p2) +
		2*(2*p0-5*p1+4*p2-p3)*t +
		3*(-p0+3*p1-3*p2+p3)*t*t)
}

// wrap maps i into [0,k).
func wrap(i, k int) int {
	i %= k
	if i < 0 {
		i += k
	}
	return i
}

// EvalPeriodic evaluates the closed spline through ys at loop position s.
// s is taken modulo len(ys). It returns the value and its slope per unit s.
func EvalPeriodic(ys []float64, s float64) (y, dy float64) {
	k := len(ys)
	switch k {
	case 0:
		return 0, 0
	case 1:
		return ys[0], 0
	}
	s = math.Mod(s, float64(k))
	if s < 0 {
		s += float64(k)
	}
	idx := int(math.Floor(s))
	if idx >= k {
		idx = k - 1
	}
	t := s - float64(idx)
	p0 := ys[wrap(idx-1, k)]
	p1 := ys[idx]
	p2 := ys[wrap(idx+1, k)]
	p3 := ys[wrap(idx+2, k)]
	return CatmullRom(p0, p1, p2, p3, t), CatmullRomSlope(p0, p1, p2, p3, t)
}
