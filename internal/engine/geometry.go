package engine

import (
	"math"

	"ribbons/internal/shape"
)

const (
	// TailWidth is the taper at the tail end (t = 0).
	TailWidth = 0.2
	// TaperExp shapes the width ramp from tail to head.
	TaperExp = 0.7
	// MaxSlope bounds |dy/dx| of the normal so steep turns do not fold.
	MaxSlope = 4.0
	// GlowWiden scales the glow silhouette relative to the body on every
	// backend.
	GlowWiden = 2.6
)

// BodyPoint is one centre sample of a ribbon in pixels.
type BodyPoint struct {
	X, Y      float64
	NX, NY    float64 // unit normal
	HalfWidth float64
	T         float64 // 0 tail, 1 head
}

// SampleY reads the path at body position t in [0,1] with the phase
// shift applied. The slope is per unit t.
func SampleY(path []float64, waveOffset, t float64) (y, dy float64) {
	n := float64(len(path))
	y, ds := shape.EvalPeriodic(path, frac(waveOffset+t)*n)
	return y, ds * n
}

// Taper returns the width multiplier at body position t.
func Taper(t float64) float64 {
	if t <= 0 {
		return TailWidth
	}
	if t >= 1 {
		return 1
	}
	return TailWidth + (1-TailWidth)*math.Pow(t, TaperExp)
}

// Body appends segments+1 samples of r, tail first, to out in a w×h
// viewport and returns the extended slice.
func Body(r RibbonFrame, segments int, w, h float64, out []BodyPoint) []BodyPoint {
	if segments < 1 {
		segments = 1
	}
	for i := 0; i <= segments; i++ {
		t := float64(i) / float64(segments)
		out = append(out, bodyAt(r, t, w, h))
	}
	return out
}

// HeadPoint returns the sample at the head of r.
func HeadPoint(r RibbonFrame, w, h float64) BodyPoint {
	return bodyAt(r, 1, w, h)
}

func bodyAt(r RibbonFrame, t, w, h float64) BodyPoint {
	y, dy := SampleY(r.Path, r.WaveOffset, t)

	// The head leads, so x decreases as t grows.
	tx := -r.Length * w
	ty := dy * h
	if lim := MaxSlope * math.Abs(tx); math.Abs(ty) > lim {
		ty = math.Copysign(lim, ty)
	}
	nx, ny := -ty, tx
	if l := math.Hypot(nx, ny); l > 0 {
		nx, ny = nx/l, ny/l
	} else {
		nx, ny = 0, 1
	}

	return BodyPoint{
		X:         (r.HeadX + r.Length*(1-t)) * w,
		Y:         y * h,
		NX:        nx,
		NY:        ny,
		HalfWidth: 0.5 * r.Thickness * h * Taper(t),
		T:         t,
	}
}
