// Package shape generates the fixed vertical profile of a ribbon.
//
// A shape is a closed Catmull-Rom loop through k control points whose
// offsets come from a mulberry32 stream seeded by the feeling id. The same
// (profile, startY, seed) always yields the same samples, so a lost path can
// be rebuilt from the id alone and algorithm upgrades are a batch rewrite.
package shape

import (
	"ribbons/internal/emotion"
	"ribbons/internal/feeling"
)

// Synthesize returns feeling.PathSamples points sampled evenly around the
// loop. x is i/N and y is clamped to [feeling.MinY, feeling.MaxY].
func Synthesize(p emotion.Profile, startY float64, seed string) []feeling.Point {
	ctrl := ControlPoints(p, startY, seed)
	k := len(ctrl)

	const n = feeling.PathSamples
	out := make([]feeling.Point, n)
	for i := range out {
		s := float64(i) * float64(k) / n
		y, _ := EvalPeriodic(ctrl, s)
		out[i] = feeling.Point{X: float64(i) / n, Y: clamp(y, feeling.MinY, feeling.MaxY)}
	}
	return out
}

// ControlPoints draws the control loop: a count k from the profile range,
// then k offsets in [-Amplitude, Amplitude] around startY.
func ControlPoints(p emotion.Profile, startY float64, seed string) []float64 {
	rng := NewSeeded(seed)
	k := rng.IntRange(p.ControlPoints.Min, p.ControlPoints.Max)
	if k < 3 {
		k = 3
	}
	ctrl := make([]float64, k)
	for i := range ctrl {
		ctrl[i] = startY + rng.Range(-p.Amplitude, p.Amplitude)
	}
	return ctrl
}

// Regenerate recomputes f.Path under the current algorithm.
func Regenerate(f feeling.Feeling, startY float64) (feeling.Feeling, error) {
	p, err := emotion.Lookup(f.EmotionID)
	if err != nil {
		return f, err
	}
	f.Path = Synthesize(p, startY, f.ID)
	return f, nil
}

// StartY picks a deterministic start height for seeds that have none.
func StartY(seed string) float64 {
	r := NewSeededU32(Hash32(seed) ^ 0x9E3779B9)
	return 0.25 + 0.5*r.Next()
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
