// Package vitality maps a ribbon's age onto the decay factor that drives
// every visual parameter.
package vitality

import "math"

const (
	// Exponent keeps vitality near 1 early and accelerates decay near the end.
	Exponent = 0.7
	// FadeInMs is the window over which alpha ramps from 0 to vitality.
	FadeInMs = 3000.0
	// CullAlpha is the alpha below which a ribbon is not drawn at all.
	CullAlpha = 0.01
)

// Vitality returns 1 − (age/lifespan)^0.7 clamped to [0,1].
// Negative ages are treated as fresh.
func Vitality(ageMs, lifespanMs float64) float64 {
	if ageMs < 0 || lifespanMs <= 0 {
		return 1
	}
	v := 1 - math.Pow(ageMs/lifespanMs, Exponent)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Base holds the per-ribbon values the scalars scale from.
type Base struct {
	Length         float64
	Thickness      float64
	Glow           float64
	SpeedVariation float64
}

// Scalars are the per-frame values derived from one vitality.
type Scalars struct {
	Vitality     float64
	Alpha        float64
	Length       float64
	Thickness    float64
	Glow         float64
	SpeedFactor  float64
	ParticleRate float64
}

// Visible reports whether the ribbon clears the cull threshold.
func (s Scalars) Visible() bool { return s.Alpha >= CullAlpha }

// Alpha ramps linearly from 0 to v over the first FadeInMs of appearMs.
func Alpha(appearMs, v float64) float64 {
	if appearMs <= 0 {
		return 0
	}
	if appearMs < FadeInMs {
		return v * appearMs / FadeInMs
	}
	return v
}

// Derive computes every scalar for vitality v. appearMs is the time the
// ribbon has been on stage, used only for the fade-in.
func Derive(v, appearMs float64, b Base) Scalars {
	return Scalars{
		Vitality:     v,
		Alpha:        Alpha(appearMs, v),
		Length:       b.Length * (0.4 + 0.6*v),
		Thickness:    b.Thickness * (0.4 + 0.6*v),
		Glow:         b.Glow * (0.3 + 0.7*v),
		SpeedFactor:  b.SpeedVariation * (0.5 + 0.7*v),
		ParticleRate: 0.05 + 0.15*v,
	}
}
