// Package particle keeps the small luminous motes that drift behind ribbons
// and across the background.
//
// Positions are normalized to the viewport ([0,1] on both axes, y down);
// sizes are in pixels. Time is in seconds.
package particle

import (
	"math"

	"ribbons/internal/emotion"
)

type Kind uint8

const (
	// Ambient motes float over the whole scene.
	Ambient Kind = iota
	// Trail motes are shed along a ribbon body, denser toward the head.
	Trail
	// Spark motes burst from a ribbon head when it first appears.
	Spark
)

// MaxParticles is the default pool capacity.
const MaxParticles = 4096

type Particle struct {
	X, Y   float64
	VX, VY float64

	Size  float64
	Alpha float64 // peak opacity

	Life    float64 // negative = delayed start
	MaxLife float64

	Col  emotion.RGB
	Kind Kind
}

type System struct {
	Max    int
	P      []Particle
	rng    *Rand
	ovrIdx int // circular overwrite index when full
	counts [3]int
}

func New(maxParticles int, seed uint64) *System {
	if maxParticles <= 0 {
		maxParticles = MaxParticles
	}
	return &System{
		Max: maxParticles,
		P:   make([]Particle, 0, maxParticles),
		rng: NewRand(seed),
	}
}

func (ps *System) Clear() {
	ps.P = ps.P[:0]
	ps.ovrIdx = 0
	ps.counts = [3]int{}
}

// Len returns the number of live particles.
func (ps *System) Len() int { return len(ps.P) }

// Count returns the number of live particles of kind k.
func (ps *System) Count(k Kind) int {
	if int(k) >= len(ps.counts) {
		return 0
	}
	return ps.counts[k]
}

func (ps *System) Add(p Particle) {
	if len(ps.P) < ps.Max {
		ps.P = append(ps.P, p)
		ps.counts[p.Kind]++
		return
	}
	// Circular overwrite.
	if ps.ovrIdx >= ps.Max {
		ps.ovrIdx = 0
	}
	ps.counts[ps.P[ps.ovrIdx].Kind]--
	ps.P[ps.ovrIdx] = p
	ps.counts[p.Kind]++
	ps.ovrIdx++
}

// RenderData splits particles into glow (additive) and normal (alpha blend)
// buffers. Format: [x, y, size, r, g, b, a, rotation] * N.
func (ps *System) RenderData(glowBuf, normBuf []float32) ([]float32, []float32) {
	glowBuf = glowBuf[:0]
	normBuf = normBuf[:0]

	for _, p := range ps.P {
		if p.Life < 0 || p.MaxLife <= 0 {
			continue
		}
		t := clampF(p.Life/p.MaxLife, 0, 1)

		var a, size float64
		switch p.Kind {
		case Ambient:
			// Breathe in and out over the whole life.
			a = p.Alpha * math.Sin(math.Pi*t)
			size = p.Size
		case Trail:
			fadeIn := math.Min(t/0.12, 1)
			a = p.Alpha * (1 - t) * fadeIn
			size = p.Size * (1 - 0.5*t)
		case Spark:
			a = p.Alpha * (1 - t) * (1 - t)
			size = p.Size * (1 + 0.8*t)
		}
		if a <= 0 {
			continue
		}

		rc, gc, bc := p.Col.Floats()
		ac := float32(clampF(a, 0, 1))
		r, g, b := float32(rc), float32(gc), float32(bc)

		if p.Kind == Ambient {
			normBuf = append(normBuf, float32(p.X), float32(p.Y), float32(size), r, g, b, ac, 0)
			continue
		}
		// Additive: pre-multiply color by alpha.
		glowBuf = append(glowBuf, float32(p.X), float32(p.Y), float32(size), r*ac, g*ac, b*ac, ac, 0)
	}
	return glowBuf, normBuf
}
