package particle

import (
	"math"

	"ribbons/internal/emotion"
	"ribbons/internal/engine"
)

const (
	// TrailSpawnPeriod converts a ribbon's particle rate into motes per
	// second: rate/TrailSpawnPeriod on average.
	TrailSpawnPeriod = 0.1
	// trailLag is the share of the ribbon velocity a trail mote keeps.
	trailLag = 0.35
	// ambientFill bounds how fast the ambient population refills.
	ambientFill = 30
)

// AmbientTint is the default colour of background motes.
var AmbientTint = emotion.RGB{R: 200, G: 214, B: 255}

// SpawnTrail sheds motes along r for a frame of dt seconds.
func (ps *System) SpawnTrail(r engine.RibbonFrame, dt float64) int {
	if dt <= 0 || r.Alpha <= 0 || len(r.Path) < 2 {
		return 0
	}
	expected := r.ParticleRate * dt / TrailSpawnPeriod
	n := int(expected)
	if ps.rng.Float64() < expected-float64(n) {
		n++
	}

	vx := r.Velocity() * 1000 * trailLag
	for range n {
		// sqrt biases toward the head.
		t := math.Sqrt(ps.rng.Float64())
		y, _ := engine.SampleY(r.Path, r.WaveOffset, t)
		spread := 0.5 * r.Thickness * engine.Taper(t)
		ps.Add(Particle{
			X:       r.HeadX + r.Length*(1-t),
			Y:       y + ps.rng.RangeF(-spread, spread),
			VX:      vx,
			VY:      ps.rng.RangeF(-0.012, 0.012),
			Size:    1.2 + 2.6*t,
			Alpha:   r.Alpha * (0.25 + 0.75*t),
			MaxLife: ps.rng.RangeF(0.8, 2.2),
			Col:     r.Color.Add(40, 40, 40),
			Kind:    Trail,
		})
	}
	return n
}

// SpawnSparks bursts count motes out of the head of r.
func (ps *System) SpawnSparks(r engine.RibbonFrame, count int) {
	if len(r.Path) < 2 {
		return
	}
	hy, _ := engine.SampleY(r.Path, r.WaveOffset, 1)
	for range count {
		ang := ps.rng.RangeF(0, math.Pi*2)
		spd := ps.rng.RangeF(0.01, 0.05)
		ps.Add(Particle{
			X: r.HeadX, Y: hy,
			VX: math.Cos(ang) * spd, VY: math.Sin(ang) * spd,
			Size:    ps.rng.RangeF(2, 4),
			Alpha:   0.9,
			Life:    -ps.rng.RangeF(0, 0.15),
			MaxLife: ps.rng.RangeF(0.5, 1.1),
			Col:     r.Color.Lerp(emotion.RGB{R: 255, G: 255, B: 255}, 0.5),
			Kind:    Spark,
		})
	}
}

// Maintain tops the ambient population up toward target, spawning at most
// target/ambientFill+1 motes per call.
func (ps *System) Maintain(target int, tint emotion.RGB) int {
	missing := target - ps.counts[Ambient]
	if missing <= 0 {
		return 0
	}
	n := min(missing, target/ambientFill+1)
	for range n {
		ps.Add(Particle{
			X:       ps.rng.Float64(),
			Y:       ps.rng.Float64(),
			VX:      -ps.rng.RangeF(0.002, 0.012),
			VY:      ps.rng.RangeF(-0.004, 0.004),
			Size:    ps.rng.RangeF(1, 2.6),
			Alpha:   ps.rng.RangeF(0.12, 0.4),
			MaxLife: ps.rng.RangeF(6, 14),
			Col:     tint.Add(ps.rng.Intn(21)-10, ps.rng.Intn(21)-10, 0),
			Kind:    Ambient,
		})
	}
	return n
}
