package engine

import (
	"math"

	"ribbons/internal/emotion"
	"ribbons/internal/feeling"
	"ribbons/internal/shape"
	"ribbons/internal/vitality"
)

// Derived holds the seed-stable visual identity of one feeling.
type Derived struct {
	Base  vitality.Base
	Color emotion.RGB
	Ys    []float64

	emotion   string
	pathSum   uint64
	firstSeen float64 // ms
	seen      uint64  // plan generation
}

// Ranges the per-feeling base values are drawn from.
const (
	MinBaseLength    = 0.22 // screen widths
	MaxBaseLength    = 0.48
	MinBaseThickness = 0.010 // screen heights
	MaxBaseThickness = 0.026
	MinBaseGlow      = 0.55
	MaxBaseGlow      = 1.0
	MinSpeedVar      = 0.75
	MaxSpeedVar      = 1.25
	ColorJitter      = 18
)

// renderSalt separates the render stream from the shape stream of the same id.
const renderSalt = 0x52494242 // "RIBB"

// Derive computes the stable values for f. It is pure in (id, emotion, colour).
func Derive(f feeling.Feeling, p emotion.Profile) Derived {
	r := shape.NewSeededU32(shape.Hash32(f.ID) ^ renderSalt)

	col := p.Color
	if c, err := emotion.ParseRGB(f.Color); err == nil {
		col = c
	}
	j := int(r.Range(-ColorJitter, ColorJitter))
	col = col.Add(j, j, j)

	return Derived{
		Base: vitality.Base{
			Length:         r.Range(MinBaseLength, MaxBaseLength),
			Thickness:      r.Range(MinBaseThickness, MaxBaseThickness),
			Glow:           r.Range(MinBaseGlow, MaxBaseGlow),
			SpeedVariation: r.Range(MinSpeedVar, MaxSpeedVar) * p.FlowSpeed,
		},
		Color:   col,
		Ys:      f.Ys(),
		emotion: f.EmotionID,
		pathSum: pathFingerprint(f.Path),
	}
}

// pathFingerprint detects in-place path updates (FNV-1a over the bits).
func pathFingerprint(path []feeling.Point) uint64 {
	h := uint64(14695981039346656037)
	for _, p := range path {
		h ^= math.Float64bits(p.Y)
		h *= 1099511628211
	}
	return h ^ uint64(len(path))
}

// cache memoizes Derived by id for one renderer instance.
type cache struct {
	m map[string]*Derived
}

func newCache() *cache {
	return &cache{m: make(map[string]*Derived)}
}

// get returns the cached entry, deriving it on first sight at nowMs.
// An emotion or path change re-derives the entry but keeps firstSeen.
func (c *cache) get(f feeling.Feeling, p emotion.Profile, nowMs float64) *Derived {
	if d, ok := c.m[f.ID]; ok && d.emotion == f.EmotionID && d.pathSum == pathFingerprint(f.Path) {
		return d
	}
	d := Derive(f, p)
	d.firstSeen = nowMs
	if old, ok := c.m[f.ID]; ok {
		d.firstSeen = old.firstSeen
	}
	c.m[f.ID] = &d
	return &d
}

func (c *cache) forget(id string) { delete(c.m, id) }

func (c *cache) len() int { return len(c.m) }
