package render

import (
	"fmt"
	"strings"
	"sync/atomic"

	"ribbons/internal/emotion"
	"ribbons/internal/particle"
)

// Preference selects the backend at start-up.
type Preference string

const (
	PreferAuto Preference = "auto"
	PreferGPU  Preference = "gpu"
	PreferCPU  Preference = "cpu"
)

// ParsePreference accepts auto, gpu or cpu in any case.
func ParsePreference(s string) (Preference, error) {
	switch p := Preference(strings.ToLower(strings.TrimSpace(s))); p {
	case PreferAuto, PreferGPU, PreferCPU:
		return p, nil
	case "":
		return PreferAuto, nil
	}
	return "", fmt.Errorf("backend %q: want auto, gpu or cpu", s)
}

// Bounds every backend honours.
const (
	// HardCap is the absolute ribbon limit regardless of configuration.
	HardCap = 5000

	MinSegments = 4
	MaxSegments = 128

	DefaultFPS        = 60
	ReducedMotionFPS  = 20
	DefaultMaxRibbons = 600
	DefaultSegments   = 48
	DefaultParticles  = 240
)

// DefaultBackground is the clear colour.
var DefaultBackground = emotion.RGB{R: 5, G: 6, B: 13}

// Settings are the user-facing knobs. A value is read once per frame.
type Settings struct {
	MaxRibbons     int
	SplineSegments int
	Glow           bool
	ParticleTarget int
	Backend        Preference
	TargetFPS      int
	ReducedMotion  bool
	Sound          bool
	Background     emotion.RGB
}

// DefaultSettings returns the out-of-the-box configuration.
func DefaultSettings() Settings {
	return Settings{
		MaxRibbons:     DefaultMaxRibbons,
		SplineSegments: DefaultSegments,
		Glow:           true,
		ParticleTarget: DefaultParticles,
		Backend:        PreferAuto,
		TargetFPS:      DefaultFPS,
		Background:     DefaultBackground,
	}
}

// Normalize clamps every field into its supported range.
func (s Settings) Normalize() Settings {
	s.MaxRibbons = min(max(s.MaxRibbons, 1), HardCap)
	if s.SplineSegments == 0 {
		s.SplineSegments = DefaultSegments
	}
	s.SplineSegments = min(max(s.SplineSegments, MinSegments), MaxSegments)
	s.ParticleTarget = min(max(s.ParticleTarget, 0), particle.MaxParticles/2)
	if s.TargetFPS <= 0 {
		s.TargetFPS = DefaultFPS
	}
	s.TargetFPS = min(max(s.TargetFPS, 10), 240)
	if _, err := ParsePreference(string(s.Backend)); err != nil {
		s.Backend = PreferAuto
	}
	if s.Backend == "" {
		s.Backend = PreferAuto
	}
	return s
}

// EffectiveFPS is the soft frame-rate cap for this configuration.
func (s Settings) EffectiveFPS() int {
	if s.ReducedMotion {
		return min(ReducedMotionFPS, s.TargetFPS)
	}
	return s.TargetFPS
}

// Live is a settings reference shared between the frame thread and its
// writers (config reload, CLI). Writes take effect on the next frame.
type Live struct {
	p atomic.Pointer[Settings]
}

func NewLive(s Settings) *Live {
	l := &Live{}
	l.Store(s)
	return l
}

func (l *Live) Load() Settings { return *l.p.Load() }

func (l *Live) Store(s Settings) {
	n := s.Normalize()
	l.p.Store(&n)
}

// Update applies fn to a copy of the current settings and publishes it.
func (l *Live) Update(fn func(*Settings)) Settings {
	for {
		old := l.p.Load()
		n := *old
		fn(&n)
		n = n.Normalize()
		if l.p.CompareAndSwap(old, &n) {
			return n
		}
	}
}
