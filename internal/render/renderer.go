// Package render holds what every ribbon backend shares: the renderer
// contract, live settings, admission control, the frame-rate cap and the
// per-frame stage that drives the controller and particles.
package render

import (
	"time"

	"ribbons/internal/engine"
	"ribbons/internal/feeling"
)

// Kind names a backend.
type Kind string

const (
	KindGPU Kind = "gpu"
	KindCPU Kind = "cpu"
)

// Renderer draws one frame per Tick onto the surface it was built for.
// All calls happen on the frame thread.
type Renderer interface {
	Kind() Kind
	Tick(now time.Time, feelings []feeling.Feeling) (FrameStats, error)
	Close() error
}

// FrameStats describes one Tick.
type FrameStats struct {
	Skipped   bool // throttled, nothing drawn
	Plan      engine.Stats
	Drawn     int
	TooLarge  int // skipped for exceeding the scratch surface
	Particles int
	Allowed   int
	FPS       float64
	Entered   []string
	Work      time.Duration
}
