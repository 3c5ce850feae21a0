package main

import (
	"github.com/spf13/cobra"

	"ribbons/internal/config"
)

// renderFlags are the per-run overrides shared by run and snapshot. Only
// flags the user actually set replace file values.
type renderFlags struct {
	backend       string
	maxRibbons    int
	segments      int
	particles     int
	fps           int
	glow          bool
	reducedMotion bool
	sound         bool
	feedPath      string
	demoSize      int
	seed          string
	metricsAddr   string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.backend, "backend", "auto", "auto, gpu or cpu")
	fs.IntVar(&f.maxRibbons, "max-ribbons", 0, "ribbon cap")
	fs.IntVar(&f.segments, "segments", 0, "spline segments per ribbon")
	fs.IntVar(&f.particles, "particles", 0, "ambient particle target")
	fs.IntVar(&f.fps, "fps", 0, "frame-rate cap")
	fs.BoolVar(&f.glow, "glow", true, "draw the glow pass")
	fs.BoolVar(&f.reducedMotion, "reduced-motion", false, "lower frame rate, no trails or sparks")
	fs.BoolVar(&f.sound, "sound", false, "ambient drone and arrival chimes")
	fs.StringVar(&f.feedPath, "feed", "", "feed document (YAML or JSON); default is the demo population")
	fs.IntVar(&f.demoSize, "demo", 0, "demo population size")
	fs.StringVar(&f.seed, "seed", "", "demo population seed")
	fs.StringVar(&f.metricsAddr, "metrics", "", "serve /metrics on this address")
}

// overrides returns a function applying the changed flags to a config.
func (f *renderFlags) overrides(cmd *cobra.Command) func(*config.File) {
	changed := cmd.Flags().Changed
	return func(c *config.File) {
		if changed("backend") {
			c.Render.Backend = f.backend
		}
		if changed("max-ribbons") {
			c.Render.MaxRibbons = f.maxRibbons
		}
		if changed("segments") {
			c.Render.SplineSegments = f.segments
		}
		if changed("particles") {
			c.Render.ParticleTarget = f.particles
		}
		if changed("fps") {
			c.Render.TargetFPS = f.fps
		}
		if changed("glow") {
			c.Render.Glow = f.glow
		}
		if changed("reduced-motion") {
			c.Render.ReducedMotion = f.reducedMotion
		}
		if changed("sound") {
			c.Render.Sound = f.sound
		}
		if changed("feed") {
			c.Feed.Path = f.feedPath
		}
		if changed("demo") {
			c.Feed.DemoSize = f.demoSize
		}
		if changed("seed") {
			c.Feed.Seed = f.seed
		}
		if changed("metrics") {
			c.Metrics.Addr = f.metricsAddr
		}
	}
}
