// Package config loads the YAML configuration file, validates it and keeps
// the live render settings in step with it while the program runs.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"ribbons/internal/emotion"
	"ribbons/internal/render"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

type Render struct {
	MaxRibbons     int    `yaml:"maxRibbons" validate:"gte=1,lte=5000"`
	SplineSegments int    `yaml:"splineSegments" validate:"gte=4,lte=128"`
	Glow           bool   `yaml:"glow"`
	ParticleTarget int    `yaml:"particles" validate:"gte=0,lte=2048"`
	Backend        string `yaml:"backend" validate:"oneof=auto gpu cpu"`
	TargetFPS      int    `yaml:"targetFps" validate:"gte=10,lte=240"`
	ReducedMotion  bool   `yaml:"reducedMotion"`
	Sound          bool   `yaml:"sound"`
	Background     string `yaml:"background" validate:"omitempty,hexcolor"`
}

type Feed struct {
	// Path is a feed document; empty selects the demo population.
	Path      string        `yaml:"path"`
	Refresh   time.Duration `yaml:"refresh" validate:"gte=0"`
	DemoSize  int           `yaml:"demoSize" validate:"gte=0,lte=5000"`
	DemoEvery time.Duration `yaml:"demoEvery" validate:"gte=0"`
	Seed      string        `yaml:"seed"`
}

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width" validate:"gte=64,lte=16384"`
	Height int    `yaml:"height" validate:"gte=64,lte=16384"`
	VSync  bool   `yaml:"vsync"`
}

type Metrics struct {
	// Addr enables the /metrics listener, e.g. "127.0.0.1:9464".
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

type Log struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// File is the whole configuration document.
type File struct {
	Render  Render  `yaml:"render"`
	Feed    Feed    `yaml:"feed"`
	Window  Window  `yaml:"window"`
	Metrics Metrics `yaml:"metrics"`
	Log     Log     `yaml:"log"`
}

var validate = validator.New()

// Default is the configuration used when no file is given. Keys missing
// from a file keep these values.
func Default() File {
	s := render.DefaultSettings()
	return File{
		Render: Render{
			MaxRibbons:     s.MaxRibbons,
			SplineSegments: s.SplineSegments,
			Glow:           s.Glow,
			ParticleTarget: s.ParticleTarget,
			Backend:        string(s.Backend),
			TargetFPS:      s.TargetFPS,
			Background:     s.Background.Hex(),
		},
		Feed: Feed{
			Refresh:   2 * time.Second,
			DemoSize:  300,
			DemoEvery: 4 * time.Second,
			Seed:      "ribbons",
		},
		Window: Window{Title: "Ribbons", Width: 1280, Height: 720, VSync: true},
		Log:    Log{Level: "info"},
	}
}

// Load reads path over the defaults. An empty path returns Default.
func Load(path string) (File, error) {
	f := Default()
	if path == "" {
		return f, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte) (File, error) {
	f := Default()
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := f.Validate(); err != nil {
		return f, err
	}
	return f, nil
}

func (f File) Validate() error {
	if err := validate.Struct(f); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Settings converts the render section.
func (f File) Settings() render.Settings {
	r := f.Render
	bg := render.DefaultBackground
	if c, err := emotion.ParseRGB(r.Background); err == nil {
		bg = c
	}
	return render.Settings{
		MaxRibbons:     r.MaxRibbons,
		SplineSegments: r.SplineSegments,
		Glow:           r.Glow,
		ParticleTarget: r.ParticleTarget,
		Backend:        render.Preference(r.Backend),
		TargetFPS:      r.TargetFPS,
		ReducedMotion:  r.ReducedMotion,
		Sound:          r.Sound,
		Background:     bg,
	}
}
