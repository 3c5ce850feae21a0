package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"ribbons/internal/display"
	"ribbons/internal/render"
	"ribbons/internal/render/raster"
	"ribbons/internal/scene"
)

// stepClock advances a fixed step per reading, so a snapshot simulates
// warmup time without waiting for it.
type stepClock struct {
	t    time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func newSnapshotCmd() *cobra.Command {
	var (
		flags  renderFlags
		out    string
		width  int
		height int
		warmup time.Duration
		step   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Render a frame offscreen with the CPU backend and save it as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			flags.overrides(cmd)(&cfg)
			cfg.Render.Backend = string(render.PreferCPU)
			cfg.Render.Sound = false
			if err := cfg.Validate(); err != nil {
				return err
			}
			if step <= 0 || warmup < 0 {
				return fmt.Errorf("snapshot: bad timing, warmup %s step %s", warmup, step)
			}

			shot := display.NewPNGPresenter(width, height)
			clock := &stepClock{t: time.Now(), step: step}
			sc := scene.New(scene.Options{
				Config: cfg,
				Source: newSource(cfg, log),
				Log:    log,
				Seed:   1,
				Clock:  clock.Now,
			})

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if err := sc.Preload(ctx); err != nil {
				return err
			}
			frames := int(warmup/step) + 1
			backends := scene.Backends{
				CPU: func(live *render.Live, log *slog.Logger, seed uint64) (render.Renderer, error) {
					return raster.NewFixed(live, shot, log, seed)
				},
			}
			runErr := sc.Run(ctx, &display.Headless{Frames: frames}, backends)
			if err := finish(runErr, sc.Stop()); err != nil {
				return err
			}
			if err := shot.Save(out); err != nil {
				return err
			}
			log.Info("snapshot written", "path", out, "frames", shot.Frames())
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "ribbons.png", "output PNG")
	cmd.Flags().IntVar(&width, "width", 1280, "image width")
	cmd.Flags().IntVar(&height, "height", 720, "image height")
	cmd.Flags().DurationVar(&warmup, "warmup", 12*time.Second, "simulated time before the captured frame")
	cmd.Flags().DurationVar(&step, "step", 250*time.Millisecond, "simulated time per frame")
	return cmd
}
