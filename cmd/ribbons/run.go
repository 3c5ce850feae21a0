package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ribbons/internal/ambience"
	"ribbons/internal/display"
	"ribbons/internal/render"
	"ribbons/internal/render/gpu"
	"ribbons/internal/render/raster"
	"ribbons/internal/scene"
	"ribbons/internal/telemetry"
)

func newRunCmd() *cobra.Command {
	var (
		flags  renderFlags
		width  int
		height int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Open a window and draw the live population",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup()
			if err != nil {
				return err
			}
			apply := flags.overrides(cmd)
			apply(&cfg)
			if cmd.Flags().Changed("width") {
				cfg.Window.Width = width
			}
			if cmd.Flags().Changed("height") {
				cfg.Window.Height = height
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			win, err := display.Open(display.Options{
				Title:     cfg.Window.Title,
				Width:     cfg.Window.Width,
				Height:    cfg.Window.Height,
				Resizable: true,
				VSync:     cfg.Window.VSync,
			})
			if err != nil {
				return err
			}
			defer win.Close()

			var audio *ambience.Player
			if cfg.Render.Sound {
				if audio, err = ambience.New(log); err != nil {
					log.Warn("continuing without sound", "error", err)
				}
			}

			sc := scene.New(scene.Options{
				Config:     cfg,
				ConfigPath: configPath,
				Overrides:  apply,
				Source:     newSource(cfg, log),
				Log:        log,
				Metrics:    telemetry.New(),
				Audio:      audio,
				Seed:       uint64(time.Now().UnixNano()),
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := sc.Start(ctx); err != nil {
				return err
			}
			runErr := sc.Run(ctx, win, windowBackends(win))
			return finish(runErr, sc.Stop())
		},
	}
	flags.register(cmd)
	cmd.Flags().IntVar(&width, "width", 0, "window width")
	cmd.Flags().IntVar(&height, "height", 0, "window height")
	return cmd
}

// finish merges the result of Run with that of Stop. Run already returns
// the stop result when a background task ended the loop.
func finish(runErr, stopErr error) error {
	if stopErr == nil || errors.Is(runErr, stopErr) {
		return runErr
	}
	return errors.Join(runErr, stopErr)
}

func windowBackends(win *display.Window) scene.Backends {
	return scene.Backends{
		GPU: func(live *render.Live, log *slog.Logger, seed uint64) (render.Renderer, error) {
			return gpu.New(live, win, log, seed)
		},
		CPU: func(live *render.Live, log *slog.Logger, seed uint64) (render.Renderer, error) {
			blit, err := display.NewBlitter(win)
			if err != nil {
				return nil, err
			}
			r, err := raster.New(live, blit, log, seed)
			if err != nil {
				blit.Close()
				return nil, err
			}
			return &blitRenderer{Renderer: r, blit: blit}, nil
		},
	}
}

// blitRenderer is the CPU backend showing its frames in the window.
type blitRenderer struct {
	*raster.Renderer
	blit *display.Blitter
}

func (b *blitRenderer) Close() error {
	return errors.Join(b.Renderer.Close(), b.blit.Close())
}
