package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ribbons/internal/feed"
	"ribbons/internal/feeling"
	"ribbons/internal/shape"
)

func newSynthCmd() *cobra.Command {
	var (
		count int
		seed  string
		out   string
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write a synthetic feed document",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("synth: count must be positive")
			}
			list, err := feed.NewDemo(count, 0, seed).Feelings(context.Background())
			if err != nil {
				return err
			}
			return writeFeed(cmd, out, list)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 50, "number of feelings")
	cmd.Flags().StringVar(&seed, "seed", "ribbons", "population seed")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	return cmd
}

func newRegenCmd() *cobra.Command {
	var (
		out       string
		keepStart bool
	)
	cmd := &cobra.Command{
		Use:   "regen FILE",
		Short: "Recompute every path in a feed document with the current shape algorithm",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("regen: %w", err)
			}
			list, errs := feed.Decode(data)
			for _, e := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped: %v\n", e)
			}
			for i, f := range list {
				startY := shape.StartY(f.ID)
				if keepStart && len(f.Path) > 0 {
					startY = f.Path[0].Y
				}
				if list[i], err = shape.Regenerate(f, startY); err != nil {
					return fmt.Errorf("regen %q: %w", f.ID, err)
				}
			}
			return writeFeed(cmd, out, list)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&keepStart, "keep-start", false, "keep each path's first height as the start")
	return cmd
}

func writeFeed(cmd *cobra.Command, out string, list []feeling.Feeling) error {
	if out != "" {
		return feed.WriteFile(out, list)
	}
	data, err := feed.Encode(list)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

