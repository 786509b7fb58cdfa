package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func layoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "layout <width>",
		Short: "Show the device class and panel presentation for a viewport width",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := strconv.Atoi(args[0])
			if err != nil || width < 0 {
				return fmt.Errorf("width must be a non-negative integer, got %q", args[0])
			}
			cfg, err := g.load()
			if err != nil {
				return err
			}

			policy := cfg.LayoutPolicy()
			l := policy.Classify(width)

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "  %s  %dpx\n", brand.Sprintf("%-14s", "Width"), width)
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-14s", "Device"), l.Device)
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-14s", "Presentation"), l.Presentation)
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-14s", "Outside click"), dismisses(l.Presentation.Overlays()))
			fmt.Fprintf(w, "  %s\n", subtle.Sprintf("breakpoints: tablet >= %d, desktop >= %d", policy.TabletMin, policy.DesktopMin))
			return nil
		},
	}
}

func dismisses(overlay bool) string {
	if overlay {
		return "closes panel"
	}
	return "ignored"
}
