package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/constraint"
)

func catalogCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:     "catalog",
		Aliases: []string{"limits"},
		Short:   "Print the connection limits per node type",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			cat, err := cfg.BuildCatalog()
			if errors.Is(err, constraint.ErrInvalidLimit) {
				return err
			}

			w := cmd.OutOrStdout()
			banner(w, "connection limits")

			var rows [][]string
			for _, t := range cat.Types() {
				l := cat.LimitsFor(t)
				rows = append(rows, []string{string(t), bound(l.SourceMax), bound(l.TargetMax), handles(l)})
			}
			table(w, []string{"TYPE", "OUT", "IN", "HANDLES"}, rows)

			fmt.Fprintln(w)
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-12s", "Self-loops"), allowed(cfg.Connections.AllowSelfLoops))
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-12s", "Other types"), "unlimited")

			if err != nil {
				fmt.Fprintln(w)
				for _, line := range strings.Split(err.Error(), "\n") {
					fmt.Fprintf(w, "  %s %s\n", warn.Sprint("!"), line)
				}
			}
			return nil
		},
	}
}

func bound(n *int) string {
	if n == nil {
		return "∞"
	}
	return strconv.Itoa(*n)
}

func handles(l constraint.NodeLimits) string {
	if len(l.Handles) == 0 {
		return subtle.Sprint("-")
	}
	ids := make([]string, 0, len(l.Handles))
	for id := range l.Handles {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		h := l.Handles[id]
		parts[i] = fmt.Sprintf("%s(%s)=%d", id, h.Direction, h.Max)
	}
	return strings.Join(parts, " ")
}

func allowed(on bool) string {
	if on {
		return "allowed"
	}
	return "rejected"
}
