package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/constraint"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/diagram"
)

func lintCmd(g *globals) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "lint <diagram.json>",
		Short: "Replay a diagram's edges through the connection rules",
		Long: "Replays the edges of an exported diagram in order, as if each had been drawn\n" +
			"by hand, and reports every edge the editor would have refused.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			cat, err := cfg.BuildCatalog()
			if err != nil {
				g.logger(cmd).Warn("catalog has ineffective handle limits", "error", err)
			}

			doc, err := diagram.ReadDocumentFile(args[0])
			if err != nil {
				return err
			}

			graph := doc.Graph()
			v := constraint.NewValidator(cat, constraint.WithSelfLoops(cfg.Connections.AllowSelfLoops))
			findings := v.Audit(doc.Edges, graph.NodeTypeOf)

			w := cmd.OutOrStdout()
			if !quiet {
				banner(w, args[0])
			}

			var rejected int
			for _, f := range findings {
				if f.OK() {
					if !quiet {
						fmt.Fprintf(w, "  %s %s %s\n", statusIcon(true), f.Edge.ID, subtle.Sprint(arrow(f.Edge)))
					}
					continue
				}
				rejected++
				detail := ""
				switch {
				case f.Err != nil:
					detail = f.Err.Error()
				case f.Decision.Rejection != nil:
					detail = f.Decision.Rejection.Error()
				}
				fmt.Fprintf(w, "  %s %s %s: %s\n", statusIcon(false), f.Edge.ID, arrow(f.Edge), bad.Sprint(detail))
			}

			if !quiet {
				fmt.Fprintln(w)
				fmt.Fprintf(w, "  %d nodes, %d edges, %d rejected\n", len(doc.Nodes), len(doc.Edges), rejected)
			}
			if rejected > 0 {
				return fmt.Errorf("%w: %d of %d", errRejected, rejected, len(findings))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print rejected edges only")
	return cmd
}

func arrow(e diagram.Edge) string {
	src, dst := e.Source, e.Target
	if e.SourceHandle != "" {
		src += "." + e.SourceHandle
	}
	if e.TargetHandle != "" {
		dst += "." + e.TargetHandle
	}
	return src + " → " + dst
}
