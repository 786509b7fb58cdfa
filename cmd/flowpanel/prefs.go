package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel"
	"github.com/randalmurphal/flowpanel/pkg/flowpanel/prefs"
)

func prefsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prefs",
		Aliases: []string{"preferences"},
		Short:   "Show or reset stored panel preferences",
	}
	cmd.AddCommand(prefsShowCmd(g), prefsResetCmd(g))
	return cmd
}

// openStore opens the configured backend. The caller closes the backend.
func openStore(cmd *cobra.Command, g *globals) (*prefs.Store, prefs.Backend, string, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, nil, "", err
	}
	backend, err := flowpanel.OpenPreferences(cmd.Context(), cfg.Preferences)
	if err != nil {
		return nil, nil, "", err
	}
	store := flowpanel.NewPreferencesStore(backend, cfg.Preferences, prefs.WithLogger(g.logger(cmd)))
	return store, backend, cfg.Preferences.Backend, nil
}

func prefsShowCmd(g *globals) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, backend, kind, err := openStore(cmd, g)
			if err != nil {
				return err
			}
			defer backend.Close()

			p, ok := store.Load(cmd.Context())
			w := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}

			fmt.Fprintf(w, "  %s  %s (%s)\n", brand.Sprintf("%-10s", "Record"), store.Key(), kind)
			if !ok {
				fmt.Fprintf(w, "  %s\n", subtle.Sprint("no stored preferences, defaults apply"))
				return nil
			}
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-10s", "Width"), orUnset(p.Width))
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-10s", "Tab"), orUnset(p.ActiveTab))
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-10s", "Compact"), orUnset(p.CompactMode))
			fmt.Fprintf(w, "  %s  %s\n", brand.Sprintf("%-10s", "Collapsed"), orUnset(p.Collapsed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the record as JSON")
	return cmd
}

func prefsResetCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the stored preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, backend, _, err := openStore(cmd, g)
			if err != nil {
				return err
			}
			defer backend.Close()

			if err := store.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s reset %s\n", statusIcon(true), store.Key())
			return nil
		},
	}
}

func orUnset[T any](v *T) string {
	if v == nil {
		return subtle.Sprint("unset")
	}
	return fmt.Sprint(*v)
}
