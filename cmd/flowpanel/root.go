package main

import (
	"errors"
	"log/slog"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowpanel/pkg/flowpanel/config"
)

var version = "0.1.0"

// errRejected makes lint exit non-zero after it has printed its report.
var errRejected = errors.New("diagram has rejected edges")

// globals holds the persistent flags.
type globals struct {
	configPath string
	envFile    string
	noColor    bool
	verbose    bool
}

func (g *globals) load() (config.Config, error) {
	return config.Load(g.configPath, g.envFile)
}

func (g *globals) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "flowpanel",
		Short:         "Inspect workflow editor limits, layouts and panel preferences",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.noColor {
				color.NoColor = true
			}
		},
	}
	root.SetVersionTemplate("flowpanel {{ .Version }}\n")

	flags := root.PersistentFlags()
	flags.StringVarP(&g.configPath, "config", "c", "", "config file (.yaml, .json or .toml)")
	flags.StringVar(&g.envFile, "env-file", ".env", "dotenv file with FLOWPANEL_ overrides")
	flags.BoolVar(&g.noColor, "no-color", false, "disable colored output")
	flags.BoolVarP(&g.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		catalogCmd(g),
		lintCmd(g),
		layoutCmd(g),
		prefsCmd(g),
	)
	return root
}

// run executes root with args and reports errors to stderr. A failed
// lint has already printed its report.
func run(root *cobra.Command, args []string) error {
	root.SetArgs(args)
	err := root.Execute()
	if err != nil && !errors.Is(err, errRejected) {
		_, _ = bad.Fprintf(root.ErrOrStderr(), "flowpanel: %v\n", err)
	}
	return err
}
