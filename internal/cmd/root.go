package cmd

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/ux"
)

// annotationSetup selects how much of the App a command needs.
const annotationSetup = "vedic/setup"

// Setup levels
const (
	setupNone    = "none"    // nothing, not even the config file
	setupOffline = "offline" // config and logging, no backend
)

var (
	cfgFile      string
	outputFormat string

	// current is the App built for the running command.
	current *App
)

var rootCmd = &cobra.Command{
	Use:   "vedic",
	Short: "Vedic astrology from the terminal",
	Long: `vedic is a client for the Vedic astrology backend. It manages your account
and birth profiles, calculates rasi charts and dasha periods, matches
compatibility between two profiles and lets you chat with an AI astrologer
about the selected chart.

Start with:
  vedic auth login
  vedic profile create
  vedic chart`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and releases everything the
// command set up. The returned error carries a next step when one is known.
func ExecuteContext(ctx context.Context) error {
	defer teardown()
	err := rootCmd.ExecuteContext(ctx)
	return ux.EnhanceError(err)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ~/.config/vedic/config.yaml)")
	pf.StringVarP(&outputFormat, "format", "f", ux.FormatText, "output format: text, json or yaml")
	pf.String("api-url", "", "backend base URL (env VEDIC_API_URL)")
	pf.Duration("timeout", 0, "request timeout, e.g. 30s (env VEDIC_API_TIMEOUT)")
	pf.String("state-dir", "", "directory holding the session token and selected profile")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.String("log-format", "", "log format: text or json")
	pf.String("log-file", "", "write logs to a rotated file instead of stderr")
	pf.String("metrics-addr", "", "serve Prometheus metrics on this address while the command runs")
}

func setup(cmd *cobra.Command, _ []string) error {
	if !validFormat(outputFormat) {
		return invalidFormat()
	}
	level := cmd.Annotations[annotationSetup]
	if level == setupNone {
		return nil
	}
	app, err := newApp(cmd.Context(), cmd, level != setupOffline)
	if err != nil {
		return err
	}
	current = app
	return nil
}

func teardown() {
	if current == nil {
		return
	}
	current.Close()
	current = nil
}

// runE adapts fn to cobra. The command is traced, timed and counted, and its
// error is translated into a coded one.
func runE(fn func(cmd *cobra.Command, args []string, a *App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := current
		name := commandName(cmd)
		ctx, span := a.startSpan(cmd.Context(), name)
		defer span.End()
		cmd.SetContext(ctx)

		start := time.Now()
		err := a.explain(fn(cmd, args, a))
		a.finish(span, name, time.Since(start), err)
		return err
	}
}

// commandName is the command path below the root, e.g. "profile.list".
func commandName(cmd *cobra.Command) string {
	var parts []string
	for c := cmd; c != nil && c.HasParent(); c = c.Parent() {
		parts = append([]string{c.Name()}, parts...)
	}
	return strings.Join(parts, ".")
}
