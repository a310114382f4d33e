package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long: `Print version information including version number, git commit,
build date, Go version, and platform.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationSetup: setupNone},
	RunE:        runVersion,
}

var (
	versionVerbose bool
	versionJSON    bool
)

func init() {
	versionCmd.Flags().BoolVarP(&versionVerbose, "verbose", "v", false, "show detailed version information")
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output version information as JSON")

	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := version.GetInfo()
	out := cmd.OutOrStdout()

	// JSON output
	if versionJSON || outputFormat == "json" {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	// Verbose output
	if versionVerbose {
		fmt.Fprintln(out, "\n  ╭──────────────────────────────────────────╮")
		fmt.Fprintln(out, "  │                 [ vedic ]                │")
		fmt.Fprintln(out, "  │    Vedic astrology from the terminal     │")
		fmt.Fprintln(out, "  ╰──────────────────────────────────────────╯")
		fmt.Fprintln(out)
		fmt.Fprintln(out, info.String())
		return nil
	}

	// Default output (short version only)
	fmt.Fprintf(out, "vedic %s\n", info.Short())
	return nil
}
