package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	vedicerrors "github.com/felixgeelhaar/vedic/internal/errors"
	"github.com/felixgeelhaar/vedic/internal/profiles"
)

var locationCmd = &cobra.Command{
	Use:   "location",
	Short: "Look up birth places",
}

var locationSearchCmd = &cobra.Command{
	Use:   "search <place>",
	Short: "Resolve a place to latitude, longitude and timezone",
	Example: `  vedic location search Chennai, India
  vedic location search "New York" -f json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runE(runLocationSearch),
}

func init() {
	locationCmd.AddCommand(locationSearchCmd)
	rootCmd.AddCommand(locationCmd)
}

func runLocationSearch(cmd *cobra.Command, args []string, a *App) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return vedicerrors.NewInputInvalidError("location", "a place name, e.g. Chennai, India")
	}
	res, err := a.Client.SearchLocation(cmd.Context(), query)
	if err != nil {
		return err
	}
	if !res.Located() {
		return vedicerrors.New(vedicerrors.ErrCodeInputInvalid, profiles.NotFoundMessage(res)).
			WithSuggestion("Try the city together with its country, e.g. 'Pune, India'")
	}
	return a.show(res, func() string {
		return profiles.FoundMessage(res) + "\n" + kv("Timezone", formatOffset(*res.Timezone))
	})
}

func formatOffset(tz float64) string {
	return fmt.Sprintf("UTC%+g", tz)
}
