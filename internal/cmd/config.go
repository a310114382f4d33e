package cmd

import (
	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/vedic/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
	Long: `Show the effective configuration and where it comes from.

Values are read, lowest precedence first, from built-in defaults, the
config file, VEDIC_* environment variables (VEDIC_API_URL,
VEDIC_API_TIMEOUT, VEDIC_STATE_DIR, VEDIC_LOG_LEVEL, ...) and flags.`,
}

var configViewCmd = &cobra.Command{
	Use:         "view",
	Short:       "Print the effective configuration",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationSetup: setupOffline},
	RunE: runE(func(_ *cobra.Command, _ []string, a *App) error {
		return a.show(a.Config, func() string { return yamlText(a.Config) })
	}),
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print where configuration and state are kept",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{annotationSetup: setupOffline},
	RunE:        runE(runConfigPath),
}

func init() {
	configCmd.AddCommand(configViewCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

// configPaths is the outcome of config path.
type configPaths struct {
	File   string `json:"file" yaml:"file"`
	Loaded bool   `json:"loaded" yaml:"loaded"`
	State  string `json:"state_dir" yaml:"state_dir"`
	Log    string `json:"log_file,omitempty" yaml:"log_file,omitempty"`
}

func (p configPaths) Text() string {
	file := p.File
	if !p.Loaded {
		file += " (not found, using defaults)"
	}
	return kv("Config file", file, "State dir", p.State, "Log file", p.Log)
}

func runConfigPath(_ *cobra.Command, _ []string, a *App) error {
	p := configPaths{
		File:   a.Config.File,
		Loaded: a.Config.File != "",
		State:  a.Config.State.Dir,
		Log:    a.Config.Log.File,
	}
	if !p.Loaded {
		p.File = cfgFile
		if p.File == "" {
			file, err := config.DefaultFile()
			if err != nil {
				return err
			}
			p.File = file
		}
	}
	return a.show(p, nil)
}
