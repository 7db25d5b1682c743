package commands

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/systmms/hemli/internal/config"
	"github.com/systmms/hemli/internal/logging"
	"github.com/systmms/hemli/internal/metrics"
)

// NewRootCommand builds the hemli command tree around cfg.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	var (
		configFile      string
		noColor         bool
		debug           bool
		indexPath       string
		shell           string
		metricsTextfile string
	)

	rootCmd := &cobra.Command{
		Use:   "hemli",
		Short: "Secret management CLI for local development",
		Long: `hemli caches secrets from password managers and cloud secret stores in
the OS credential store and re-fetches them when their TTL runs out.

Every flag can also be set through a HEMLI_<FLAG> environment variable,
e.g. HEMLI_NAMESPACE or HEMLI_INDEX_PATH.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := BindEnv(cmd.Flags()); err != nil {
				return err
			}

			colorOff := noColor || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stderr.Fd()))
			cfg.Logger = logging.New(debug, colorOff)
			cfg.Path = configFile
			cfg.Required = cmd.Flags().Changed("config")
			cfg.IndexPath = indexPath
			cfg.Shell = shell
			cfg.MetricsTextfile = metricsTextfile
			if cfg.Metrics == nil {
				cfg.Metrics = metrics.New()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath(), "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&indexPath, "index-path", "", "Index file path (default $XDG_DATA_HOME/hemli/index.json)")
	rootCmd.PersistentFlags().StringVar(&shell, "shell", "", "Shell used for --source-sh commands (default sh)")
	rootCmd.PersistentFlags().StringVar(&metricsTextfile, "metrics-textfile", "", "Write prometheus metrics to this file after each command")

	rootCmd.AddCommand(
		NewGetCommand(cfg),
		NewSetCommand(cfg),
		NewDeleteCommand(cfg),
		NewListCommand(cfg),
		NewInspectCommand(cfg),
		NewEditCommand(cfg),
		NewCompletionCommand(),
	)

	return rootCmd
}
