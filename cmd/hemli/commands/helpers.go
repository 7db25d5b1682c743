package commands

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/systmms/hemli/internal/config"
	"github.com/systmms/hemli/internal/credstore"
	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/index"
	"github.com/systmms/hemli/internal/lifecycle"
	"github.com/systmms/hemli/internal/source"
)

// EnvPrefix is prepended to upper-cased flag names to form environment variables.
const EnvPrefix = "HEMLI_"

// EnvKey returns the environment variable that backs a flag.
func EnvKey(flag string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

// BindEnv sets every flag that was not given on the command line from its
// HEMLI_* environment variable, if present.
func BindEnv(flags *pflag.FlagSet) error {
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || f.Name == "help" {
			return
		}
		v, ok := os.LookupEnv(EnvKey(f.Name))
		if !ok {
			return
		}
		if err := flags.Set(f.Name, v); err != nil {
			errs = append(errs, dserrors.ConfigError{
				Field:      EnvKey(f.Name),
				Value:      v,
				Message:    err.Error(),
				Suggestion: "Fix or unset the environment variable",
			})
		}
	})
	return errors.Join(errs...)
}

// newEngine returns cfg.Engine, building it from the loaded configuration
// on first use.
func newEngine(cfg *config.Config) (*lifecycle.Engine, error) {
	if cfg.Engine != nil {
		return cfg.Engine, nil
	}
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	cfg.Logger.Debug("using index %s and shell %s", cfg.IndexPath, cfg.Shell)

	cfg.Engine = lifecycle.New(
		credstore.NewDefault(),
		index.Open(cfg.IndexPath),
		source.NewRunner(nil, cfg.Shell),
		lifecycle.WithLogger(cfg.Logger),
		lifecycle.WithMetrics(cfg.Metrics),
	)
	return cfg.Engine, nil
}

// identityFlag registers the -n/--namespace flag shared by single-secret commands.
func identityFlag(cmd *cobra.Command, namespace *string) {
	cmd.Flags().StringVarP(namespace, "namespace", "n", "", "Namespace of the secret (required)")
	_ = cmd.MarkFlagRequired("namespace")
}

// optionalString returns a pointer to v when the flag was given, nil otherwise.
func optionalString(cmd *cobra.Command, name, v string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}

func optionalUint(cmd *cobra.Command, name string, v uint64) *uint64 {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	return &v
}
