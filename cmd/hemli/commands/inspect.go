package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/systmms/hemli/internal/config"
	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/lifecycle"
)

func NewInspectCommand(cfg *config.Config) *cobra.Command {
	var (
		namespace string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "inspect <name>",
		Short: "Inspect a cached secret, showing full metadata",
		Long: `Print every stored field of a secret, including its value, creation
time, source command, TTL and expiry.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "json" && output != "yaml" {
				return dserrors.UserError{
					Message:    fmt.Sprintf("Unsupported output format '%s'", output),
					Suggestion: "Use --output json or --output yaml",
				}
			}

			id, err := lifecycle.NewID(namespace, args[0])
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}
			rec, err := engine.Inspect(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output == "yaml" {
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(rec.Fields()); err != nil {
					return fmt.Errorf("failed to encode YAML: %w", err)
				}
				return enc.Close()
			}

			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(rec); err != nil {
				return fmt.Errorf("failed to encode JSON: %w", err)
			}
			return nil
		},
	}

	identityFlag(cmd, &namespace)
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json or yaml)")

	return cmd
}
