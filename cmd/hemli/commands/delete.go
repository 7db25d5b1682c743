package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/hemli/internal/config"
	"github.com/systmms/hemli/internal/lifecycle"
)

func NewDeleteCommand(cfg *config.Config) *cobra.Command {
	var namespace string

	cmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret from the keyring",
		Long: `Remove a secret from the credential store and the index.

Deleting a secret that does not exist is not an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := lifecycle.NewID(namespace, args[0])
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			found, err := engine.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if found {
				cfg.Logger.Info("Deleted secret '%s' from namespace '%s'", id.Name, id.Namespace)
			} else {
				cfg.Logger.Debug("secret '%s' in namespace '%s' did not exist", id.Name, id.Namespace)
			}
			return nil
		},
	}

	identityFlag(cmd, &namespace)

	return cmd
}
