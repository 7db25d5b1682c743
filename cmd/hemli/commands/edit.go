package commands

import (
	"github.com/spf13/cobra"

	"github.com/systmms/hemli/internal/config"
	"github.com/systmms/hemli/internal/lifecycle"
)

func NewEditCommand(cfg *config.Config) *cobra.Command {
	var (
		namespace string
		ttl       uint64
		clearTTL  bool
		sourceSh  string
		sourceCmd string
	)

	cmd := &cobra.Command{
		Use:   "edit <name>",
		Short: "Edit metadata of a cached secret (TTL, source command)",
		Long: `Change the TTL or source command of a stored secret without fetching it.

The expiry is recomputed from the original creation time, so shortening the
TTL can make a secret expire immediately.

Examples:
  hemli edit -n myapp db-password --ttl 7200
  hemli edit -n myapp db-password --clear-ttl
  hemli edit -n myapp db-password --source-cmd 'pass show db'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := lifecycle.NewEditRequest(lifecycle.EditOptions{
				Namespace: namespace,
				Name:      args[0],
				TTL:       optionalUint(cmd, "ttl", ttl),
				ClearTTL:  clearTTL,
				SourceSh:  optionalString(cmd, "source-sh", sourceSh),
				SourceCmd: optionalString(cmd, "source-cmd", sourceCmd),
			})
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}
			if _, err := engine.Edit(cmd.Context(), req); err != nil {
				return err
			}

			cfg.Logger.Info("Updated secret '%s' in namespace '%s'", req.ID.Name, req.ID.Namespace)
			return nil
		},
	}

	identityFlag(cmd, &namespace)
	cmd.Flags().Uint64Var(&ttl, "ttl", 0, "New TTL in seconds")
	cmd.Flags().BoolVar(&clearTTL, "clear-ttl", false, "Remove the TTL so the secret never expires")
	cmd.Flags().StringVar(&sourceSh, "source-sh", "", "New source command, run via the shell")
	cmd.Flags().StringVar(&sourceCmd, "source-cmd", "", "New source command, run directly")

	return cmd
}
