package commands

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/systmms/hemli/internal/config"
	dserrors "github.com/systmms/hemli/internal/errors"
	"github.com/systmms/hemli/internal/lifecycle"
	"github.com/systmms/hemli/internal/secure"
)

func NewSetCommand(cfg *config.Config) *cobra.Command {
	var (
		namespace string
		ttl       uint64
	)

	cmd := &cobra.Command{
		Use:   "set <name>",
		Short: "Store a secret read from stdin",
		Long: `Store a value that has no source command.

The value is read from stdin; trailing newlines are removed. An existing
secret keeps its creation time and loses its stored source command.

Examples:
  pbpaste | hemli set -n myapp api-key
  hemli set -n myapp api-key --ttl 86400 < key.txt`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read value from stdin: %w", err)
			}
			v := secure.NewValue(bytes.TrimRight(data, "\r\n"))
			defer v.Destroy()
			if v.Len() == 0 {
				return dserrors.UserError{
					Message:    "No value provided on stdin",
					Suggestion: "Pipe the secret into the command, e.g. 'echo -n value | hemli set -n ns name'",
				}
			}

			value, err := v.Reveal()
			if err != nil {
				return err
			}
			req, err := lifecycle.NewPutRequest(namespace, args[0], value, optionalUint(cmd, "ttl", ttl))
			if err != nil {
				return err
			}
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}
			if _, err := engine.Put(cmd.Context(), req); err != nil {
				return err
			}

			cfg.Logger.Info("Stored secret '%s' in namespace '%s'", req.ID.Name, req.ID.Namespace)
			return nil
		},
	}

	identityFlag(cmd, &namespace)
	cmd.Flags().Uint64Var(&ttl, "ttl", 0, "TTL in seconds")

	return cmd
}
