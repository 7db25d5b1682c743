package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/hemli/internal/config"
)

func NewListCommand(cfg *config.Config) *cobra.Command {
	var (
		namespace string
		repair    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored secrets",
		Long: `List known secrets as tab-separated lines of namespace, name and
creation time. Values are never printed.

With --repair, index entries whose credential store entry no longer exists
are removed first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}

			if repair {
				pruned, err := engine.Repair(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range pruned {
					cfg.Logger.Warn("Removed stale index entry '%s' in namespace '%s'", id.Name, id.Namespace)
				}
			}

			entries, err := engine.List(cmd.Context(), namespace)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s\t%s\t%s\n", e.Namespace, e.Name, e.CreatedAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&namespace, "namespace", "n", "", "Filter by namespace")
	cmd.Flags().BoolVar(&repair, "repair", false, "Drop index entries missing from the credential store")

	return cmd
}
