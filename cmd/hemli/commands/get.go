package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/hemli/internal/config"
	"github.com/systmms/hemli/internal/lifecycle"
)

func NewGetCommand(cfg *config.Config) *cobra.Command {
	var (
		namespace    string
		sourceSh     string
		sourceCmd    string
		ttl          uint64
		forceRefresh bool
		noRefresh    bool
		noStore      bool
	)

	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Get a secret, fetching from source if needed",
		Long: `Print a cached secret to stdout.

The secret is served from the credential store while it is fresh. When it is
missing or its TTL has elapsed, the source command runs once and its output
(minus trailing newlines) is stored and printed. A source given on the
command line replaces the stored one.

Examples:
  # Fetch once, then serve from cache for an hour
  hemli get -n myapp db-password --source-sh 'op read op://dev/db/password' --ttl 3600

  # Re-run the stored source command regardless of TTL
  hemli get -n myapp db-password --force-refresh

  # Use in scripts
  export DB_PASSWORD=$(hemli get -n myapp db-password)`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := lifecycle.NewGetRequest(lifecycle.GetOptions{
				Namespace:    namespace,
				Name:         args[0],
				SourceSh:     optionalString(cmd, "source-sh", sourceSh),
				SourceCmd:    optionalString(cmd, "source-cmd", sourceCmd),
				TTL:          optionalUint(cmd, "ttl", ttl),
				ForceRefresh: forceRefresh,
				NoRefresh:    noRefresh,
				NoStore:      noStore,
			})
			if err != nil {
				return err
			}

			engine, err := newEngine(cfg)
			if err != nil {
				return err
			}
			res, err := engine.Get(cmd.Context(), req)
			if err != nil {
				return err
			}

			// Raw value, no trailing newline
			fmt.Fprint(cmd.OutOrStdout(), res.Value)
			return nil
		},
	}

	identityFlag(cmd, &namespace)
	cmd.Flags().StringVar(&sourceSh, "source-sh", "", "Source command to run via the shell")
	cmd.Flags().StringVar(&sourceCmd, "source-cmd", "", "Source command to run directly, split on whitespace")
	cmd.Flags().Uint64Var(&ttl, "ttl", 0, "TTL in seconds for the cached secret")
	cmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "Fetch from source even if cached")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "Only return the cached value, never fetch")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not store the fetched secret")

	return cmd
}
