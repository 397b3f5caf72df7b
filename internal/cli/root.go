package cli

import (
	"github.com/spf13/cobra"

	"connext-backend/internal/config"
	clog "connext-backend/internal/log"
)

// RootOptions holds state shared by every subcommand.
type RootOptions struct {
	Config config.Config
}

// NewRootCommand builds the connext command tree. Running it without a subcommand serves.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "connext",
		Short:         "Realtime messaging backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.Config = config.Load()
			clog.Init(opts.Config.Env)
			return config.Validate(opts.Config)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.Config)
		},
	}

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	return cmd
}
