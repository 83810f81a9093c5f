package cli

import (
	"context"

	"github.com/dmitrijs2005/alumnikeeper/internal/client/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configFile  string
	server      string
	sessionFile string
}

// NewRootCommand builds the alumnictl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}
	var app *App

	root := &cobra.Command{
		Use:           "alumnictl",
		Short:         "Command line client for the alumnikeeper account API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configFile)
			if err != nil {
				return err
			}
			if opts.server != "" {
				cfg.ServerURL = opts.server
			}
			if opts.sessionFile != "" {
				cfg.SessionFile = opts.sessionFile
			}
			app = NewApp(cfg, cmd.InOrStdin(), cmd.OutOrStdout())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configFile, "config", "c", "", "path to JSON config file")
	pf.StringVar(&opts.server, "server", "", "server base URL")
	pf.StringVar(&opts.sessionFile, "session-file", "", "where the session token is stored")

	current := func() *App { return app }
	root.AddCommand(
		newRegisterCommand(current),
		newLoginCommand(current),
		newGetCommand(current),
		newUpdateCommand(current),
		newDeleteCommand(current),
		newLogoutCommand(current),
	)
	return root
}

// Execute runs the command tree against ctx.
func Execute(ctx context.Context, args []string) error {
	root := NewRootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
