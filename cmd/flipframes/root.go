package main

import (
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:          "flipframes",
		Short:        "Render page flips to image sequences",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}
	root.SetErr(os.Stderr)
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newRenderCmd())
	return root
}
