package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [source[:Scene]...]",
		Short: "Render, serve and re-render targets on change (default)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), sessionOptions(cmd, args))
		},
	}
	addSessionFlags(cmd)
	return cmd
}
