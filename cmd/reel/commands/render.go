package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render [source[:Scene]...]",
		Short: "Render every target once and exit",
		Long:  "Render every target once and exit. The exit status is non-zero when any target failed.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Render(cmd.Context(), sessionOptions(cmd, args))
		},
	}
	addSessionFlags(cmd)
	return cmd
}
