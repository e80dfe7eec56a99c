// Package commands implements the CLI commands for reel.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/reel/internal/app"
	"go.trai.ch/reel/internal/build"
)

// CLI represents the command line interface for reel.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Watch(ctx context.Context, opts app.Options) error
	Render(ctx context.Context, opts app.Options) error
	Clean(ctx context.Context) error
}

// New creates a new CLI instance with the given app.
// Without a subcommand, reel watches the given targets.
func New(a Application) *CLI {
	c := &CLI{app: a}

	rootCmd := &cobra.Command{
		Use:   "reel [source[:Scene]...]",
		Short: "Live previews for animation scenes",
		Long: "reel renders every target once, serves the previews on a local dashboard\n" +
			"and re-renders a target whenever a source file under its directory changes.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Watch(cmd.Context(), sessionOptions(cmd, args))
		},
	}

	// Registered before the version flag, which would otherwise claim -v.
	addSessionFlags(rootCmd)

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c.rootCmd = rootCmd

	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newRenderCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
