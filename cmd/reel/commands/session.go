package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/reel/internal/app"
)

// addSessionFlags registers the flags shared by every command that renders.
func addSessionFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("target", "t", nil, "Target to render, 'file.py:SceneName' or 'file.py' to detect the scene (repeatable)")
	cmd.Flags().StringP("quality", "q", "", "Render quality: low, medium or high (default low)")
	cmd.Flags().IntP("port", "p", 0, "HTTP port of the preview server (default 5500)")
	cmd.Flags().String("media-dir", "", "Root of the per-target render output (default .media_multi)")
	cmd.Flags().Bool("no-open", false, "Do not open the dashboard in a browser")
	cmd.Flags().BoolP("verbose", "v", false, "Show debug logs and the engine's own debug output")
	cmd.Flags().Bool("json-logs", false, "Write logs as JSON")
	cmd.Flags().IntP("jobs", "j", 0, "Number of targets rendered in parallel on startup (default 1)")
}

// sessionOptions reads the session flags. Positional arguments are targets
// too and come after the --target ones.
func sessionOptions(cmd *cobra.Command, args []string) app.Options {
	targets, _ := cmd.Flags().GetStringArray("target")
	quality, _ := cmd.Flags().GetString("quality")
	port, _ := cmd.Flags().GetInt("port")
	mediaDir, _ := cmd.Flags().GetString("media-dir")
	noOpen, _ := cmd.Flags().GetBool("no-open")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	jobs, _ := cmd.Flags().GetInt("jobs")

	return app.Options{
		Targets:  append(targets, args...),
		Quality:  quality,
		Port:     port,
		MediaDir: mediaDir,
		NoOpen:   noOpen,
		Verbose:  verbose,
		JSONLogs: jsonLogs,
		Jobs:     jobs,
	}
}
