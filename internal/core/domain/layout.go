package domain

import "path/filepath"

const (
	// ReelDirName is the name of the internal workspace directory.
	ReelDirName = ".reel"

	// StoreDirName is the name of the build history directory.
	StoreDirName = "store"

	// PreviewsDirName is the directory holding one preview artifact per target.
	PreviewsDirName = "previews"

	// LogsDirName is the directory holding one append-only log per target.
	LogsDirName = "logs"

	// DefaultMediaDir is the default root for per-target engine output trees.
	DefaultMediaDir = ".media_multi"

	// DashboardFileName is the name of the generated dashboard page.
	DashboardFileName = "index.html"

	// ConfigFileName is the name of the optional project configuration file.
	ConfigFileName = "reel.yaml"

	// EnvFileName is the name of the optional dotenv file.
	EnvFileName = ".env"

	// DefaultSourceFile is used when no target is specified at all.
	DefaultSourceFile = "demo.py"

	// LogExt is the extension of per-target log files.
	LogExt = ".log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// Layout resolves the filesystem layout of one session relative to a working directory.
type Layout struct {
	// WorkDir is the absolute working directory of the session.
	WorkDir string
	// MediaDir is the absolute root of the per-target engine output trees.
	MediaDir string
}

// NewLayout returns the layout rooted at workDir. A relative mediaDir is
// resolved against workDir.
func NewLayout(workDir, mediaDir string) Layout {
	if mediaDir == "" {
		mediaDir = DefaultMediaDir
	}
	if !filepath.IsAbs(mediaDir) {
		mediaDir = filepath.Join(workDir, mediaDir)
	}
	return Layout{
		WorkDir:  filepath.Clean(workDir),
		MediaDir: filepath.Clean(mediaDir),
	}
}

// PreviewsDir returns the shared previews directory.
func (l Layout) PreviewsDir() string {
	return filepath.Join(l.WorkDir, PreviewsDirName)
}

// LogsDir returns the shared logs directory.
func (l Layout) LogsDir() string {
	return filepath.Join(l.WorkDir, LogsDirName)
}

// DashboardPath returns the dashboard page path at the working directory root.
func (l Layout) DashboardPath() string {
	return filepath.Join(l.WorkDir, DashboardFileName)
}

// StorePath returns the build history directory.
func (l Layout) StorePath() string {
	return filepath.Join(l.WorkDir, ReelDirName, StoreDirName)
}

// OutputDir returns the isolated engine output directory for a target name.
func (l Layout) OutputDir(name string) string {
	return filepath.Join(l.MediaDir, name)
}

// PreviewPath returns the stable preview path for a target name.
func (l Layout) PreviewPath(name, ext string) string {
	return filepath.Join(l.PreviewsDir(), name+ext)
}

// LogPath returns the append-only log path for a target name.
func (l Layout) LogPath(name string) string {
	return filepath.Join(l.LogsDir(), name+LogExt)
}
