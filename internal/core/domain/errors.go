package domain

import "go.trai.ch/zerr"

var (
	// ErrFatalConfig marks errors that make the run unable to produce any valid target.
	// The entry point joins it onto configuration failures and exits non-zero.
	ErrFatalConfig = zerr.New("fatal configuration error")

	// ErrNoTargets is returned when no target specification survives resolution.
	ErrNoTargets = zerr.New("no targets specified")

	// ErrSourceNotFound is returned when a target's source file does not exist.
	ErrSourceNotFound = zerr.New("source file not found")

	// ErrSourceIsDirectory is returned when a target's source path names a directory.
	ErrSourceIsDirectory = zerr.New("source path is a directory")

	// ErrSceneNotDetected is returned when no scene could be auto-detected in a source file.
	ErrSceneNotDetected = zerr.New("could not detect a scene, use 'file.py:SceneName'")

	// ErrInvalidTargetSpec is returned when a target specification cannot be parsed.
	ErrInvalidTargetSpec = zerr.New("invalid target specification, expected 'path' or 'path:Scene'")

	// ErrInvalidQuality is returned when a quality level is not one of low, medium or high.
	ErrInvalidQuality = zerr.New("invalid quality, expected 'low', 'medium' or 'high'")

	// ErrInvalidPort is returned when the HTTP port is out of range.
	ErrInvalidPort = zerr.New("invalid port")

	// ErrInvalidDetector is returned when the configured scene detector is unknown.
	ErrInvalidDetector = zerr.New("invalid detector, expected 'static' or 'python'")

	// ErrEngineNotFound is returned when the rendering engine cannot be resolved on PATH.
	ErrEngineNotFound = zerr.New("rendering engine not found on PATH")

	// ErrEncoderNotFound is reported (as a warning) when the media encoder is missing.
	ErrEncoderNotFound = zerr.New("media encoder not found on PATH")

	// ErrDirCreateFailed is returned when an output, preview or log directory cannot be created.
	ErrDirCreateFailed = zerr.New("failed to create directory")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrEnvFileLoadFailed is returned when a present .env file cannot be loaded.
	ErrEnvFileLoadFailed = zerr.New("failed to load .env file")

	// ErrEmptyCommand is returned when a command has no argv.
	ErrEmptyCommand = zerr.New("empty command")

	// ErrCommandStartFailed is returned when a process cannot be started.
	ErrCommandStartFailed = zerr.New("failed to start command")

	// ErrRenderFailed is returned when the engine exits with a non-zero status.
	ErrRenderFailed = zerr.New("render failed")

	// ErrArtifactNotFound is returned when a successful render left no artifact behind.
	ErrArtifactNotFound = zerr.New("no rendered artifact found")

	// ErrArtifactCopyFailed is returned when the artifact cannot be published to the preview path.
	ErrArtifactCopyFailed = zerr.New("failed to publish artifact to preview path")

	// ErrLogOpenFailed is returned when a target's log file cannot be opened for appending.
	ErrLogOpenFailed = zerr.New("failed to open log file")

	// ErrDashboardWriteFailed is returned when the dashboard page cannot be written.
	ErrDashboardWriteFailed = zerr.New("failed to write dashboard")

	// ErrTargetNotFound is returned when a request names a target that is not registered.
	ErrTargetNotFound = zerr.New("target not found")

	// ErrStoreCreateFailed is returned when the build history directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build history directory")

	// ErrStoreReadFailed is returned when build history cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when build history cannot be decoded.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when build history cannot be encoded.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when build history cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrServerFailed is returned when the preview server stops unexpectedly.
	ErrServerFailed = zerr.New("preview server failed")

	// ErrWatcherStartFailed is returned when a watch root cannot be watched.
	ErrWatcherStartFailed = zerr.New("failed to start watcher")

	// ErrBuildFailed is returned by one-shot renders when at least one target failed.
	ErrBuildFailed = zerr.New("one or more targets failed to render")
)
