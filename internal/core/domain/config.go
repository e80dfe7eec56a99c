package domain

import (
	"time"

	"go.trai.ch/zerr"
)

// Detector names the scene auto-detection strategy.
type Detector string

const (
	// DetectorStatic scans the source text without executing it.
	DetectorStatic Detector = "static"
	// DetectorPython imports the source with an interpreter and lists scene classes.
	DetectorPython Detector = "python"
)

const (
	// DefaultPort is the default HTTP port of the preview server.
	DefaultPort = 5500
	// DefaultHost is the loopback address the preview server binds to.
	DefaultHost = "127.0.0.1"
	// DefaultDebounce is the per-target debounce window.
	DefaultDebounce = 350 * time.Millisecond
	// DefaultShutdownTimeout bounds how long shutdown waits for watchers and renders.
	DefaultShutdownTimeout = 5 * time.Second
	// DefaultArtifactExt is the extension of the artifact the engine produces.
	DefaultArtifactExt = ".mp4"
	// DefaultEncoder is the media encoder the engine relies on.
	DefaultEncoder = "ffmpeg"
	// DefaultPython is the interpreter used by the python scene detector.
	DefaultPython = "python3"
	// MaxPort is the highest valid TCP port.
	MaxPort = 65535
)

// Config is the fully merged session configuration.
type Config struct {
	Targets         []string
	Quality         Quality
	Port            int
	Host            string
	MediaDir        string
	Open            bool
	Verbose         bool
	Engine          []string
	Encoder         string
	Extensions      []string
	ArtifactExt     string
	Debounce        time.Duration
	Detector        Detector
	Python          string
	Jobs            int
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Quality:         QualityLow,
		Port:            DefaultPort,
		Host:            DefaultHost,
		MediaDir:        DefaultMediaDir,
		Open:            true,
		Engine:          []string{"manim"},
		Encoder:         DefaultEncoder,
		Extensions:      []string{".py"},
		ArtifactExt:     DefaultArtifactExt,
		Debounce:        DefaultDebounce,
		Detector:        DetectorStatic,
		Python:          DefaultPython,
		Jobs:            1,
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

// Validate checks the merged configuration for values no session can run with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > MaxPort {
		return zerr.With(ErrInvalidPort, "port", c.Port)
	}
	if _, err := ParseQuality(string(c.Quality)); err != nil {
		return err
	}
	switch c.Detector {
	case DetectorStatic, DetectorPython:
	default:
		return zerr.With(ErrInvalidDetector, "detector", string(c.Detector))
	}
	if len(c.Engine) == 0 || c.Engine[0] == "" {
		return zerr.With(ErrEngineNotFound, "engine", "")
	}
	if c.Jobs < 1 {
		c.Jobs = 1
	}
	if c.Debounce < 0 {
		c.Debounce = 0
	}
	return nil
}
