// Package config loads the layered session configuration for reel.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ConfigLoader = (*Loader)(nil)

// Environment variable names read by the loader.
const (
	EnvTargets  = "REEL_TARGETS"
	EnvQuality  = "REEL_QUALITY"
	EnvPort     = "REEL_PORT"
	EnvHost     = "REEL_HOST"
	EnvMediaDir = "REEL_MEDIA_DIR"
	EnvEngine   = "REEL_ENGINE"
	EnvNoOpen   = "REEL_NO_OPEN"
	EnvDetector = "REEL_DETECTOR"
	EnvDebounce = "REEL_DEBOUNCE"
)

// Loader implements ports.ConfigLoader.
//
// Layers, lowest precedence first: built-in defaults, the nearest reel.yaml
// at or above the working directory, the .env file in the working directory,
// then the process environment.
type Loader struct {
	Logger ports.Logger
	// LookupEnv reads the process environment; os.LookupEnv when nil.
	LookupEnv func(key string) (string, bool)
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger, LookupEnv: os.LookupEnv}
}

// Load merges every configuration layer visible from cwd.
func (l *Loader) Load(cwd string) (domain.Config, error) {
	cfg := domain.DefaultConfig()

	if path, ok := findConfigFile(cwd); ok {
		if err := l.applyFile(&cfg, path); err != nil {
			return cfg, errors.Join(domain.ErrFatalConfig, err)
		}
		if l.Logger != nil {
			l.Logger.Debug(fmt.Sprintf("loaded config from %s", path))
		}
	}

	env, err := l.environment(cwd)
	if err != nil {
		return cfg, errors.Join(domain.ErrFatalConfig, err)
	}
	if err := applyEnv(&cfg, env); err != nil {
		return cfg, errors.Join(domain.ErrFatalConfig, err)
	}

	return cfg, nil
}

// findConfigFile walks from cwd to the filesystem root looking for reel.yaml.
func findConfigFile(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", false
		}
		currentDir = parentDir
	}
}

func (l *Loader) applyFile(cfg *domain.Config, path string) error {
	var file Reelfile
	if err := readAndUnmarshalYAML(path, &file); err != nil {
		return zerr.With(err, "path", path)
	}

	baseDir := filepath.Dir(path)

	if len(file.Targets) > 0 {
		targets, err := resolveTargets(baseDir, file.Targets)
		if err != nil {
			return zerr.With(err, "path", path)
		}
		cfg.Targets = targets
	}
	if file.Quality != nil {
		q, err := domain.ParseQuality(*file.Quality)
		if err != nil {
			return zerr.With(err, "path", path)
		}
		cfg.Quality = q
	}
	if file.Port != nil {
		cfg.Port = *file.Port
	}
	if file.Host != nil {
		cfg.Host = *file.Host
	}
	if file.MediaDir != nil {
		cfg.MediaDir = resolvePath(baseDir, *file.MediaDir)
	}
	if file.Open != nil {
		cfg.Open = *file.Open
	}
	if len(file.Engine) > 0 {
		cfg.Engine = file.Engine
	}
	if file.Encoder != nil {
		cfg.Encoder = *file.Encoder
	}
	if len(file.Extensions) > 0 {
		cfg.Extensions = normalizeExtensions(file.Extensions)
	}
	if file.ArtifactExt != nil {
		cfg.ArtifactExt = normalizeExtension(*file.ArtifactExt)
	}
	if file.Debounce != nil {
		d, err := parseDuration("debounce", *file.Debounce)
		if err != nil {
			return zerr.With(err, "path", path)
		}
		cfg.Debounce = d
	}
	if file.Detector != nil {
		cfg.Detector = domain.Detector(strings.ToLower(*file.Detector))
	}
	if file.Python != nil {
		cfg.Python = *file.Python
	}
	if file.Jobs != nil {
		cfg.Jobs = *file.Jobs
	}
	if file.ShutdownTimeout != nil {
		d, err := parseDuration("shutdown_timeout", *file.ShutdownTimeout)
		if err != nil {
			return zerr.With(err, "path", path)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

// environment merges the .env file under the process environment.
func (l *Loader) environment(cwd string) (map[string]string, error) {
	values := make(map[string]string)

	envPath := filepath.Join(cwd, domain.EnvFileName)
	if _, err := os.Stat(envPath); err == nil {
		fileValues, err := godotenv.Read(envPath)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrEnvFileLoadFailed.Error()), "path", envPath)
		}
		for k, v := range fileValues {
			values[k] = v
		}
	}

	lookup := l.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	for _, key := range []string{
		EnvTargets, EnvQuality, EnvPort, EnvHost, EnvMediaDir,
		EnvEngine, EnvNoOpen, EnvDetector, EnvDebounce,
	} {
		if v, ok := lookup(key); ok {
			values[key] = v
		}
	}
	return values, nil
}

//nolint:cyclop // one branch per variable
func applyEnv(cfg *domain.Config, env map[string]string) error {
	if v, ok := env[EnvTargets]; ok && strings.TrimSpace(v) != "" {
		cfg.Targets = splitList(v)
	}
	if v, ok := env[EnvQuality]; ok && v != "" {
		q, err := domain.ParseQuality(v)
		if err != nil {
			return zerr.With(err, "env", EnvQuality)
		}
		cfg.Quality = q
	}
	if v, ok := env[EnvPort]; ok && v != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return zerr.With(zerr.With(domain.ErrInvalidPort, "env", EnvPort), "value", v)
		}
		cfg.Port = port
	}
	if v, ok := env[EnvHost]; ok && v != "" {
		cfg.Host = v
	}
	if v, ok := env[EnvMediaDir]; ok && v != "" {
		cfg.MediaDir = v
	}
	if v, ok := env[EnvEngine]; ok && strings.TrimSpace(v) != "" {
		cfg.Engine = strings.Fields(v)
	}
	if v, ok := env[EnvNoOpen]; ok && v != "" {
		noOpen, err := strconv.ParseBool(v)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "invalid boolean"), "env", EnvNoOpen)
		}
		cfg.Open = !noOpen
	}
	if v, ok := env[EnvDetector]; ok && v != "" {
		cfg.Detector = domain.Detector(strings.ToLower(v))
	}
	if v, ok := env[EnvDebounce]; ok && v != "" {
		d, err := parseDuration(EnvDebounce, v)
		if err != nil {
			return err
		}
		cfg.Debounce = d
	}
	return nil
}

// resolveTargets makes relative target sources relative to the config file directory.
func resolveTargets(baseDir string, raws []string) ([]string, error) {
	out := make([]string, 0, len(raws))
	for _, raw := range raws {
		spec, err := domain.ParseTargetSpec(raw)
		if err != nil {
			return nil, err
		}
		spec.Source = resolvePath(baseDir, spec.Source)
		out = append(out, spec.String())
	}
	return out, nil
}

func resolvePath(baseDir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "invalid duration"), "key", key)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, ext := range exts {
		if ext = normalizeExtension(ext); ext != "" {
			out = append(out, ext)
		}
	}
	return out
}

func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func readAndUnmarshalYAML[T any](configPath string, target *T) error {
	// #nosec G304 -- configPath is discovered by the loader
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return zerr.Wrap(err, domain.ErrConfigReadFailed.Error())
	}

	if parseErr := yaml.Unmarshal(configFile, target); parseErr != nil {
		return zerr.Wrap(parseErr, domain.ErrConfigParseFailed.Error())
	}

	return nil
}
