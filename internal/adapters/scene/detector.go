package scene

import (
	"go.trai.ch/reel/internal/core/domain"
	"go.trai.ch/reel/internal/core/ports"
)

// Factory builds the scene detector selected by configuration.
type Factory struct {
	executor ports.Executor
	logger   ports.Logger
}

// NewFactory creates a Factory.
func NewFactory(executor ports.Executor, logger ports.Logger) *Factory {
	return &Factory{executor: executor, logger: logger}
}

// For returns the detector for kind. The python detector falls back to the
// static scan when the interpreter or the engine is unavailable.
func (f *Factory) For(kind domain.Detector, python string) ports.SceneDetector {
	static := NewStaticDetector()
	if kind != domain.DetectorPython {
		return static
	}
	return &fallbackDetector{
		primary:   NewPythonDetector(f.executor, python),
		secondary: static,
		logger:    f.logger,
	}
}
