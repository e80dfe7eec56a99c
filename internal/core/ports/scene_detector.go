package ports

import (
	"context"

	"go.trai.ch/reel/internal/core/domain"
)

// SceneDetector discovers the renderable scenes declared in a source file
// without the user naming them.
//
//go:generate go run go.uber.org/mock/mockgen -source=scene_detector.go -destination=mocks/mock_scene_detector.go -package=mocks
type SceneDetector interface {
	// Detect returns candidate scene identifiers in declaration order.
	Detect(ctx context.Context, sourcePath string) ([]string, error)
}

// SceneDetectorFactory returns the detector for the configured strategy.
type SceneDetectorFactory func(kind domain.Detector, python string) SceneDetector
