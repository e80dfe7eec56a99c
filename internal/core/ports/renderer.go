package ports

import (
	"context"

	"go.trai.ch/reel/internal/core/domain"
)

// Renderer produces a target's preview artifact.
//
//go:generate go run go.uber.org/mock/mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Render runs one invocation to completion. Failures are reported in
	// the result and never leave a partially written preview behind.
	Render(ctx context.Context, target *domain.Target) domain.RenderResult
}
