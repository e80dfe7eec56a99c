// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/reel/internal/core/domain"
)

// Executor defines the interface for running external commands.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the command to completion, streaming its combined
	// stdout and stderr into output.
	//
	// It returns an error carrying the exit code when the process exits non-zero.
	Execute(ctx context.Context, cmd domain.Command, output io.Writer) error
}
