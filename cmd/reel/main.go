// Package main is the entry point for reel.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grindlemire/graft"
	"go.trai.ch/reel/cmd/reel/commands"
	"go.trai.ch/reel/internal/adapters/telemetry"
	"go.trai.ch/reel/internal/app"
	"go.trai.ch/reel/internal/core/domain"
	_ "go.trai.ch/reel/internal/wiring"
)

// tracerShutdownTimeout bounds how long exiting waits for pending spans.
const tracerShutdownTimeout = 2 * time.Second

// ComponentProvider resolves the application components together with a
// cleanup that releases what resolving them started.
type ComponentProvider func(context.Context) (*app.Components, func(), error)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stderr, provideComponents))
}

// provideComponents resolves the graph and hands back a cleanup that stops
// the tracer provider the telemetry node installed.
func provideComponents(ctx context.Context) (*app.Components, func(), error) {
	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		return nil, nil, err
	}
	return components, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), tracerShutdownTimeout)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}, nil
}

func run(
	ctx context.Context,
	args []string,
	stderr io.Writer,
	provider ComponentProvider,
	opts ...func(*app.App),
) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, cleanup, err := provider(ctx)
	if err != nil {
		// No logger exists before the graph resolves.
		_, _ = fmt.Fprintln(stderr, "Error: "+err.Error())
		return 1
	}
	if cleanup != nil {
		defer cleanup()
	}

	for _, opt := range opts {
		opt(components.App)
	}

	cli := commands.New(components.App)
	cli.SetArgs(args)
	cli.SetOutput(os.Stdout, stderr)

	err = cli.Execute(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, domain.ErrBuildFailed):
		// Failed renders were already reported target by target.
		return 1
	default:
		components.Logger.Error(err)
		return 1
	}
}
