package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/reel/internal/adapters/logger"
	"go.trai.ch/reel/internal/core/ports"
)

// NodeID is the unique identifier for the tracer Graft node.
const NodeID graft.ID = "adapter.tracer"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			// Spans end synchronously in the bridge, so no exporter is needed.
			tp := sdktrace.NewTracerProvider(
				sdktrace.WithSpanProcessor(NewBridge(log)),
			)
			otel.SetTracerProvider(tp)

			return NewOTelTracer(tp), nil
		},
	})
}

// Shutdown flushes and stops the global tracer provider installed by the
// tracer node. It is a no-op when no SDK provider was installed.
func Shutdown(ctx context.Context) error {
	tp, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	if !ok {
		return nil
	}
	return tp.Shutdown(ctx)
}
