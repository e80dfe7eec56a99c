package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.trai.ch/reel/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor and reports finished spans to
// the logger at debug level.
type Bridge struct {
	logger ports.Logger
}

// NewBridge returns a new Bridge.
func NewBridge(logger ports.Logger) *Bridge {
	return &Bridge{logger: logger}
}

// OnStart is called when a span starts.
func (b *Bridge) OnStart(_ context.Context, _ sdktrace.ReadWriteSpan) {}

// OnEnd is called when a span ends.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.logger == nil || !s.SpanContext().IsValid() {
		return
	}
	b.logger.Debug(Summary(s))
}

// Summary renders a finished span as one line: name, attributes, duration and status.
func Summary(s sdktrace.ReadOnlySpan) string {
	var sb strings.Builder
	sb.WriteString(s.Name())

	for _, kv := range s.Attributes() {
		fmt.Fprintf(&sb, " %s=%s", kv.Key, kv.Value.Emit())
	}

	fmt.Fprintf(&sb, " took=%s", s.EndTime().Sub(s.StartTime()).Round(time.Millisecond))

	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "failed"
		}
		fmt.Fprintf(&sb, " status=error (%s)", firstLine(desc))
	} else {
		sb.WriteString(" status=ok")
	}
	return sb.String()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
