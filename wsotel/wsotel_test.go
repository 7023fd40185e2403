package wsotel_test

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"go.wsendpoint.dev/core/wsotel"
)

type recordingDiagnostics struct {
	lines []string
}

func (r *recordingDiagnostics) Logf(format string, args ...interface{}) {
	r.lines = append(r.lines, format)
}

func TestWrap_forwardsToDecoratedSink(t *testing.T) {
	t.Parallel()

	rec := &recordingDiagnostics{}
	d := wsotel.Wrap(context.Background(), rec, trace.NewNoopTracerProvider())

	d.Logf("closing connection to %s: code=%d", "peer", 1000)

	if len(rec.lines) != 1 {
		t.Fatalf("expected one forwarded line, got %d", len(rec.lines))
	}
}

func TestWrap_toleratesNilDecorated(t *testing.T) {
	t.Parallel()

	d := wsotel.Wrap(context.Background(), nil, trace.NewNoopTracerProvider())

	// Must not panic even though there is no span in the background
	// context and no decorated sink to forward to.
	d.Logf("no-op")
}
