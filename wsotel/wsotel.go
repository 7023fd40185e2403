// Package wsotel instruments a wsendpoint.Diagnostics sink with
// OpenTelemetry span events, for callers that already hold a
// context.Context around the transport callbacks driving an Endpoint.
package wsotel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	wsendpoint "go.wsendpoint.dev/core"
)

const (
	pkgName    = "wsendpoint"
	pkgVersion = "0.0.0"

	namespace       = "wsendpoint"
	eventDiagnostic = namespace + ".diagnostic"
	attrMessage     = namespace + ".message"
)

// decorator wraps a Diagnostics sink so every logged line is also
// recorded as an event on the span active in ctx, if any.
type decorator struct {
	ctx       context.Context
	decorated wsendpoint.Diagnostics
	tracer    trace.Tracer
}

// Wrap returns a Diagnostics sink that forwards every Logf call to d (if
// non-nil) and additionally records it as an event on the span carried by
// ctx. tp selects the tracer provider; a nil tp falls back to the global
// provider via otel.GetTracerProvider.
//
// The engine itself never accepts a context.Context, so this
// decorator is for callers that own one around the transport callbacks
// they hand the engine, such as the reference echo server.
func Wrap(ctx context.Context, d wsendpoint.Diagnostics, tp trace.TracerProvider) wsendpoint.Diagnostics {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &decorator{
		ctx:       ctx,
		decorated: d,
		tracer:    tp.Tracer(pkgName, trace.WithInstrumentationVersion(pkgVersion)),
	}
}

func (w *decorator) Logf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if w.decorated != nil {
		w.decorated.Logf("%s", msg)
	}
	span := trace.SpanFromContext(w.ctx)
	if span.IsRecording() {
		span.AddEvent(eventDiagnostic, trace.WithAttributes(attribute.String(attrMessage, msg)))
	}
}
