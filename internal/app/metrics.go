package app

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
)

var (
	tracer   = otel.Tracer("heartscore/app")
	appMeter = otel.GetMeterProvider().Meter("heartscore/app")
)

// count adds one to a named counter. Instruments are created lazily and
// failures are ignored.
func count(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	if counter, err := appMeter.Int64Counter(name); err == nil {
		counter.Add(ctx, 1, otelmetric.WithAttributes(attrs...))
	}
}
