// Package observability настраивает трассировку OpenTelemetry.
package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/annel0/tome/internal/logging"
)

// Shutdown завершает экспорт трасс
type Shutdown func(context.Context) error

// InitTelemetry настраивает OTLP экспортер (по умолчанию localhost:4318, переменные
// OTEL_EXPORTER_OTLP_*) и устанавливает глобальный TracerProvider.
// При enabled=false трассировка остаётся no-op.
func InitTelemetry(ctx context.Context, serviceName string, enabled bool) (Shutdown, error) {
	if !enabled {
		logging.Debug("OpenTelemetry выключен")
		return func(context.Context) error { return nil }, nil
	}

	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("OpenTelemetry инициализирован (OTLP, service=%s)", serviceName)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
