package otelcol

import (
	"context"

	"farmavida-master/pkg/config"
	"farmavida-master/pkg/otelcol/exporters"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("otelcol", fx.Invoke(RegisterTracing))

func serviceResource(cfg *config.Config) *resource.Resource {
	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		attribute.String("service.name", cfg.AppName),
		attribute.String("service.version", cfg.AppVersion),
		attribute.String("deployment.environment", cfg.AppEnv),
	))
	if err != nil {
		return resource.Default()
	}
	return res
}

func ProvideTrace(exporter trace.SpanExporter, opts ...trace.TracerProviderOption) *trace.TracerProvider {
	opts = append(opts, trace.WithBatcher(exporter))
	return trace.NewTracerProvider(opts...)
}

// RegisterTracing installs a global tracer provider when OTEL.ADDR is set.
// Without it spans stay no-op and trace ids in logs are empty.
func RegisterTracing(lc fx.Lifecycle, cfg *config.Config) error {
	if cfg.Otel.Addr == "" {
		zap.L().Info("otel tracing disabled")
		return nil
	}

	exporter, err := exporters.New(cfg)
	if err != nil {
		zap.L().Error("failed to create otlp exporter", zap.Error(err))
		return err
	}

	tp := ProvideTrace(exporter, trace.WithResource(serviceResource(cfg)))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	zap.L().Info("otel tracing enabled", zap.String("addr", cfg.Otel.Addr), zap.String("protocol", cfg.Otel.Protocol))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})

	return nil
}
