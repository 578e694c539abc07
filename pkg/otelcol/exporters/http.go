package exporters

import (
	"context"
	"time"

	"farmavida-master/pkg/config"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
)

func ProvideHttp(cfg *config.Config) (*otlptrace.Exporter, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(cfg.Otel.Addr),
		otlptracehttp.WithCompression(otlptracehttp.GzipCompression),
	}
	if cfg.Otel.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	return otlptrace.New(ctx, otlptracehttp.NewClient(opts...))
}

// New picks the exporter by OTEL.PROTOCOL, defaulting to http.
func New(cfg *config.Config) (*otlptrace.Exporter, error) {
	if cfg.Otel.Protocol == "grpc" {
		return ProvideGrpc(cfg)
	}
	return ProvideHttp(cfg)
}
