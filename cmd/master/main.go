package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"farmavida-master/internal/httpapi"
	"farmavida-master/pkg/accesscontrol"
	"farmavida-master/pkg/ai"
	"farmavida-master/pkg/config"
	"farmavida-master/pkg/db"
	"farmavida-master/pkg/gen"
	"farmavida-master/pkg/hashistack/secretmanager"
	"farmavida-master/pkg/health"
	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/minio"
	"farmavida-master/pkg/otelcol"
	"farmavida-master/pkg/profiling"
	"farmavida-master/pkg/redis"
	"farmavida-master/pkg/sequence"
	"farmavida-master/pkg/server"
	"farmavida-master/pkg/task"
	"farmavida-master/services/billing"
	"farmavida-master/services/bootstrap"
	"farmavida-master/services/identity"
	"farmavida-master/services/integration"
	"farmavida-master/services/plan"
	"farmavida-master/services/profile"
	"farmavida-master/services/provisioning"
	"farmavida-master/services/tenant"
	"farmavida-master/services/ticket"
)

func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		gen.Module,
		task.Client,
		minio.Client,
		ai.Module,
		health.Module,
		accesscontrol.Module,
		plan.Module,
		tenant.Module,
		identity.Module,
		profile.Module,
		provisioning.Module,
		ticket.Module,
		billing.Module,
		integration.Module,
		bootstrap.Module,
		httpapi.Module,
		server.ProvideHTTPServer,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "development" {
		return &fxevent.ZapLogger{Logger: logger}
	}
	return fxevent.NopLogger
})
