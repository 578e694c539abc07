package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"farmavida-master/pkg/config"
	"farmavida-master/pkg/db"
	"farmavida-master/pkg/gen"
	"farmavida-master/pkg/hashistack/secretmanager"
	"farmavida-master/pkg/logger"
	"farmavida-master/pkg/otelcol"
	"farmavida-master/pkg/redis"
	"farmavida-master/pkg/sequence"
	"farmavida-master/pkg/task"
	"farmavida-master/services/billing"
	"farmavida-master/services/plan"
	"farmavida-master/services/provisioning"
	"farmavida-master/services/tenant"
)

// The worker consumes background tasks enqueued by the master API and runs
// the daily subscription monitor.
func main() {
	opts := []fx.Option{
		secretmanager.Module,
		config.Module,
		logger.Module,
		otelcol.Module,
		db.Module,
		redis.Module,
		sequence.Module,
		gen.Module,
		task.Client,
		task.Server,
		plan.Module,
		tenant.Module,
		billing.Module,
		billing.Worker,
		provisioning.Worker,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
