package billing

import "go.uber.org/fx"

var Module = fx.Module("billing.module",
	fx.Provide(NewService),
)

// Worker handles the monitor task and schedules it daily.
var Worker = fx.Module("billing.worker",
	fx.Provide(NewScheduler),
	fx.Invoke(registerTasks, startScheduler),
)
