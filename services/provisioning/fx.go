package provisioning

import "go.uber.org/fx"

var Module = fx.Module("provisioning.module",
	fx.Provide(New),
)

// Worker registers the provisioning task handlers on the asynq mux.
var Worker = fx.Module("provisioning.worker",
	fx.Invoke(registerTasks),
)
