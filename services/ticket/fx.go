package ticket

import "go.uber.org/fx"

var Module = fx.Module("ticket.module",
	fx.Provide(NewService),
)
