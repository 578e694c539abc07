package plan

import (
	"farmavida-master/services/tenant"

	"go.uber.org/fx"
)

var Module = fx.Module("plan.module",
	fx.Provide(
		NewService,
		func(s *Service) tenant.PlanCatalog { return s },
	),
)
