package bootstrap

import (
	"context"
	"fmt"

	"farmavida-master/services/billing"
	"farmavida-master/services/identity"
	"farmavida-master/services/integration"
	"farmavida-master/services/plan"
	"farmavida-master/services/profile"
	"farmavida-master/services/tenant"
	"farmavida-master/services/ticket"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models owned by the master console, in migration order.
func Models() []any {
	return []any{
		&plan.Plan{},
		&tenant.Tenant{},
		&identity.Identity{},
		&profile.Profile{},
		&ticket.Ticket{},
		&ticket.Message{},
		&billing.Invoice{},
		&billing.Payment{},
		&integration.AccessLog{},
	}
}

type Service struct {
	db    *gorm.DB
	plans *plan.Service
}

type ServiceParams struct {
	fx.In
	DB    *gorm.DB
	Plans *plan.Service
}

func NewService(p ServiceParams) *Service {
	return &Service{db: p.DB, plans: p.Plans}
}

// Migrate creates or updates the schema, then installs the default plan
// catalog. Plans that already exist are not touched.
func (s *Service) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		zap.L().Error("[bootstrap] schema migration failed", zap.Error(err))
		return fmt.Errorf("migrate schema: %w", err)
	}

	created, err := s.plans.Seed(ctx, plan.Defaults())
	if err != nil {
		zap.L().Error("[bootstrap] plan seeding failed", zap.Error(err))
		return fmt.Errorf("seed plans: %w", err)
	}

	if created > 0 {
		zap.L().Info("[bootstrap] Default plans created", zap.Int("count", created))
	} else {
		zap.L().Info("[bootstrap] Plan catalog already present")
	}
	return nil
}
