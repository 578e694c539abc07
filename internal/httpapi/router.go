package httpapi

import (
	"farmavida-master/pkg/accesscontrol"
	"farmavida-master/pkg/config"
	"farmavida-master/pkg/health"
	"farmavida-master/pkg/metrics"
	"farmavida-master/pkg/middleware"
	"farmavida-master/services/billing"
	"farmavida-master/services/integration"
	"farmavida-master/services/plan"
	"farmavida-master/services/provisioning"
	"farmavida-master/services/tenant"
	"farmavida-master/services/ticket"

	"github.com/casbin/casbin/v2"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

var Module = fx.Module("httpapi", fx.Provide(NewRouter))

type Params struct {
	fx.In
	Config      *config.Config `optional:"true"`
	Enforcer    *casbin.Enforcer
	Health      health.HealthService
	Tenants     *tenant.Service
	Provisioner *provisioning.Provisioner
	Plans       *plan.Service
	Tickets     *ticket.Service
	Billing     *billing.Service
	Store       *integration.Service
}

// NewRouter mounts the platform probes, the public store API under /api and
// the role guarded admin console under /api/v1.
func NewRouter(p Params) *gin.Engine {
	if p.Config != nil && p.Config.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.Trace(), metrics.Middleware(), middleware.Error())

	r.GET("/healthz", p.Health.Liveness)
	r.GET("/readyz", p.Health.Readiness)
	r.GET("/metrics", metrics.Handler())

	public := r.Group("/api")
	registerStore(public, p.Store)

	admin := r.Group("/api/v1", accesscontrol.Authorize(p.Enforcer))
	registerTenants(admin, p.Tenants, p.Provisioner, p.Billing, p.Store)
	registerPlans(admin, p.Plans)
	registerTickets(admin, p.Tickets)
	registerBilling(admin, p.Billing)

	return r
}
