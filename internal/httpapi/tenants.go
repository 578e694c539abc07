package httpapi

import (
	"net/http"
	"strconv"

	"farmavida-master/pkg/validation"
	"farmavida-master/services/billing"
	"farmavida-master/services/integration"
	"farmavida-master/services/provisioning"
	"farmavida-master/services/tenant"

	"github.com/gin-gonic/gin"
)

type tenantEndpoint struct {
	tenants     *tenant.Service
	provisioner *provisioning.Provisioner
	billing     *billing.Service
	store       *integration.Service
}

func registerTenants(r *gin.RouterGroup, tenants *tenant.Service, prov *provisioning.Provisioner, bill *billing.Service, store *integration.Service) {
	ep := &tenantEndpoint{tenants: tenants, provisioner: prov, billing: bill, store: store}

	r.GET("/tenants", ep.List)
	r.POST("/tenants", ep.Provision)
	r.GET("/tenants/summary", ep.Summary)
	r.GET("/tenants/:id", ep.Get)
	r.PATCH("/tenants/:id", ep.Update)
	r.DELETE("/tenants/:id", ep.Delete)
	r.PATCH("/tenants/:id/status", ep.UpdateStatus)
	r.PATCH("/tenants/:id/plan", ep.ChangePlan)
	r.PUT("/tenants/:id/admin", ep.EnsureAdmin)
	r.PUT("/tenants/:id/domain", ep.SetDomain)
	r.POST("/tenants/:id/domain/verify", ep.VerifyDomain)
	r.GET("/tenants/:id/invoices", ep.Invoices)
	r.POST("/tenants/:id/block", ep.Block)
	r.GET("/tenants/:id/access-logs", ep.AccessLogs)
}

func (ep *tenantEndpoint) List(c *gin.Context) {
	var f tenant.ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badBody(c, err)
		return
	}

	res, err := ep.tenants.List(c.Request.Context(), f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ep *tenantEndpoint) Provision(c *gin.Context) {
	var req provisioning.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	res, err := ep.provisioner.Provision(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (ep *tenantEndpoint) Summary(c *gin.Context) {
	res, err := ep.tenants.Summary(c.Request.Context())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ep *tenantEndpoint) Get(c *gin.Context) {
	t, err := ep.tenants.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t.View())
}

func (ep *tenantEndpoint) Update(c *gin.Context) {
	var req tenant.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		abort(c, err)
		return
	}

	t, err := ep.tenants.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t.View())
}

func (ep *tenantEndpoint) Delete(c *gin.Context) {
	report, err := ep.tenants.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

type statusRequest struct {
	Status tenant.Status `json:"status" validate:"required"`
	Reason string        `json:"reason"`
}

func (ep *tenantEndpoint) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		abort(c, err)
		return
	}

	t, err := ep.tenants.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Reason)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t.View())
}

type planRequest struct {
	PlanCode string `json:"planCode" validate:"required"`
}

func (ep *tenantEndpoint) ChangePlan(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		abort(c, err)
		return
	}

	t, err := ep.tenants.ChangePlan(c.Request.Context(), c.Param("id"), req.PlanCode)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t.View())
}

func (ep *tenantEndpoint) EnsureAdmin(c *gin.Context) {
	var req provisioning.AdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	res, err := ep.provisioner.EnsureAdmin(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}

	code := http.StatusOK
	if res.Created {
		code = http.StatusCreated
	}
	c.JSON(code, res)
}

func (ep *tenantEndpoint) SetDomain(c *gin.Context) {
	var req tenant.DomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		abort(c, err)
		return
	}

	challenge, err := ep.tenants.SetCustomDomain(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, challenge)
}

func (ep *tenantEndpoint) VerifyDomain(c *gin.Context) {
	t, err := ep.tenants.VerifyDomain(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t.View())
}

func (ep *tenantEndpoint) Invoices(c *gin.Context) {
	invoices, err := ep.billing.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

type blockRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (ep *tenantEndpoint) Block(c *gin.Context) {
	var req blockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		abort(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := ep.billing.BlockTenant(ctx, c.Param("id"), req.Reason); err != nil {
		abort(c, err)
		return
	}

	t, err := ep.tenants.Get(ctx, c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t.View())
}

func (ep *tenantEndpoint) AccessLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := ep.store.AccessLogs(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}
