package httpapi

import (
	"net/http"
	"time"

	"farmavida-master/pkg/validation"
	"farmavida-master/services/billing"

	"github.com/gin-gonic/gin"
)

type billingEndpoint struct {
	billing *billing.Service
}

func registerBilling(r *gin.RouterGroup, svc *billing.Service) {
	ep := &billingEndpoint{billing: svc}

	r.POST("/billing/checkout", ep.Checkout)
	r.GET("/billing/portal", ep.Portal)
	r.GET("/billing/payments", ep.Payments)
	r.POST("/billing/payments", ep.ConfirmPayment)
	r.POST("/billing/monitor", ep.Monitor)
}

type checkoutRequest struct {
	TenantID string `json:"tenantId" validate:"required"`
	PlanCode string `json:"planId" validate:"required"`
}

func (ep *billingEndpoint) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		abort(c, err)
		return
	}

	url, err := ep.billing.CreateCheckoutSession(c.Request.Context(), req.TenantID, req.PlanCode)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (ep *billingEndpoint) Portal(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"url": ep.billing.BillingPortalURL(c.Query("tenant_id"))})
}

func (ep *billingEndpoint) Payments(c *gin.Context) {
	payments, err := ep.billing.Payments(c.Request.Context(), c.Query("tenant_id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (ep *billingEndpoint) ConfirmPayment(c *gin.Context) {
	var req billing.PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	receipt, err := ep.billing.ProcessSuccessfulPayment(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (ep *billingEndpoint) Monitor(c *gin.Context) {
	report, err := ep.billing.MonitorSubscriptions(c.Request.Context(), time.Now())
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
