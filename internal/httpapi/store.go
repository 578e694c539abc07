package httpapi

import (
	"farmavida-master/services/integration"

	"github.com/gin-gonic/gin"
)

// storeEndpoint serves the endpoints pharmacy storefronts call. Every
// response uses the integration envelope, including failures.
type storeEndpoint struct {
	store *integration.Service
}

func registerStore(r *gin.RouterGroup, store *integration.Service) {
	ep := &storeEndpoint{store: store}

	r.GET("/license-status", ep.LicenseStatus)
	r.GET("/features", ep.Features)
	r.GET("/payments-history", ep.PaymentsHistory)
	r.POST("/log-access", ep.LogAccess)
}

func (ep *storeEndpoint) reply(c *gin.Context, resp *integration.Response, err error) {
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(resp.StatusCode, resp)
}

func (ep *storeEndpoint) LicenseStatus(c *gin.Context) {
	resp, err := ep.store.LicenseStatus(c.Request.Context(), c.Query("tenant_id"))
	ep.reply(c, resp, err)
}

func (ep *storeEndpoint) Features(c *gin.Context) {
	resp, err := ep.store.Features(c.Request.Context(), c.Query("tenant_id"))
	ep.reply(c, resp, err)
}

func (ep *storeEndpoint) PaymentsHistory(c *gin.Context) {
	resp, err := ep.store.PaymentsHistory(c.Request.Context(), c.Query("tenant_id"))
	ep.reply(c, resp, err)
}

func (ep *storeEndpoint) LogAccess(c *gin.Context) {
	var req integration.AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if req.IP == "" {
		req.IP = c.ClientIP()
	}
	if req.Device == "" {
		req.Device = c.Request.UserAgent()
	}

	resp, err := ep.store.LogAccess(c.Request.Context(), req)
	ep.reply(c, resp, err)
}
