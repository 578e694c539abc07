package httpapi

import (
	"net/http"

	"farmavida-master/services/plan"

	"github.com/gin-gonic/gin"
)

type planEndpoint struct {
	plans *plan.Service
}

func registerPlans(r *gin.RouterGroup, plans *plan.Service) {
	ep := &planEndpoint{plans: plans}

	r.GET("/plans", ep.List)
	r.POST("/plans", ep.Create)
	r.GET("/plans/:id", ep.Get)
	r.PATCH("/plans/:id", ep.Update)
	r.DELETE("/plans/:id", ep.Delete)
}

func (ep *planEndpoint) List(c *gin.Context) {
	activeOnly := c.Query("active") == "true"

	plans, err := ep.plans.List(c.Request.Context(), activeOnly)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}

func (ep *planEndpoint) Get(c *gin.Context) {
	p, err := ep.plans.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (ep *planEndpoint) Create(c *gin.Context) {
	var req plan.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	p, err := ep.plans.Create(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (ep *planEndpoint) Update(c *gin.Context) {
	var req plan.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	p, err := ep.plans.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (ep *planEndpoint) Delete(c *gin.Context) {
	if err := ep.plans.Delete(c.Request.Context(), c.Param("id")); err != nil {
		abort(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
