package httpapi

import (
	"net/http"

	"farmavida-master/pkg/errutil"
	"farmavida-master/pkg/validation"
	"farmavida-master/services/ticket"

	"github.com/gin-gonic/gin"
)

type ticketEndpoint struct {
	tickets *ticket.Service
}

func registerTickets(r *gin.RouterGroup, tickets *ticket.Service) {
	ep := &ticketEndpoint{tickets: tickets}

	r.GET("/tickets", ep.List)
	r.POST("/tickets", ep.Create)
	r.POST("/tickets/classify", ep.Classify)
	r.GET("/tickets/:id", ep.Get)
	r.PATCH("/tickets/:id/status", ep.UpdateStatus)
	r.POST("/tickets/:id/messages", ep.AddMessage)
	r.POST("/tickets/:id/attachments", ep.AddAttachment)
	r.POST("/tickets/:id/suggest-reply", ep.SuggestReply)

	r.GET("/faq/categories", ep.FAQCategories)
	r.GET("/faq/articles", ep.SearchArticles)
}

func (ep *ticketEndpoint) List(c *gin.Context) {
	var f ticket.ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		badBody(c, err)
		return
	}

	res, err := ep.tickets.List(c.Request.Context(), f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ep *ticketEndpoint) Create(c *gin.Context) {
	var req ticket.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if req.Origin == "" {
		req.Origin = "master"
	}

	t, err := ep.tickets.Create(c.Request.Context(), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

type classifyRequest struct {
	Subject     string `json:"subject" validate:"required"`
	Description string `json:"description"`
}

func (ep *ticketEndpoint) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket.Classify(req.Subject, req.Description))
}

func (ep *ticketEndpoint) Get(c *gin.Context) {
	t, err := ep.tickets.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type ticketStatusRequest struct {
	Status ticket.Status `json:"status" validate:"required"`
}

func (ep *ticketEndpoint) UpdateStatus(c *gin.Context) {
	var req ticketStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}
	if err := validation.Struct(req); err != nil {
		abort(c, err)
		return
	}

	t, err := ep.tickets.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (ep *ticketEndpoint) AddMessage(c *gin.Context) {
	var req ticket.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	t, err := ep.tickets.AddMessage(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (ep *ticketEndpoint) AddAttachment(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		abort(c, errutil.BadRequest("multipart field \"file\" is required", err, errutil.WithReason("missing_file")))
		return
	}

	f, err := fh.Open()
	if err != nil {
		abort(c, errutil.BadRequest("attachment could not be read", err))
		return
	}
	defer f.Close()

	att, err := ep.tickets.AddAttachment(c.Request.Context(), c.Param("id"),
		fh.Filename, fh.Header.Get("Content-Type"), fh.Size, f)
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}

func (ep *ticketEndpoint) SuggestReply(c *gin.Context) {
	s, err := ep.tickets.SuggestReply(c.Request.Context(), c.Param("id"))
	if err != nil {
		abort(c, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (ep *ticketEndpoint) FAQCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": ticket.FAQCategories()})
}

func (ep *ticketEndpoint) SearchArticles(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": ticket.SearchArticles(c.Query("q"))})
}
