package handler

import (
	"net/http"

	"dealership/internal/service"
	"dealership/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type ApplicationHandler struct {
	applicationService service.ApplicationService
	paymentService     service.PaymentService
	guard              gin.HandlerFunc
}

func NewApplicationHandler(applicationService service.ApplicationService, paymentService service.PaymentService, guard gin.HandlerFunc) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService, paymentService: paymentService, guard: guard}
}

func (h *ApplicationHandler) RegisterRoutes(router *gin.RouterGroup) {
	apps := router.Group("/applications")
	{
		apps.POST("", h.Submit)
		apps.GET("/track/:trackingId", h.Track)
		apps.POST("/track/:trackingId/info", h.SupplyInfo)
		apps.GET("/track/:trackingId/payment", h.PaymentInstructions)

		apps.GET("", h.guard, h.List)
		apps.GET("/:id", h.guard, h.Get)
		apps.PATCH("/:id", h.guard, h.UpdateStatus)
	}
}

// Submit creates a new dealership application
// @Summary      Submit an application
// @Description  Validates the four wizard steps and stores the application in SUBMITTED status
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        request body object true "Wizard values keyed by field name"
// @Success      201  {object}  response.Response{data=model.Application}
// @Failure      400  {object}  response.Response
// @Router       /applications [post]
func (h *ApplicationHandler) Submit(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		badBody(c, err)
		return
	}

	app, err := h.applicationService.Submit(c.Request.Context(), service.ValuesFromPayload(payload))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, app)
}

// Track returns the public status of an application
// @Summary      Track an application
// @Tags         applications
// @Produce      json
// @Param        trackingId  path  string  true  "Tracking ID"
// @Success      200  {object}  response.Response{data=service.TrackingResponse}
// @Failure      404  {object}  response.Response
// @Router       /applications/track/{trackingId} [get]
func (h *ApplicationHandler) Track(c *gin.Context) {
	res, err := h.applicationService.Track(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// SupplyInfo answers a request for additional information
// @Summary      Supply additional information
// @Tags         applications
// @Accept       json
// @Produce      json
// @Param        trackingId  path  string                     true  "Tracking ID"
// @Param        request     body  service.SupplyInfoRequest  true  "Information"
// @Success      200  {object}  response.Response{data=service.TrackingResponse}
// @Router       /applications/track/{trackingId}/info [post]
func (h *ApplicationHandler) SupplyInfo(c *gin.Context) {
	var req service.SupplyInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	res, err := h.applicationService.SupplyInfo(c.Request.Context(), c.Param("trackingId"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// PaymentInstructions returns the UPI details for an application awaiting payment
// @Summary      UPI payment instructions
// @Tags         payments
// @Produce      json
// @Param        trackingId  path  string  true  "Tracking ID"
// @Success      200  {object}  response.Response{data=service.PaymentInstructions}
// @Router       /applications/track/{trackingId}/payment [get]
func (h *ApplicationHandler) PaymentInstructions(c *gin.Context) {
	res, err := h.paymentService.Instructions(c.Request.Context(), c.Param("trackingId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// List returns applications, newest first
// @Summary      List applications
// @Tags         applications
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Status filter"
// @Param        search  query  string  false  "Name, email, business or tracking id"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=pagination.Page}
// @Router       /applications [get]
func (h *ApplicationHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.ApplicationFilter{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Params: params,
	}

	apps, total, err := h.applicationService.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	page(c, http.StatusOK, params, apps, total)
}

func (h *ApplicationHandler) Get(c *gin.Context) {
	res, err := h.applicationService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// UpdateStatus moves an application to a new status
// @Summary      Change application status
// @Tags         applications
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Application ID"
// @Param        request  body  service.UpdateStatusRequest  true  "Target status"
// @Success      200  {object}  response.Response{data=model.Application}
// @Failure      400  {object}  response.Response
// @Router       /applications/{id} [patch]
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	app, err := h.applicationService.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, app)
}
