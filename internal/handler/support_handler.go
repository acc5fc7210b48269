package handler

import (
	"net/http"
	"strconv"

	"dealership/internal/service"
	"dealership/pkg/apperror"
	"dealership/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type SupportHandler struct {
	supportService service.SupportService
	guard          gin.HandlerFunc
}

func NewSupportHandler(supportService service.SupportService, guard gin.HandlerFunc) *SupportHandler {
	return &SupportHandler{supportService: supportService, guard: guard}
}

func (h *SupportHandler) RegisterRoutes(router *gin.RouterGroup) {
	support := router.Group("/support")
	{
		support.POST("", h.Create)
		support.GET("", h.guard, h.List)
		support.GET("/:id", h.guard, h.Get)
		support.PATCH("/:id", h.guard, h.Resolve)
	}
}

// Create stores a contact form submission
// @Summary      Contact support
// @Tags         support
// @Accept       json
// @Produce      json
// @Param        request  body  service.CreateSupportRequest  true  "Message"
// @Success      201  {object}  response.Response{data=model.SupportRequest}
// @Router       /support [post]
func (h *SupportHandler) Create(c *gin.Context) {
	var req service.CreateSupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	sr, err := h.supportService.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, sr)
}

// List returns support requests, optionally only resolved or unresolved ones
func (h *SupportHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.SupportFilter{Params: params}
	if raw := c.Query("resolved"); raw != "" {
		resolved, err := strconv.ParseBool(raw)
		if err != nil {
			fail(c, apperror.Validation(map[string]string{"resolved": "Must be true or false"}))
			return
		}
		filter.Resolved = &resolved
	}

	reqs, total, err := h.supportService.List(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	page(c, http.StatusOK, params, reqs, total)
}

func (h *SupportHandler) Get(c *gin.Context) {
	sr, err := h.supportService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}

func (h *SupportHandler) Resolve(c *gin.Context) {
	var req service.ResolveSupportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	sr, err := h.supportService.Resolve(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, sr)
}
