package handler

import (
	"net/http"

	"dealership/internal/service"
	"dealership/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type ApprovalLetterHandler struct {
	letterService service.ApprovalLetterService
	guard         gin.HandlerFunc
}

func NewApprovalLetterHandler(letterService service.ApprovalLetterService, guard gin.HandlerFunc) *ApprovalLetterHandler {
	return &ApprovalLetterHandler{letterService: letterService, guard: guard}
}

func (h *ApprovalLetterHandler) RegisterRoutes(router *gin.RouterGroup) {
	letters := router.Group("/approval-letters")
	letters.Use(h.guard)
	{
		letters.POST("", h.Generate)
		letters.GET("", h.List)
		letters.GET("/:applicationId", h.Get)
	}
}

// Generate issues the approval letter for an approved application
// @Summary      Generate approval letter
// @Tags         approval-letters
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body  service.GenerateLetterRequest  true  "Application"
// @Success      201  {object}  response.Response{data=model.ApprovalLetter}
// @Failure      409  {object}  response.Response
// @Router       /approval-letters [post]
func (h *ApprovalLetterHandler) Generate(c *gin.Context) {
	var req service.GenerateLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c, err)
		return
	}

	letter, err := h.letterService.Generate(c.Request.Context(), req.ApplicationID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, letter)
}

func (h *ApprovalLetterHandler) List(c *gin.Context) {
	params := pagination.Parse(c)
	letters, total, err := h.letterService.List(c.Request.Context(), params)
	if err != nil {
		fail(c, err)
		return
	}
	page(c, http.StatusOK, params, letters, total)
}

func (h *ApprovalLetterHandler) Get(c *gin.Context) {
	letter, err := h.letterService.Get(c.Request.Context(), c.Param("applicationId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, letter)
}
