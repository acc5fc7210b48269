package handler

import (
	"net/http"

	"dealership/internal/service"
	"dealership/pkg/pagination"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	guard        gin.HandlerFunc
}

func NewAuditHandler(auditService service.AuditService, guard gin.HandlerFunc) *AuditHandler {
	return &AuditHandler{auditService: auditService, guard: guard}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.guard)
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns the audit trail, newest first
// @Summary      Get audit logs
// @Description  Who changed which application, payment or support request
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        entityId  query     string  false  "Only entries for this record"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), c.Query("entityId"), params)
	if err != nil {
		fail(c, err)
		return
	}
	page(c, http.StatusOK, params, logs, total)
}
