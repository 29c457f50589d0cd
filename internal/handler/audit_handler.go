package handler

import (
	"net/http"

	"fms/internal/lifecycle"
	"fms/internal/middleware"
	"fms/internal/service"
	"fms/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", middleware.Require(lifecycle.ActionView, lifecycle.EntitySettings), h.GetAuditLogs)
}

// GetAuditLogs returns the audit trail
// @Summary      List audit logs
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        entity_type  query     string  false  "Entity type"
// @Param        entity_id    query     string  false  "Entity ID"
// @Param        page         query     int     false  "Page"
// @Param        limit        query     int     false  "Page size"
// @Success      200          {object}  response.Response{data=pagination.Page}
// @Router       /audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	_, p := listQuery(c)
	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), middleware.ActorFrom(c), service.AuditQuery{
		EntityType: c.Query("entity_type"),
		EntityID:   c.Query("entity_id"),
		Page:       p.Page,
		Limit:      p.Limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Wrap(logs, total)))
}
