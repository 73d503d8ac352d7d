package handler

import (
	"github.com/gin-gonic/gin"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/response"
)

// AuditHandler 审计日志 HTTP 处理器
type AuditHandler struct {
	auditSvc service.AuditRecorder
}

// NewAuditHandler 创建 AuditHandler
func NewAuditHandler(auditSvc service.AuditRecorder) *AuditHandler {
	return &AuditHandler{auditSvc: auditSvc}
}

// ListAuditLogs 审计日志列表（分页）
// GET /api/v1/audit-logs?entity=&entity_id=&page=&page_size=
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	var filter dto.AuditLogFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	logs, total, err := h.auditSvc.List(c.Request.Context(), &filter)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKPage(c, logs, total, filter.GetPage(), filter.GetPageSize())
}
