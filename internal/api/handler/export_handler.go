package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportBills 导出学期账单
// GET /api/v1/export/bills?semester_id=xxx
func (h *ExportHandler) ExportBills(c *gin.Context) {
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "semester_id 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportBills(c.Request.Context(), q.SemesterID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 23001, "学期不存在")
	case errors.Is(err, service.ErrExportNoBills):
		response.NotFound(c, 23002, "该学期尚未生成账单")
	default:
		respondKind(c, 23000, err)
	}
}
