package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/response"
)

// MandoHandler Mando 预算模块 HTTP 处理器
type MandoHandler struct {
	mandoSvc service.MandoService
}

// NewMandoHandler 创建 MandoHandler
func NewMandoHandler(mandoSvc service.MandoService) *MandoHandler {
	return &MandoHandler{mandoSvc: mandoSvc}
}

// GetBudget 查询学期预算
// GET /api/v1/mando/budget?semester_id=
func (h *MandoHandler) GetBudget(c *gin.Context) {
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "semester_id 不能为空")
		return
	}

	budget, err := h.mandoSvc.GetBudget(c.Request.Context(), q.SemesterID)
	if err != nil {
		h.handleMandoError(c, err)
		return
	}

	response.OK(c, budget)
}

// UpdateBudget 设置学期预算
// PUT /api/v1/mando/budget
func (h *MandoHandler) UpdateBudget(c *gin.Context) {
	var req dto.UpdateMandoBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.mandoSvc.UpdateBudget(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleMandoError(c, err)
		return
	}

	response.OK(c, result)
}

// GetAllocation 预算分摊（超预算只提示）
// GET /api/v1/mando/allocation?semester_id=
func (h *MandoHandler) GetAllocation(c *gin.Context) {
	var q dto.SemesterQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "semester_id 不能为空")
		return
	}

	alloc, err := h.mandoSvc.Allocation(c.Request.Context(), q.SemesterID)
	if err != nil {
		h.handleMandoError(c, err)
		return
	}

	response.OK(c, alloc)
}

func (h *MandoHandler) handleMandoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 20001, "学期不存在")
	case errors.Is(err, service.ErrMandoBudgetNegative):
		response.BadRequest(c, 20002, "Mando 预算不能为负数")
	default:
		respondKind(c, 20000, err)
	}
}
