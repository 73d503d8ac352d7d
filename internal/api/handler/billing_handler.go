package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/response"
)

// BillingHandler 计费模块 HTTP 处理器
type BillingHandler struct {
	billingSvc service.BillingService
}

// NewBillingHandler 创建 BillingHandler
func NewBillingHandler(billingSvc service.BillingService) *BillingHandler {
	return &BillingHandler{billingSvc: billingSvc}
}

// RunSemester 学期计费
// POST /api/v1/billing/semester
func (h *BillingHandler) RunSemester(c *gin.Context) {
	var req dto.RunSemesterBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.billingSvc.RunSemester(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}

	response.OK(c, result)
}

// ListSemesterBills 已生成的学期账单
// GET /api/v1/billing/semester/:semester_id
func (h *BillingHandler) ListSemesterBills(c *gin.Context) {
	semesterID := c.Param("semester_id")
	if semesterID == "" {
		response.BadRequest(c, 10001, "semester_id 不能为空")
		return
	}

	bills, err := h.billingSvc.ListSemesterBills(c.Request.Context(), semesterID)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": bills})
}

// RunMonthly 按月度单价生成结余
// POST /api/v1/billing/monthly
func (h *BillingHandler) RunMonthly(c *gin.Context) {
	var req dto.RunMonthlyBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.billingSvc.RunMonthly(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}

	response.OK(c, result)
}

// ListMonthly 查询月度结余
// GET /api/v1/billing/monthly?month=&year=&student_id=
func (h *BillingHandler) ListMonthly(c *gin.Context) {
	var filter dto.MonthFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	balances, err := h.billingSvc.ListMonthly(c.Request.Context(), &filter)
	if err != nil {
		h.handleBillingError(c, err)
		return
	}

	response.OK(c, gin.H{"list": balances})
}

func (h *BillingHandler) handleBillingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 19001, "学期不存在")
	case errors.Is(err, service.ErrMonthlyRateNotFound):
		response.NotFound(c, 19002, "该月尚未设置人工/伙食单价")
	case errors.Is(err, service.ErrUnknownBillingStudent):
		response.BadRequest(c, 19003, "调整项中包含不参与计费的学生")
	case errors.Is(err, service.ErrCarryForwardNegative):
		response.BadRequest(c, 19004, "个人结转抵扣不能为负数")
	default:
		respondKind(c, 19000, err)
	}
}
