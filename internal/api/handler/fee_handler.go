package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/response"
)

// FeeHandler 收费台账模块 HTTP 处理器
type FeeHandler struct {
	feeSvc service.FeeService
}

// NewFeeHandler 创建 FeeHandler
func NewFeeHandler(feeSvc service.FeeService) *FeeHandler {
	return &FeeHandler{feeSvc: feeSvc}
}

// RecordPayment 记录付款
// POST /api/v1/fees/payments
func (h *FeeHandler) RecordPayment(c *gin.Context) {
	var req dto.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.feeSvc.RecordPayment(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleFeeError(c, err)
		return
	}

	response.OK(c, result)
}

// MarkUnpaid 重置为未付
// PUT /api/v1/fees/:student_id/:semester_id/unpaid
func (h *FeeHandler) MarkUnpaid(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.feeSvc.MarkUnpaid(c.Request.Context(), c.Param("student_id"), c.Param("semester_id"), callerID)
	if err != nil {
		h.handleFeeError(c, err)
		return
	}

	response.OK(c, result)
}

// OverrideBalance 人工修正余额
// PUT /api/v1/fees/:student_id/:semester_id/balance
func (h *FeeHandler) OverrideBalance(c *gin.Context) {
	var req dto.OverrideBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.feeSvc.OverrideBalance(c.Request.Context(), c.Param("student_id"), c.Param("semester_id"), &req, callerID)
	if err != nil {
		h.handleFeeError(c, err)
		return
	}

	response.OK(c, result)
}

// ListFees 台账列表（分页）
// GET /api/v1/fees?semester_id=&student_id=&page=&page_size=
func (h *FeeHandler) ListFees(c *gin.Context) {
	var filter dto.FeeFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, total, err := h.feeSvc.List(c.Request.Context(), &filter)
	if err != nil {
		h.handleFeeError(c, err)
		return
	}

	response.OKPage(c, records, total, filter.GetPage(), filter.GetPageSize())
}

func (h *FeeHandler) handleFeeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFeeStructureNotFound):
		response.NotFound(c, 21001, "该学期尚未生成账单，无法记账")
	case errors.Is(err, service.ErrPaymentAmountInvalid):
		response.BadRequest(c, 21002, "付款金额必须大于 0")
	case errors.Is(err, service.ErrBalanceRequired):
		response.BadRequest(c, 21003, "balance 不能为空")
	default:
		respondKind(c, 21000, err)
	}
}
