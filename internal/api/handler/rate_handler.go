package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/response"
)

// RateHandler 单价模块 HTTP 处理器
type RateHandler struct {
	rateSvc service.RateService
}

// NewRateHandler 创建 RateHandler
func NewRateHandler(rateSvc service.RateService) *RateHandler {
	return &RateHandler{rateSvc: rateSvc}
}

// GetPerDayRate 日单价预览（不写库）
// GET /api/v1/rates/per-day
func (h *RateHandler) GetPerDayRate(c *gin.Context) {
	var filter dto.PerDayRateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.rateSvc.PerDay(c.Request.Context(), &filter)
	if err != nil {
		h.handleRateError(c, err)
		return
	}

	response.OK(c, result)
}

// SetMonthlyRate 设置月度单价
// PUT /api/v1/rates/monthly
func (h *RateHandler) SetMonthlyRate(c *gin.Context) {
	var req dto.SetMonthlyRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.rateSvc.SetMonthly(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleRateError(c, err)
		return
	}

	response.OK(c, result)
}

// ListMonthlyRates 查询某月单价
// GET /api/v1/rates/monthly?month=&year=
func (h *RateHandler) ListMonthlyRates(c *gin.Context) {
	var filter dto.MonthFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	rates, err := h.rateSvc.ListMonthly(c.Request.Context(), filter.Month, filter.Year)
	if err != nil {
		h.handleRateError(c, err)
		return
	}

	response.OK(c, gin.H{"list": rates})
}

func (h *RateHandler) handleRateError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRateNegative):
		response.BadRequest(c, 18001, "单价不能为负数")
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 18002, "学期不存在")
	case errors.Is(err, service.ErrInvalidLeavePolicy):
		response.BadRequest(c, 18003, "请假策略只能为 CHARGED 或 NOT_CHARGED")
	default:
		respondKind(c, 18000, err)
	}
}
