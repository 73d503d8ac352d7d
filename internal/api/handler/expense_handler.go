package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/response"
)

// ExpenseHandler 支出模块 HTTP 处理器
type ExpenseHandler struct {
	expenseSvc service.ExpenseService
}

// NewExpenseHandler 创建 ExpenseHandler
func NewExpenseHandler(expenseSvc service.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{expenseSvc: expenseSvc}
}

// CreateExpense 新增支出
// POST /api/v1/expenses
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.expenseSvc.Create(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleExpenseError(c, err)
		return
	}

	response.Created(c, result)
}

// ListExpenses 按日期区间查询支出
// GET /api/v1/expenses?from=&to=&type=
func (h *ExpenseHandler) ListExpenses(c *gin.Context) {
	var filter dto.ExpenseFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	expenses, err := h.expenseSvc.List(c.Request.Context(), &filter)
	if err != nil {
		h.handleExpenseError(c, err)
		return
	}

	response.OK(c, gin.H{"list": expenses})
}

// GetPool 学期净支出池
// GET /api/v1/expenses/pool?semester_id=&carry_forward=&advances=&pending_cost=
func (h *ExpenseHandler) GetPool(c *gin.Context) {
	var filter dto.PoolFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	pool, err := h.expenseSvc.Pool(c.Request.Context(), &filter)
	if err != nil {
		h.handleExpenseError(c, err)
		return
	}

	response.OK(c, pool)
}

func (h *ExpenseHandler) handleExpenseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExpenseAmountInvalid):
		response.BadRequest(c, 17001, "支出金额必须大于 0")
	case errors.Is(err, service.ErrInvalidAmount):
		response.BadRequest(c, 17002, "金额无效")
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 17003, "学期不存在")
	default:
		respondKind(c, 17000, err)
	}
}
