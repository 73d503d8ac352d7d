package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"hostel-mess/backend/internal/dto"
	"hostel-mess/backend/internal/service"
	"hostel-mess/backend/pkg/response"
)

// AttendanceHandler 考勤模块 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// MarkAttendance 写入单格考勤（code 为 null 时清空）
// PUT /api/v1/attendance
func (h *AttendanceHandler) MarkAttendance(c *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.Mark(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// RecordMeal 写入单日餐次
// PUT /api/v1/attendance/meals
func (h *AttendanceHandler) RecordMeal(c *gin.Context) {
	var req dto.MealEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.RecordMeal(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// BulkMark 批量写入考勤，单行失败不影响其他行
// POST /api/v1/attendance/bulk
func (h *AttendanceHandler) BulkMark(c *gin.Context) {
	var req dto.BulkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.BulkMark(c.Request.Context(), &req, callerID)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// ListAttendance 查询考勤
// GET /api/v1/attendance?semester_id=&student_id=&from=&to=
func (h *AttendanceHandler) ListAttendance(c *gin.Context) {
	var filter dto.AttendanceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	records, err := h.attendanceSvc.List(c.Request.Context(), &filter)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, gin.H{"list": records})
}

// GetMandays 统计人天
// GET /api/v1/attendance/mandays?semester_id=&student_id=&leave_policy=
func (h *AttendanceHandler) GetMandays(c *gin.Context) {
	var filter dto.MandaysFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.Mandays(c.Request.Context(), &filter)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 16001, "学生不存在")
	case errors.Is(err, service.ErrSemesterNotFound):
		response.NotFound(c, 16002, "学期不存在")
	case errors.Is(err, service.ErrInvalidAttendanceCode):
		response.BadRequest(c, 16003, "考勤代码只能为 P/L/CN/V/C")
	case errors.Is(err, service.ErrBulkTooLarge):
		response.BadRequest(c, 16004, "批量写入行数超过上限")
	case errors.Is(err, service.ErrInvalidFilter):
		response.BadRequest(c, 16005, "需提供 semester_id 或完整的 from/to")
	default:
		respondKind(c, 16000, err)
	}
}
