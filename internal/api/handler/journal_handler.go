package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-attend/backend/internal/dto"
	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/service"
	"campus-attend/backend/pkg/response"
)

// JournalHandler 点名册与停课登记 HTTP 处理器
type JournalHandler struct {
	journalSvc service.JournalService
	skipSvc    service.SkipService
}

// NewJournalHandler 创建 JournalHandler
func NewJournalHandler(journalSvc service.JournalService, skipSvc service.SkipService) *JournalHandler {
	return &JournalHandler{journalSvc: journalSvc, skipSvc: skipSvc}
}

// GetDayView 某日点名册网格
// GET /api/v1/journal/day?date=2026-08-24&class_code=SE-2101
func (h *JournalHandler) GetDayView(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, 13001, "date不能为空")
		return
	}
	classCode := c.Query("class_code")

	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	view, err := h.journalSvc.GetDayView(c.Request.Context(), date, classCode, role, username)
	if err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.OK(c, view)
}

// GetMyWeek 学生自助：本人某周逐日状态
// GET /api/v1/journal/my-week?date=2026-08-24
func (h *JournalHandler) GetMyWeek(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.BadRequest(c, 13001, "date不能为空")
		return
	}

	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	if role != model.RoleStudent {
		response.Forbidden(c, 10003, "仅学生本人可查询")
		return
	}
	// 学生 Token 的 user_id 即 student_id
	studentID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	week, err := h.journalSvc.GetStudentWeek(c.Request.Context(), studentID, date)
	if err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.OK(c, week)
}

// ToggleSkip 停课开关
// POST /api/v1/journal/skip
func (h *JournalHandler) ToggleSkip(c *gin.Context) {
	var req dto.SkipToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 13001, "参数校验失败")
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

	if err := h.skipSvc.Toggle(c.Request.Context(), &req, role, username); err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportHolidays 假期日历导入（iCalendar 文件上传）
// POST /api/v1/journal/holidays
func (h *JournalHandler) ImportHolidays(c *gin.Context) {
	file, _, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 13001, "缺少日历文件")
		return
	}
	defer file.Close()

	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	result, err := h.skipSvc.ImportHolidayCalendar(c.Request.Context(), file, role, username)
	if err != nil {
		h.handleJournalError(c, err)
		return
	}

	response.OK(c, result)
}

// handleJournalError 业务错误 → HTTP 响应
func (h *JournalHandler) handleJournalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13002, err.Error())
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidPeriod),
		errors.Is(err, service.ErrSkipNotClassPeriod),
		errors.Is(err, service.ErrICSInvalid),
		errors.Is(err, service.ErrEmptyScope):
		response.BadRequest(c, 13003, err.Error())
	case errors.Is(err, service.ErrScopeViolation):
		response.Forbidden(c, 10003, err.Error())
	default:
		response.InternalError(c)
	}
}
