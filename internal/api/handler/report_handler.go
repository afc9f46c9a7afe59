package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"campus-attend/backend/internal/service"
	"campus-attend/backend/pkg/response"
)

// ReportHandler 区间统计与班级报表 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// resolveRange 两种传参方式：显式 start/end，或 mode+date 口径
func (h *ReportHandler) resolveRange(c *gin.Context) (string, string, bool) {
	start, end := c.Query("start"), c.Query("end")
	if start != "" && end != "" {
		return start, end, true
	}

	mode := c.Query("mode")
	date := c.Query("date")
	if mode == "" || date == "" {
		response.BadRequest(c, 14001, "需给出 start/end 或 mode/date")
		return "", "", false
	}
	start, end, err := h.reportSvc.ResolveRange(mode, date)
	if err != nil {
		h.handleReportError(c, err)
		return "", "", false
	}
	return start, end, true
}

// GetRangeStats 班级区间状态统计
// GET /api/v1/reports/range?class_code=SE-2101&start=...&end=...
// GET /api/v1/reports/range?class_code=SE-2101&mode=month&date=2026-08-24
func (h *ReportHandler) GetRangeStats(c *gin.Context) {
	classCode := c.Query("class_code")
	if classCode == "" {
		response.BadRequest(c, 14001, "class_code不能为空")
		return
	}
	start, end, ok := h.resolveRange(c)
	if !ok {
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

	stats, err := h.reportSvc.ComputeRangeStats(c.Request.Context(), classCode, start, end, role, username)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, stats)
}

// GetGroupReport 班级区间分学生明细
// GET /api/v1/reports/group?class_code=SE-2101&start=...&end=...
func (h *ReportHandler) GetGroupReport(c *gin.Context) {
	classCode := c.Query("class_code")
	if classCode == "" {
		response.BadRequest(c, 14001, "class_code不能为空")
		return
	}
	start, end, ok := h.resolveRange(c)
	if !ok {
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

	report, err := h.reportSvc.ComputeGroupReport(c.Request.Context(), classCode, start, end, role, username)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// handleReportError 业务错误 → HTTP 响应
func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidRangeMode):
		response.BadRequest(c, 14002, err.Error())
	case errors.Is(err, service.ErrScopeViolation):
		response.Forbidden(c, 10003, err.Error())
	default:
		response.InternalError(c)
	}
}
