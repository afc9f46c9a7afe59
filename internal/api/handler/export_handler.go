package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"campus-attend/backend/internal/service"
	"campus-attend/backend/pkg/response"
)

// ExportHandler 报表导出 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
	reportSvc service.ReportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService, reportSvc service.ReportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc, reportSvc: reportSvc}
}

// ExportGroupReport 班级区间明细导出为 Excel
// GET /api/v1/reports/group/export?class_code=SE-2101&start=...&end=...
func (h *ExportHandler) ExportGroupReport(c *gin.Context) {
	classCode := c.Query("class_code")
	if classCode == "" {
		response.BadRequest(c, 14001, "class_code不能为空")
		return
	}

	start, end := c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		mode, date := c.Query("mode"), c.Query("date")
		if mode == "" || date == "" {
			response.BadRequest(c, 14001, "需给出 start/end 或 mode/date")
			return
		}
		var err error
		start, end, err = h.reportSvc.ResolveRange(mode, date)
		if err != nil {
			h.handleExportError(c, err)
			return
		}
	}

	role, ok := MustGetRole(c)
	if !ok {
		return
	}
	username, ok := MustGetUsername(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportGroupReport(c.Request.Context(), classCode, start, end, role, username)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Description", "File Transfer")
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		buf.Bytes())
}

// handleExportError 业务错误 → HTTP 响应
func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidDate),
		errors.Is(err, service.ErrInvalidRange),
		errors.Is(err, service.ErrInvalidRangeMode):
		response.BadRequest(c, 14002, err.Error())
	case errors.Is(err, service.ErrScopeViolation):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}
