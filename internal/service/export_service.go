package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ── 导出模块业务错误 ──

var (
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 报表导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置 HTTP 响应头后写入
// Response。行结构与 ComputeGroupReport 完全一致，Excel 只是换皮。
type ExportService interface {
	// ExportGroupReport 班级区间明细导出为 Excel
	ExportGroupReport(ctx context.Context, classCode, start, end, role, username string) (*bytes.Buffer, string, error)
}

type exportService struct {
	reports ReportService
	logger  *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(reports ReportService, logger *zap.Logger) ExportService {
	return &exportService{reports: reports, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportGroupReport — 班级考勤明细导出
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 单 Sheet，首行合并标题（班级 + 区间）
//   - 表头：序号 | 姓名 | 缺课合计(学时) | 请假条 | 病假 | 比赛 |
//     其他 | 无故 | 出勤率(%)
//   - 末行：班级平均出勤率

func (s *exportService) ExportGroupReport(ctx context.Context, classCode, start, end, role, username string) (*bytes.Buffer, string, error) {
	report, err := s.reports.ComputeGroupReport(ctx, classCode, start, end, role, username)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	f.SetSheetName(f.GetSheetName(0), sheet)

	// 1. 标题行（合并 A1:I1）
	title := fmt.Sprintf("%s 班考勤统计 %s ~ %s", report.ClassCode, report.Start, report.End)
	if err := f.MergeCell(sheet, "A1", "I1"); err != nil {
		s.logger.Error("合并标题单元格失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetCellValue(sheet, "A1", title)

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "I1", titleStyle)
	}

	// 2. 表头
	headers := []string{"序号", "姓名", "缺课合计(学时)", "请假条", "病假", "比赛", "其他", "无故", "出勤率(%)"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		f.SetCellValue(sheet, cell, h)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		f.SetCellStyle(sheet, "A2", "I2", headerStyle)
	}

	// 3. 明细行
	for i, row := range report.Rows {
		r := i + 3
		values := []interface{}{
			row.Num, row.FullName, row.TotalHours,
			row.StatementHours, row.SickHours, row.CompetitionHours,
			row.OtherHours, row.UnexcusedHours, row.Pct,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, r)
			f.SetCellValue(sheet, cell, v)
		}
	}

	// 4. 班级平均行
	footerRow := len(report.Rows) + 3
	f.SetCellValue(sheet, fmt.Sprintf("B%d", footerRow), "班级平均")
	f.SetCellValue(sheet, fmt.Sprintf("I%d", footerRow), report.GroupPct)

	// 5. 列宽微调
	f.SetColWidth(sheet, "B", "B", 18)
	f.SetColWidth(sheet, "C", "C", 16)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		s.logger.Error("写出 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("attendance_%s_%s_%s.xlsx", report.ClassCode, report.Start, report.End)
	return &buf, filename, nil
}
