package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"campus-attend/backend/internal/model"
)

func (f *fixture) newReportSvc() ReportService {
	return NewReportService(f.attCfg, f.repo, f.scope, zap.NewNop())
}

// 预置一周明细：张三 2 节缺课（病假+无故），李四 全勤，王五 无记录
func seedReportWeek(t *testing.T, f *fixture) {
	t.Helper()
	ctx := context.Background()

	put := func(date, period, student, status, reason string) {
		if err := f.att.UpsertStatus(ctx, &model.AttendanceRecord{
			Date: date, PeriodCode: period, StudentID: student,
			Status: status, Reason: reason,
		}); err != nil {
			t.Fatalf("预置记录失败: %v", err)
		}
	}

	// 张三：4 节有结论，病假 1 + 无故缺勤 1
	put("2026-08-24", "p1", "stu-a", model.StatusPresent, "")
	put("2026-08-24", "p2", "stu-a", model.StatusExcused, model.ReasonSick)
	put("2026-08-25", "p1", "stu-a", model.StatusAbsent, "")
	put("2026-08-25", "p2", "stu-a", model.StatusLate, "")

	// 李四：2 节全勤
	put("2026-08-24", "p1", "stu-b", model.StatusPresent, "")
	put("2026-08-24", "p2", "stu-b", model.StatusPresent, "")
}

func TestComputeRangeStats(t *testing.T) {
	f := newFixture(t)
	seedReportWeek(t, f)
	svc := f.newReportSvc()

	resp, err := svc.ComputeRangeStats(context.Background(), "SE-2101", "2026-08-24", "2026-08-30", model.RoleCounselor, "chen")
	if err != nil {
		t.Fatalf("区间统计失败: %v", err)
	}

	if resp.Total != 6 {
		t.Errorf("total: got %d, want 6", resp.Total)
	}
	if resp.Counts[model.StatusPresent] != 3 ||
		resp.Counts[model.StatusLate] != 1 ||
		resp.Counts[model.StatusAbsent] != 1 ||
		resp.Counts[model.StatusExcused] != 1 {
		t.Errorf("计数错误: %+v", resp.Counts)
	}
	if resp.Pct[model.StatusPresent] != 50 {
		t.Errorf("present 占比: got %v, want 50", resp.Pct[model.StatusPresent])
	}
}

func TestComputeRangeStats_ExcludesSkipped(t *testing.T) {
	f := newFixture(t)
	seedReportWeek(t, f)
	ctx := context.Background()

	// 8/24 p1 停课：张三和李四各有一条 present 被排除
	_ = f.skips.Set(ctx, "2026-08-24", "p1", "SE-2101")

	resp, err := f.newReportSvc().ComputeRangeStats(ctx, "SE-2101", "2026-08-24", "2026-08-30", model.RoleCounselor, "chen")
	if err != nil {
		t.Fatalf("区间统计失败: %v", err)
	}
	if resp.Total != 4 {
		t.Errorf("停课记录应被排除: total got %d, want 4", resp.Total)
	}
	if resp.Counts[model.StatusPresent] != 1 {
		t.Errorf("present: got %d, want 1", resp.Counts[model.StatusPresent])
	}
}

func TestComputeGroupReport(t *testing.T) {
	f := newFixture(t)
	seedReportWeek(t, f)
	svc := f.newReportSvc()

	resp, err := svc.ComputeGroupReport(context.Background(), "SE-2101", "2026-08-24", "2026-08-30", model.RoleCounselor, "chen")
	if err != nil {
		t.Fatalf("班级报表失败: %v", err)
	}

	if len(resp.Rows) != 3 {
		t.Fatalf("行数: got %d, want 3", len(resp.Rows))
	}

	// 行序由姓名排序决定，这里按姓名索引避免依赖具体排序
	byName := make(map[string]int)
	for i, row := range resp.Rows {
		byName[row.FullName] = i
		if row.Num != i+1 {
			t.Errorf("行号应从 1 连续编号: %+v", row)
		}
	}

	// 张三：4 节有结论，缺 2（病假+无故），每节 2 学时
	zh := resp.Rows[byName["张三"]]
	if zh.TotalHours != 4 || zh.SickHours != 2 || zh.UnexcusedHours != 2 {
		t.Errorf("张三学时错误: %+v", zh)
	}
	if zh.Pct != 50 {
		t.Errorf("张三出勤率: got %v, want 50", zh.Pct)
	}

	// 李四全勤
	li := resp.Rows[byName["李四"]]
	if li.TotalHours != 0 || li.Pct != 100 {
		t.Errorf("李四应全勤: %+v", li)
	}

	// 王五无记录 → 按全勤计
	wu := resp.Rows[byName["王五"]]
	if wu.Pct != 100 {
		t.Errorf("无记录学生应按全勤计: %+v", wu)
	}

	// 班级平均：每人等权 (50+100+100)/3
	want := round1((50.0 + 100 + 100) / 3)
	if resp.GroupPct != want {
		t.Errorf("班级平均: got %v, want %v", resp.GroupPct, want)
	}
}

func TestComputeGroupReport_EmptyClass(t *testing.T) {
	f := newFixture(t)
	svc := f.newReportSvc()

	// SE-2102 在辅导员范围内但没有学生
	resp, err := svc.ComputeGroupReport(context.Background(), "SE-2102", "2026-08-24", "2026-08-30", model.RoleCounselor, "chen")
	if err != nil {
		t.Fatalf("空班级不应报错: %v", err)
	}
	if len(resp.Rows) != 0 || resp.GroupPct != 0 {
		t.Errorf("空班级应返回空结果: %+v", resp)
	}
}

func TestComputeGroupReport_SkippedRecordsNotCounted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// 唯一一条记录落在停课节次上 → 等同无记录，按全勤计
	_ = f.att.UpsertStatus(ctx, &model.AttendanceRecord{
		Date: "2026-08-24", PeriodCode: "p1", StudentID: "stu-a",
		Status: model.StatusAbsent,
	})
	_ = f.skips.Set(ctx, "2026-08-24", "p1", "SE-2101")

	resp, err := f.newReportSvc().ComputeGroupReport(ctx, "SE-2101", "2026-08-24", "2026-08-24", model.RoleCounselor, "chen")
	if err != nil {
		t.Fatalf("班级报表失败: %v", err)
	}
	for _, row := range resp.Rows {
		if row.FullName == "张三" && (row.Pct != 100 || row.TotalHours != 0) {
			t.Errorf("停课节次的记录不得计入: %+v", row)
		}
	}
}

func TestComputeRangeStats_Rejections(t *testing.T) {
	f := newFixture(t)
	svc := f.newReportSvc()
	ctx := context.Background()

	if _, err := svc.ComputeRangeStats(ctx, "ME-2101", "2026-08-24", "2026-08-30", model.RoleCounselor, "chen"); !errors.Is(err, ErrScopeViolation) {
		t.Errorf("范围外班级应拒绝, got %v", err)
	}
	if _, err := svc.ComputeRangeStats(ctx, "SE-2101", "2026-08-30", "2026-08-24", model.RoleCounselor, "chen"); !errors.Is(err, ErrInvalidRange) {
		t.Errorf("倒置区间应拒绝, got %v", err)
	}
	if _, err := svc.ComputeRangeStats(ctx, "SE-2101", "bad", "2026-08-30", model.RoleCounselor, "chen"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("非法日期应拒绝, got %v", err)
	}
}

func TestResolveRange(t *testing.T) {
	svc := newFixture(t).newReportSvc()

	tests := []struct {
		mode, date string
		wantStart  string
		wantEnd    string
	}{
		{"day", "2026-08-24", "2026-08-24", "2026-08-24"},
		{"month", "2026-02-10", "2026-02-01", "2026-02-28"},
		{"semester", "2026-10-05", "2026-09-01", "2026-12-31"},
		{"semester", "2026-03-05", "2026-01-01", "2026-05-31"},
	}
	for _, tt := range tests {
		start, end, err := svc.ResolveRange(tt.mode, tt.date)
		if err != nil {
			t.Errorf("%s/%s: %v", tt.mode, tt.date, err)
			continue
		}
		if start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("%s/%s: got [%s,%s], want [%s,%s]", tt.mode, tt.date, start, end, tt.wantStart, tt.wantEnd)
		}
	}

	if _, _, err := svc.ResolveRange("year", "2026-08-24"); !errors.Is(err, ErrInvalidRangeMode) {
		t.Errorf("未知口径应拒绝, got %v", err)
	}
}

func TestClassifyMissed(t *testing.T) {
	tests := []struct {
		name   string
		status string
		reason string
		want   absenceBucket
	}{
		{"封闭枚举-请假条", model.StatusExcused, "statement", bucketStatement},
		{"封闭枚举-病假", model.StatusExcused, "sick", bucketSick},
		{"封闭枚举-比赛", model.StatusExcused, "competition", bucketCompetition},
		{"封闭枚举-家庭事务", model.StatusExcused, "family", bucketOtherReason},
		{"历史数据-中文病假", model.StatusExcused, "生病住院", bucketSick},
		{"历史数据-中文假条", model.StatusExcused, "有请假条", bucketStatement},
		{"缺勤无事由", model.StatusAbsent, "", bucketUnexcused},
		{"缺勤带不识别事由", model.StatusAbsent, "睡过头", bucketUnexcused},
		{"请假带不识别事由", model.StatusExcused, "临时有事", bucketOtherReason},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyMissed(tt.status, tt.reason); got != tt.want {
				t.Errorf("classifyMissed(%q,%q) = %v, want %v", tt.status, tt.reason, got, tt.want)
			}
		})
	}
}
