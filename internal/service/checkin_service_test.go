package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"campus-attend/backend/config"
	"campus-attend/backend/internal/dto"
	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/repository"
	"campus-attend/backend/internal/schedule"
)

// ── 共享测试夹具 ──
//
// 统一的班级/角色布局：
//   辅导员 chen  → SE-2101, SE-2102
//   系主任 wang  → 前缀 SE
//   班长   li    → SE-2101
// 学生：SE-2101 三人 + ME-2101 一人（范围外对照组）

func newTestTable(t *testing.T) *schedule.Table {
	t.Helper()
	cfg := &config.ScheduleConfig{
		Monday: []config.PeriodConfig{
			{Code: "kh", Title: "班会", Start: "07:45", End: "08:05"},
			{Code: "p1", Title: "第1节", Start: "08:10", End: "09:40"},
			{Code: "p2", Title: "第2节", Start: "09:50", End: "11:20"},
		},
		Weekday: []config.PeriodConfig{
			{Code: "p1", Title: "第1节", Start: "07:45", End: "09:15"},
			{Code: "p2", Title: "第2节", Start: "09:25", End: "10:55"},
		},
	}
	table, err := schedule.NewTable(cfg)
	if err != nil {
		t.Fatalf("构建作息表失败: %v", err)
	}
	return table
}

type fixture struct {
	users    *mockUserRepo
	students *mockStudentRepo
	att      *mockAttendanceRepo
	skips    *mockPeriodSkipRepo
	locks    *mockMonitorLockRepo
	repo     *repository.Repository
	table    *schedule.Table
	scope    *ScopeResolver
	attCfg   *config.AttendanceConfig
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	users := newMockUserRepo()
	students := newMockStudentRepo()
	locks := newMockMonitorLockRepo()
	att := newMockAttendanceRepo(locks)
	skips := newMockPeriodSkipRepo()

	// 模拟 ListFinalizedByClassRange 的 JOIN students
	att.withClassLookup(func(studentID string) string {
		if s, ok := students.students[studentID]; ok {
			return s.ClassCode
		}
		return ""
	})

	repo := &repository.Repository{
		User:        users,
		Student:     students,
		Attendance:  att,
		PeriodSkip:  skips,
		MonitorLock: locks,
	}

	seed := []model.Student{
		{StudentID: "stu-a", UID: "card-001", FullName: "张三", ClassCode: "SE-2101"},
		{StudentID: "stu-b", UID: "card-002", FullName: "李四", ClassCode: "SE-2101"},
		{StudentID: "stu-c", UID: "card-003", FullName: "王五", ClassCode: "SE-2101"},
		{StudentID: "stu-x", UID: "card-900", FullName: "赵六", ClassCode: "ME-2101"},
	}
	for i := range seed {
		st := seed[i]
		if err := students.Create(context.Background(), &st); err != nil {
			t.Fatalf("预置学生失败: %v", err)
		}
	}

	scope := NewScopeResolver(
		map[string][]string{"chen": {"SE-2101", "SE-2102"}},
		map[string][]string{"wang": {"SE"}},
		map[string]string{"li": "SE-2101"},
		students,
	)

	return &fixture{
		users:    users,
		students: students,
		att:      att,
		skips:    skips,
		locks:    locks,
		repo:     repo,
		table:    newTestTable(t),
		scope:    scope,
		attCfg:   &config.AttendanceConfig{LateGraceMinutes: 0, HoursPerLesson: 2},
	}
}

// newAttendanceSvc 固定时钟的考勤服务
func (f *fixture) newAttendanceSvc(now time.Time) *attendanceService {
	return &attendanceService{
		cfg:    f.attCfg,
		repo:   f.repo,
		table:  f.table,
		scope:  f.scope,
		logger: zap.NewNop(),
		now:    func() time.Time { return now },
	}
}

// monday 2026-08-24 是周一
func monday(t *testing.T, hhmm string) time.Time {
	t.Helper()
	tm, err := time.Parse("2006-01-02 15:04", "2026-08-24 "+hhmm)
	if err != nil {
		t.Fatalf("构造时间失败: %v", err)
	}
	return tm
}

func TestRecordCheckIn(t *testing.T) {
	tests := []struct {
		name       string
		at         string
		periodCode string
		wantStatus string
	}{
		// 08:09 在 kh 与 p1 的间隙，需显式指明节次
		{"开始前打卡为出勤", "08:09", "p1", model.StatusPresent},
		// 节次进行中无需指明，按当前时刻解析
		{"节次中段自动解析为迟到", "09:00", "", model.StatusLate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			svc := f.newAttendanceSvc(monday(t, tt.at))

			resp, err := svc.RecordCheckIn(context.Background(), &dto.CheckInRequest{UID: "card-001", PeriodCode: tt.periodCode})
			if err != nil {
				t.Fatalf("打卡失败: %v", err)
			}
			if resp.PeriodCode != "p1" {
				t.Errorf("应解析到 p1, got %s", resp.PeriodCode)
			}
			if resp.Status != tt.wantStatus {
				t.Errorf("status: got %q, want %q", resp.Status, tt.wantStatus)
			}
			if resp.Student.FullName != "张三" {
				t.Errorf("学生识别错误: %s", resp.Student.FullName)
			}

			// 记录已落库且打卡时刻正确
			rec, err := f.att.Get(context.Background(), "2026-08-24", "p1", "stu-a")
			if err != nil {
				t.Fatalf("落库记录缺失: %v", err)
			}
			if rec.MarkTime == nil || *rec.MarkTime != tt.at {
				t.Errorf("打卡时刻未保存: %v", rec.MarkTime)
			}
		})
	}
}

func TestRecordCheckIn_NoActivePeriod(t *testing.T) {
	f := newFixture(t)
	// 09:45 在 p1 和 p2 的间隙
	svc := f.newAttendanceSvc(monday(t, "09:45"))

	_, err := svc.RecordCheckIn(context.Background(), &dto.CheckInRequest{UID: "card-001"})
	if !errors.Is(err, ErrNoActivePeriod) {
		t.Fatalf("间隙期未指明节次应拒绝, got %v", err)
	}

	// 显式指明节次则放行
	resp, err := svc.RecordCheckIn(context.Background(), &dto.CheckInRequest{UID: "card-001", PeriodCode: "p1"})
	if err != nil {
		t.Fatalf("显式节次打卡失败: %v", err)
	}
	// 结束后补打卡记迟到，不记缺勤
	if resp.Status != model.StatusLate {
		t.Errorf("结束后打卡应为迟到, got %q", resp.Status)
	}
}

func TestRecordCheckIn_UnknownStudent(t *testing.T) {
	f := newFixture(t)
	svc := f.newAttendanceSvc(monday(t, "08:30"))

	_, err := svc.RecordCheckIn(context.Background(), &dto.CheckInRequest{UID: "card-999"})
	if !errors.Is(err, ErrStudentNotFound) {
		t.Fatalf("未知卡号应拒绝, got %v", err)
	}
}

func TestRecordCheckIn_SkippedPeriod(t *testing.T) {
	f := newFixture(t)
	_ = f.skips.Set(context.Background(), "2026-08-24", "p1", "SE-2101")

	svc := f.newAttendanceSvc(monday(t, "08:30"))
	resp, err := svc.RecordCheckIn(context.Background(), &dto.CheckInRequest{UID: "card-001"})
	if err != nil {
		t.Fatalf("打卡失败: %v", err)
	}
	if resp.Status != model.StatusSkip {
		t.Errorf("停课节次打卡应展示停课, got %q", resp.Status)
	}
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t)
	svc := f.newAttendanceSvc(monday(t, "12:00"))
	ctx := context.Background()

	rec, err := svc.SetStatus(ctx, &dto.SetStatusRequest{
		Date: "2026-08-24", StudentID: "stu-a", PeriodCode: "p1",
		Status: model.StatusExcused, Reason: model.ReasonSick,
	}, model.RoleCounselor, "chen")
	if err != nil {
		t.Fatalf("改判失败: %v", err)
	}
	if rec.Status != model.StatusExcused || rec.Reason != model.ReasonSick {
		t.Errorf("改判结果错误: %+v", rec)
	}

	// 已有打卡时刻在改判后保留
	mark := "08:20"
	_ = f.att.UpsertMark(ctx, "2026-08-24", "p2", "stu-a", mark)
	rec2, err := svc.SetStatus(ctx, &dto.SetStatusRequest{
		Date: "2026-08-24", StudentID: "stu-a", PeriodCode: "p2",
		Status: model.StatusPresent,
	}, model.RoleCounselor, "chen")
	if err != nil {
		t.Fatalf("改判失败: %v", err)
	}
	if rec2.MarkTime == nil || *rec2.MarkTime != mark {
		t.Errorf("改判不应抹掉打卡时刻: %v", rec2.MarkTime)
	}
}

func TestSetStatus_Validation(t *testing.T) {
	f := newFixture(t)
	svc := f.newAttendanceSvc(monday(t, "12:00"))
	ctx := context.Background()

	tests := []struct {
		name    string
		req     dto.SetStatusRequest
		role    string
		user    string
		wantErr error
	}{
		{
			"日期格式错误",
			dto.SetStatusRequest{Date: "24.08.2026", StudentID: "stu-a", PeriodCode: "p1", Status: model.StatusPresent},
			model.RoleCounselor, "chen", ErrInvalidDate,
		},
		{
			"节次不在当日作息内",
			dto.SetStatusRequest{Date: "2026-08-24", StudentID: "stu-a", PeriodCode: "p9", Status: model.StatusPresent},
			model.RoleCounselor, "chen", ErrInvalidPeriod,
		},
		{
			"状态非法",
			dto.SetStatusRequest{Date: "2026-08-24", StudentID: "stu-a", PeriodCode: "p1", Status: "unknown"},
			model.RoleCounselor, "chen", ErrInvalidStatus,
		},
		{
			"请假必须给事由",
			dto.SetStatusRequest{Date: "2026-08-24", StudentID: "stu-a", PeriodCode: "p1", Status: model.StatusExcused},
			model.RoleCounselor, "chen", ErrInvalidReason,
		},
		{
			"非请假不得带事由",
			dto.SetStatusRequest{Date: "2026-08-24", StudentID: "stu-a", PeriodCode: "p1", Status: model.StatusPresent, Reason: model.ReasonSick},
			model.RoleCounselor, "chen", ErrInvalidReason,
		},
		{
			"范围外学生",
			dto.SetStatusRequest{Date: "2026-08-24", StudentID: "stu-x", PeriodCode: "p1", Status: model.StatusPresent},
			model.RoleCounselor, "chen", ErrScopeViolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SetStatus(ctx, &tt.req, tt.role, tt.user)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}

	// 先验后写：上面所有被拒的请求都不得留下任何记录
	recs, _ := f.att.ListByDate(ctx, "2026-08-24")
	if len(recs) != 0 {
		t.Errorf("校验失败的请求不得落库, got %d 条记录", len(recs))
	}
}

func TestSubmitBulkAttendance(t *testing.T) {
	f := newFixture(t)
	svc := f.newAttendanceSvc(monday(t, "08:30"))
	ctx := context.Background()

	resp, err := svc.SubmitBulkAttendance(ctx, &dto.BulkSubmitRequest{
		StudentIDs: []string{"stu-a", "stu-b", "stu-c"},
		Status:     model.StatusPresent,
	}, "li")
	if err != nil {
		t.Fatalf("批量提交失败: %v", err)
	}
	if resp.Submitted != 3 || !resp.Locked || resp.PeriodCode != "p1" {
		t.Errorf("提交结果错误: %+v", resp)
	}

	// 第二次提交（即使换了学生和状态）必须被锁拒绝，且记录不被改写
	_, err = svc.SubmitBulkAttendance(ctx, &dto.BulkSubmitRequest{
		StudentIDs: []string{"stu-a"},
		Status:     model.StatusAbsent,
	}, "li")
	if !errors.Is(err, ErrAlreadyLocked) {
		t.Fatalf("重复提交应被锁拒绝, got %v", err)
	}
	rec, err := f.att.Get(ctx, "2026-08-24", "p1", "stu-a")
	if err != nil {
		t.Fatalf("记录缺失: %v", err)
	}
	if rec.Status != model.StatusPresent {
		t.Errorf("被拒提交不得改写已有记录: %q", rec.Status)
	}
}

func TestSubmitBulkAttendance_InvalidStatus(t *testing.T) {
	f := newFixture(t)
	svc := f.newAttendanceSvc(monday(t, "08:30"))
	ctx := context.Background()

	// 绕过传输层直接调用也不得写入非法状态
	_, err := svc.SubmitBulkAttendance(ctx, &dto.BulkSubmitRequest{
		StudentIDs: []string{"stu-a"},
		Status:     "banana",
	}, "li")
	if !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("非法状态应拒绝, got %v", err)
	}
	if recs, _ := f.att.ListByDate(ctx, "2026-08-24"); len(recs) != 0 {
		t.Errorf("拒绝后不得有任何落库记录, got %d 条", len(recs))
	}
}

func TestSubmitBulkAttendance_ScopeViolation(t *testing.T) {
	f := newFixture(t)
	svc := f.newAttendanceSvc(monday(t, "08:30"))
	ctx := context.Background()

	// 非班长用户
	_, err := svc.SubmitBulkAttendance(ctx, &dto.BulkSubmitRequest{
		StudentIDs: []string{"stu-a"},
		Status:     model.StatusPresent,
	}, "nobody")
	if !errors.Is(err, ErrScopeViolation) {
		t.Fatalf("非班长提交应拒绝, got %v", err)
	}

	// 名单里混入外班学生 → 整体拒绝，一条都不写
	_, err = svc.SubmitBulkAttendance(ctx, &dto.BulkSubmitRequest{
		StudentIDs: []string{"stu-a", "stu-x"},
		Status:     model.StatusPresent,
	}, "li")
	if !errors.Is(err, ErrScopeViolation) {
		t.Fatalf("外班学生应整体拒绝, got %v", err)
	}
	recs, _ := f.att.ListByDate(ctx, "2026-08-24")
	if len(recs) != 0 {
		t.Errorf("被拒提交不得部分落库, got %d 条", len(recs))
	}
	if locked, _ := f.locks.Exists(ctx, "2026-08-24", "p1", "SE-2101"); locked {
		t.Error("被拒提交不得建锁")
	}
}
