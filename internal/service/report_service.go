package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"campus-attend/backend/config"
	"campus-attend/backend/internal/dto"
	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/repository"
)

// ── 报表模块业务错误 ──

var (
	ErrInvalidRange     = errors.New("日期区间无效")
	ErrInvalidRangeMode = errors.New("区间类型无效")
)

// ReportService 区间统计与班级报表业务接口
//
// 区间口径：只统计有显式最终状态的记录，未定状态的记录一律不计
// （不按缺勤折算）；停课节次无条件排除。
type ReportService interface {
	// ComputeRangeStats 班级区间状态统计
	ComputeRangeStats(ctx context.Context, classCode, start, end, role, username string) (*dto.RangeStatsResponse, error)
	// ComputeGroupReport 班级区间分学生明细 + 班级平均出勤率
	ComputeGroupReport(ctx context.Context, classCode, start, end, role, username string) (*dto.GroupReportResponse, error)
	// ResolveRange 将 day/month/semester 口径换算为具体区间
	ResolveRange(mode, date string) (start, end string, err error)
}

type reportService struct {
	cfg    *config.AttendanceConfig
	repo   *repository.Repository
	scope  *ScopeResolver
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.AttendanceConfig, repo *repository.Repository, scope *ScopeResolver, logger *zap.Logger) ReportService {
	return &reportService{cfg: cfg, repo: repo, scope: scope, logger: logger}
}

func (s *reportService) ComputeRangeStats(ctx context.Context, classCode, start, end, role, username string) (*dto.RangeStatsResponse, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if err := s.scope.RequireClass(role, username, classCode); err != nil {
		return nil, err
	}

	records, skipSet, err := s.loadFinalized(ctx, classCode, start, end)
	if err != nil {
		return nil, err
	}

	counts := map[string]int{
		model.StatusPresent: 0,
		model.StatusLate:    0,
		model.StatusAbsent:  0,
		model.StatusExcused: 0,
	}
	total := 0
	for i := range records {
		rec := &records[i]
		if skipSet[recordIndexKey{rec.Date, rec.PeriodCode}] {
			continue
		}
		counts[rec.Status]++
		total++
	}

	pct := make(map[string]float64, len(counts))
	for status, n := range counts {
		if total == 0 {
			pct[status] = 0
			continue
		}
		pct[status] = round1(float64(n) / float64(total) * 100)
	}

	return &dto.RangeStatsResponse{
		ClassCode: classCode,
		Start:     start,
		End:       end,
		Counts:    counts,
		Total:     total,
		Pct:       pct,
	}, nil
}

func (s *reportService) ComputeGroupReport(ctx context.Context, classCode, start, end, role, username string) (*dto.GroupReportResponse, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	if err := s.scope.RequireClass(role, username, classCode); err != nil {
		return nil, err
	}

	students, err := s.repo.Student.ListByClasses(ctx, []string{classCode})
	if err != nil {
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}

	resp := &dto.GroupReportResponse{
		ClassCode: classCode,
		Start:     start,
		End:       end,
		Rows:      []dto.StudentDetailRow{},
	}
	// 空班级返回显式空结果，不报错
	if len(students) == 0 {
		return resp, nil
	}

	records, skipSet, err := s.loadFinalized(ctx, classCode, start, end)
	if err != nil {
		return nil, err
	}
	byStudent := make(map[string][]*model.AttendanceRecord)
	for i := range records {
		rec := &records[i]
		if skipSet[recordIndexKey{rec.Date, rec.PeriodCode}] {
			continue
		}
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}

	hours := s.cfg.HoursPerLesson
	pctSum := 0.0

	for i, st := range students {
		row := dto.StudentDetailRow{Num: i + 1, FullName: st.FullName}
		totalLessons, missed := 0, 0

		for _, rec := range byStudent[st.StudentID] {
			totalLessons++
			if rec.Status != model.StatusAbsent && rec.Status != model.StatusExcused {
				continue
			}
			missed++
			switch classifyMissed(rec.Status, rec.Reason) {
			case bucketStatement:
				row.StatementHours += hours
			case bucketSick:
				row.SickHours += hours
			case bucketCompetition:
				row.CompetitionHours += hours
			case bucketUnexcused:
				row.UnexcusedHours += hours
			default:
				row.OtherHours += hours
			}
		}

		row.TotalHours = missed * hours
		// 无任何记录按全勤计
		if totalLessons == 0 {
			row.Pct = 100
		} else {
			row.Pct = round1(float64(totalLessons-missed) / float64(totalLessons) * 100)
		}
		pctSum += row.Pct
		resp.Rows = append(resp.Rows, row)
	}

	// 班级平均：每个学生等权，不按课时数加权
	resp.GroupPct = round1(pctSum / float64(len(students)))
	return resp, nil
}

// loadFinalized 取区间内有最终状态的记录与停课登记索引
func (s *reportService) loadFinalized(ctx context.Context, classCode, start, end string) ([]model.AttendanceRecord, map[recordIndexKey]bool, error) {
	records, err := s.repo.Attendance.ListFinalizedByClassRange(ctx, classCode, start, end)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, nil, err
	}
	skips, err := s.repo.PeriodSkip.ListByClassRange(ctx, classCode, start, end)
	if err != nil {
		s.logger.Error("查询停课登记失败", zap.Error(err))
		return nil, nil, err
	}
	skipSet := make(map[recordIndexKey]bool, len(skips))
	for _, sk := range skips {
		skipSet[recordIndexKey{sk.Date, sk.PeriodCode}] = true
	}
	return records, skipSet, nil
}

func (s *reportService) ResolveRange(mode, date string) (string, string, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return "", "", ErrInvalidDate
	}
	switch mode {
	case "day":
		return date, date, nil
	case "month":
		first := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		return first.Format(dateLayout), last.Format(dateLayout), nil
	case "semester":
		// 秋季学期 9/1~12/31，春季学期 1/1~5/31
		if day.Month() >= time.September {
			return time.Date(day.Year(), time.September, 1, 0, 0, 0, 0, time.UTC).Format(dateLayout),
				time.Date(day.Year(), time.December, 31, 0, 0, 0, 0, time.UTC).Format(dateLayout), nil
		}
		return time.Date(day.Year(), time.January, 1, 0, 0, 0, 0, time.UTC).Format(dateLayout),
			time.Date(day.Year(), time.May, 31, 0, 0, 0, 0, time.UTC).Format(dateLayout), nil
	default:
		return "", "", ErrInvalidRangeMode
	}
}

func validateRange(start, end string) error {
	s, err := time.Parse(dateLayout, start)
	if err != nil {
		return ErrInvalidDate
	}
	e, err := time.Parse(dateLayout, end)
	if err != nil {
		return ErrInvalidDate
	}
	if e.Before(s) {
		return ErrInvalidRange
	}
	return nil
}

// ── 事由归类 ────────────────────────────────────────────────
//
// 写入边界上事由是封闭枚举，这里的关键字匹配只为兼容历史自由
// 文本数据；命中优先级：请假条 > 病假 > 比赛。
// ─────────────────────────────────────────────────────────────

type absenceBucket int

const (
	bucketUnexcused absenceBucket = iota
	bucketStatement
	bucketSick
	bucketCompetition
	bucketOtherReason
)

var (
	statementKeywords   = []string{model.ReasonStatement, "请假条", "假条"}
	sickKeywords        = []string{model.ReasonSick, "病", "医院"}
	competitionKeywords = []string{model.ReasonCompetition, "比赛", "竞赛"}
)

// reasonBucket 仅按事由文本归类；未命中任何关键字返回 bucketOtherReason
func reasonBucket(reason string) absenceBucket {
	r := strings.ToLower(strings.TrimSpace(reason))
	switch {
	case containsAny(r, statementKeywords):
		return bucketStatement
	case containsAny(r, sickKeywords):
		return bucketSick
	case containsAny(r, competitionKeywords):
		return bucketCompetition
	default:
		return bucketOtherReason
	}
}

// classifyMissed 缺课记录归桶：
// 事由命中关键字优先；缺勤且事由为空/不识别 → 无故缺勤；
// 其余（请假但事由不在既有桶内）→ 其他
func classifyMissed(status, reason string) absenceBucket {
	if b := reasonBucket(reason); b != bucketOtherReason {
		return b
	}
	if status == model.StatusAbsent {
		return bucketUnexcused
	}
	return bucketOtherReason
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// round1 保留一位小数
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
