package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attend/backend/config"
	"campus-attend/backend/internal/dto"
	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/repository"
	"campus-attend/backend/internal/schedule"
)

// JournalService 点名册（日视图）业务接口
type JournalService interface {
	// GetDayView 某日的学生×节次状态网格，含日统计与出勤排名。
	// classCode 为空时覆盖操作者可见的全部班级。
	GetDayView(ctx context.Context, date, classCode, role, username string) (*dto.DayViewResponse, error)
	// GetStudentWeek 学生自助查询：指定日期所在周的逐日状态
	GetStudentWeek(ctx context.Context, studentID, date string) (*dto.StudentWeekResponse, error)
}

type journalService struct {
	cfg    *config.AttendanceConfig
	repo   *repository.Repository
	table  *schedule.Table
	scope  *ScopeResolver
	logger *zap.Logger
	now    func() time.Time
}

// NewJournalService 创建 JournalService 实例
func NewJournalService(
	cfg *config.AttendanceConfig,
	repo *repository.Repository,
	table *schedule.Table,
	scope *ScopeResolver,
	logger *zap.Logger,
) JournalService {
	return &journalService{
		cfg:    cfg,
		repo:   repo,
		table:  table,
		scope:  scope,
		logger: logger,
		now:    time.Now,
	}
}

// effectiveStatus 单元格展示状态：显式状态优先，缺省时按日期选算法兜底
//
// 今天用 live 算法（节次没结束不下缺勤结论），过去用 final 算法，
// 未来的日期一律"尚未确定"。
func (s *journalService) effectiveStatus(rec *model.AttendanceRecord, p schedule.Period, date, today string, nowMin int) string {
	var mark *string
	if rec != nil {
		if rec.Status != model.StatusUnset {
			return rec.Status
		}
		mark = rec.MarkTime
	}
	switch {
	case date == today:
		return ComputeStatusLive(markMinutes(mark), p, nowMin, s.cfg.LateGraceMinutes)
	case date < today:
		return ComputeStatusFinal(markMinutes(mark), p, s.cfg.LateGraceMinutes)
	default:
		return model.StatusUnset
	}
}

func (s *journalService) GetDayView(ctx context.Context, date, classCode, role, username string) (*dto.DayViewResponse, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	// 1. 解析可见班级
	var classes []string
	if classCode != "" {
		if err := s.scope.RequireClass(role, username, classCode); err != nil {
			return nil, err
		}
		classes = []string{classCode}
	} else {
		classes, err = s.scope.ClassesFor(ctx, role, username)
		if err != nil {
			s.logger.Error("解析可见班级失败", zap.Error(err))
			return nil, err
		}
	}

	periods := s.table.ForDate(day)

	// 2. 一次取齐学生、当日记录、当日停课
	students, err := s.repo.Student.ListByClasses(ctx, classes)
	if err != nil {
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}

	records, err := s.repo.Attendance.ListByDate(ctx, date)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, err
	}
	recIndex := make(map[recordIndexKey]*model.AttendanceRecord, len(records))
	for i := range records {
		rec := &records[i]
		recIndex[recordIndexKey{rec.PeriodCode, rec.StudentID}] = rec
	}

	skips, err := s.repo.PeriodSkip.ListByDate(ctx, date, classes)
	if err != nil {
		s.logger.Error("查询停课登记失败", zap.Error(err))
		return nil, err
	}
	skipSet := make(map[recordIndexKey]bool, len(skips))
	for _, sk := range skips {
		skipSet[recordIndexKey{sk.PeriodCode, sk.ClassCode}] = true
	}

	nowT := s.now()
	today := nowT.Format(dateLayout)
	nowMin := schedule.MinutesOfDay(nowT)

	// 3. 逐学生逐节次构建网格并累计统计
	var counts dto.DayCounts
	rows := make([]dto.DayRow, 0, len(students))
	ranking := make([]dto.RankingRow, 0, len(students))

	for i, st := range students {
		cells := make([]dto.DayCell, 0, len(periods))
		attended, considered := 0, 0

		for _, p := range periods {
			rec := recIndex[recordIndexKey{p.Code, st.StudentID}]
			skipped := skipSet[recordIndexKey{p.Code, st.ClassCode}]

			cell := dto.DayCell{Code: p.Code, IsSkipped: skipped}
			if rec != nil {
				cell.Mark = rec.MarkTime
				cell.Reason = rec.Reason
			}

			// 停课压倒一切，即使误存了记录
			if skipped {
				cell.Status = model.StatusSkip
			} else {
				cell.Status = s.effectiveStatus(rec, p, date, today, nowMin)
			}
			cells = append(cells, cell)

			// 日统计只计未停课的正课，"尚未确定"不计入
			if !p.IsClassPeriod() || skipped || cell.Status == model.StatusUnset || cell.Status == model.StatusSkip {
				continue
			}
			considered++
			switch cell.Status {
			case model.StatusPresent:
				counts.Present++
				attended++
			case model.StatusLate:
				counts.Late++
				attended++
			case model.StatusAbsent:
				counts.Absent++
			case model.StatusExcused:
				if reasonBucket(cell.Reason) == bucketSick {
					counts.ExcusedSick++
				} else {
					counts.ExcusedOther++
				}
			}
		}

		rows = append(rows, dto.DayRow{
			Num:       i + 1,
			StudentID: st.StudentID,
			UID:       st.UID,
			FullName:  st.FullName,
			ClassCode: st.ClassCode,
			Cells:     cells,
		})

		if considered > 0 {
			ranking = append(ranking, dto.RankingRow{
				FullName: st.FullName,
				UID:      st.UID,
				Attended: attended,
				Total:    considered,
				Percent:  round1(float64(attended) / float64(considered) * 100),
			})
		}
	}

	counts.Total = counts.Present + counts.Late + counts.Absent + counts.ExcusedSick + counts.ExcusedOther

	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].Percent != ranking[j].Percent {
			return ranking[i].Percent > ranking[j].Percent
		}
		return ranking[i].FullName < ranking[j].FullName
	})

	// 计入统计的 (班级, 正课节次) 组合数
	pairs := 0
	for _, g := range classes {
		for _, p := range periods {
			if p.IsClassPeriod() && !skipSet[recordIndexKey{p.Code, g}] {
				pairs++
			}
		}
	}

	resp := &dto.DayViewResponse{
		Date:            date,
		Schedule:        periodInfos(periods),
		Rows:            rows,
		Counts:          counts,
		Percentages:     dayPercentages(counts),
		Ranking:         ranking,
		PairsConsidered: pairs,
		TotalStudents:   len(students),
	}
	return resp, nil
}

func (s *journalService) GetStudentWeek(ctx context.Context, studentID, date string) (*dto.StudentWeekResponse, error) {
	day, err := time.Parse(dateLayout, date)
	if err != nil {
		return nil, ErrInvalidDate
	}

	student, err := s.repo.Student.GetByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}

	// 所在周的周一
	offset := int(day.Weekday()) - int(time.Monday)
	if offset < 0 {
		offset += 7
	}
	weekStart := day.AddDate(0, 0, -offset)
	weekEnd := weekStart.AddDate(0, 0, 6)

	startStr := weekStart.Format(dateLayout)
	endStr := weekEnd.Format(dateLayout)

	records, err := s.repo.Attendance.ListByStudentRange(ctx, studentID, startStr, endStr)
	if err != nil {
		s.logger.Error("查询考勤记录失败", zap.Error(err))
		return nil, err
	}
	recIndex := make(map[recordIndexKey]*model.AttendanceRecord, len(records))
	for i := range records {
		rec := &records[i]
		recIndex[recordIndexKey{rec.PeriodCode, rec.Date}] = rec
	}

	skips, err := s.repo.PeriodSkip.ListByClassRange(ctx, student.ClassCode, startStr, endStr)
	if err != nil {
		s.logger.Error("查询停课登记失败", zap.Error(err))
		return nil, err
	}
	skipSet := make(map[recordIndexKey]bool, len(skips))
	for _, sk := range skips {
		skipSet[recordIndexKey{sk.PeriodCode, sk.Date}] = true
	}

	nowT := s.now()
	today := nowT.Format(dateLayout)
	nowMin := schedule.MinutesOfDay(nowT)

	days := make([]dto.StudentWeekDay, 0, 7)
	for d := weekStart; !d.After(weekEnd); d = d.AddDate(0, 0, 1) {
		dateStr := d.Format(dateLayout)
		items := make(map[string]string)
		for _, p := range s.table.ForDate(d) {
			if skipSet[recordIndexKey{p.Code, dateStr}] {
				items[p.Code] = model.StatusSkip
				continue
			}
			rec := recIndex[recordIndexKey{p.Code, dateStr}]
			items[p.Code] = s.effectiveStatus(rec, p, dateStr, today, nowMin)
		}
		days = append(days, dto.StudentWeekDay{Date: dateStr, Items: items})
	}

	return &dto.StudentWeekResponse{
		StudentID: student.StudentID,
		FullName:  student.FullName,
		ClassCode: student.ClassCode,
		Days:      days,
	}, nil
}

// recordIndexKey 网格索引键：(节次, 学生) 或 (节次, 班级/日期)
type recordIndexKey struct {
	a, b string
}

func periodInfos(periods []schedule.Period) []dto.PeriodInfo {
	infos := make([]dto.PeriodInfo, 0, len(periods))
	for _, p := range periods {
		infos = append(infos, dto.PeriodInfo{
			Code:  p.Code,
			Title: p.Title,
			Start: p.Start,
			End:   p.End,
		})
	}
	return infos
}

func dayPercentages(c dto.DayCounts) dto.DayPercentages {
	if c.Total == 0 {
		return dto.DayPercentages{}
	}
	pct := func(n int) float64 {
		return round1(float64(n) / float64(c.Total) * 100)
	}
	return dto.DayPercentages{
		Present:      pct(c.Present),
		Late:         pct(c.Late),
		PresentAll:   pct(c.Present + c.Late),
		Absent:       pct(c.Absent),
		ExcusedSick:  pct(c.ExcusedSick),
		ExcusedOther: pct(c.ExcusedOther),
	}
}
