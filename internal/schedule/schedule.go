package schedule

import (
	"fmt"
	"strings"
	"time"

	"campus-attend/backend/config"
)

// ── 静态作息表 ──────────────────────────────────────────────
//
// 作息表在启动时由配置构建，之后只读。正课节次代码以 "p" 开头
// （p1..p7），其余代码（如班会 "kh"）不计入考勤统计，也不允许停课。
// ─────────────────────────────────────────────────────────────

// ClassPeriodPrefix 正课节次代码前缀
const ClassPeriodPrefix = "p"

// Period 一个节次：代码、名称与起止时刻（当日分钟数）
type Period struct {
	Code     string
	Title    string
	Start    string // "08:10"
	End      string // "09:40"
	StartMin int
	EndMin   int
}

// IsClassPeriod 该节次是否为计入统计的正课
func (p Period) IsClassPeriod() bool {
	return strings.HasPrefix(p.Code, ClassPeriodPrefix)
}

// Table 每周作息表，按星期查询
type Table struct {
	byWeekday map[time.Weekday][]Period
}

// NewTable 由配置构建作息表
// 周二至周五共用 weekday 表，与原始作息安排一致
func NewTable(cfg *config.ScheduleConfig) (*Table, error) {
	monday, err := buildPeriods(cfg.Monday)
	if err != nil {
		return nil, fmt.Errorf("解析周一作息失败: %w", err)
	}
	weekday, err := buildPeriods(cfg.Weekday)
	if err != nil {
		return nil, fmt.Errorf("解析周二~周五作息失败: %w", err)
	}
	saturday, err := buildPeriods(cfg.Saturday)
	if err != nil {
		return nil, fmt.Errorf("解析周六作息失败: %w", err)
	}
	sunday, err := buildPeriods(cfg.Sunday)
	if err != nil {
		return nil, fmt.Errorf("解析周日作息失败: %w", err)
	}

	return &Table{
		byWeekday: map[time.Weekday][]Period{
			time.Monday:    monday,
			time.Tuesday:   weekday,
			time.Wednesday: weekday,
			time.Thursday:  weekday,
			time.Friday:    weekday,
			time.Saturday:  saturday,
			time.Sunday:    sunday,
		},
	}, nil
}

func buildPeriods(cfgs []config.PeriodConfig) ([]Period, error) {
	periods := make([]Period, 0, len(cfgs))
	for _, pc := range cfgs {
		startMin, err := ToMinutes(pc.Start)
		if err != nil {
			return nil, fmt.Errorf("节次 %s 开始时间无效: %w", pc.Code, err)
		}
		endMin, err := ToMinutes(pc.End)
		if err != nil {
			return nil, fmt.Errorf("节次 %s 结束时间无效: %w", pc.Code, err)
		}
		if endMin < startMin {
			return nil, fmt.Errorf("节次 %s 结束早于开始", pc.Code)
		}
		periods = append(periods, Period{
			Code:     pc.Code,
			Title:    pc.Title,
			Start:    pc.Start,
			End:      pc.End,
			StartMin: startMin,
			EndMin:   endMin,
		})
	}
	return periods, nil
}

// ForDate 某日期的节次列表（只读切片，调用方不得修改）
func (t *Table) ForDate(d time.Time) []Period {
	return t.byWeekday[d.Weekday()]
}

// FindPeriod 按代码查找某日期的节次
func (t *Table) FindPeriod(d time.Time, code string) (Period, bool) {
	for _, p := range t.ForDate(d) {
		if p.Code == code {
			return p, true
		}
	}
	return Period{}, false
}

// CurrentPeriod 当前时刻所在的节次（start ≤ now ≤ end）
// 不在任何节次内时返回 false
func (t *Table) CurrentPeriod(now time.Time) (Period, bool) {
	nowMin := MinutesOfDay(now)
	for _, p := range t.ForDate(now) {
		if p.StartMin <= nowMin && nowMin <= p.EndMin {
			return p, true
		}
	}
	return Period{}, false
}

// ClassPeriodCodes 某日期所有正课节次代码
func (t *Table) ClassPeriodCodes(d time.Time) []string {
	var codes []string
	for _, p := range t.ForDate(d) {
		if p.IsClassPeriod() {
			codes = append(codes, p.Code)
		}
	}
	return codes
}

// ── 时刻换算 ──

// ToMinutes 将 "HH:MM" 换算为当日分钟数
func ToMinutes(hhmm string) (int, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("时刻格式应为 HH:MM: %w", err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// MinutesOfDay 取时间的当日分钟数
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
