package service

import (
	"errors"
	"io"
	"sort"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ── 假期日历解析 ────────────────────────────────────────────
//
// 职责：将标准 iCalendar (RFC 5545) 内容解析为假期日期列表。
//
// 设计决策：
//   - 每个 VEVENT 视为一段假期，DTSTART..DTEND 覆盖的每个自然日
//     都算假期日
//   - 全天事件的 DTEND 按 RFC 5545 为"次日零点"，不含端点
//   - 带时刻的事件 DTEND 含当日
//   - 无 DTEND 的事件视为单日
//   - 不展开 RRULE：假期日历通常逐段给出，重复规则直接忽略
// ─────────────────────────────────────────────────────────────

var ErrICSInvalid = errors.New("iCalendar 格式解析失败")

const (
	icsMaxFileSize   = 5 * 1024 * 1024 // 5MB
	shanghaiTimezone = "Asia/Shanghai"
)

// ParseHolidayICS 解析假期日历，返回去重升序的日期列表与事件数
func ParseHolidayICS(reader io.Reader) ([]time.Time, int, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(reader, icsMaxFileSize))
	if err != nil {
		return nil, 0, ErrICSInvalid
	}

	loc, err := time.LoadLocation(shanghaiTimezone)
	if err != nil {
		// 无 tzdata 的环境（如 scratch 镜像）退回固定 UTC+8
		loc = time.FixedZone("CST", 8*60*60)
	}

	seen := make(map[string]time.Time)
	events := 0
	for _, evt := range cal.Events() {
		start, allDay, ok := parseEventDate(evt, ics.ComponentPropertyDtStart, loc)
		if !ok {
			continue
		}
		end, _, hasEnd := parseEventDate(evt, ics.ComponentPropertyDtEnd, loc)
		if !hasEnd {
			end = start
		} else if allDay {
			// 全天事件 DTEND 不含端点
			end = end.AddDate(0, 0, -1)
		}
		if end.Before(start) {
			continue
		}

		events++
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			seen[d.Format("2006-01-02")] = d
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return dates, events, nil
}

// parseEventDate 解析事件日期属性，返回截断到零点的日期与是否为全天值
func parseEventDate(evt *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, bool, bool) {
	prop := evt.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, false
	}
	val := prop.Value

	// VALUE=DATE 的全天形式
	if t, err := time.ParseInLocation("20060102", val, loc); err == nil {
		return t, true, true
	}

	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, val); err == nil {
			if strings.HasSuffix(f, "Z") {
				t = t.In(loc)
			}
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), false, true
		}
	}
	return time.Time{}, false, false
}
