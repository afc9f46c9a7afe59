package dto

// ── 日视图（点名册）DTO ──

// PeriodInfo 作息表中的一个节次
type PeriodInfo struct {
	Code  string `json:"code"`
	Title string `json:"title"`
	Start string `json:"start"`
	End   string `json:"end"`
}

// DayCell 日视图单元格：某学生某节次的展示状态
type DayCell struct {
	Code      string  `json:"code"`
	Status    string  `json:"status"` // present|late|absent|excused|skip|""
	Reason    string  `json:"reason,omitempty"`
	Mark      *string `json:"mark,omitempty"` // 打卡时刻 "HH:MM"
	IsSkipped bool    `json:"is_skipped"`
}

// DayRow 日视图中一个学生的整行
type DayRow struct {
	Num       int       `json:"num"`
	StudentID string    `json:"student_id"`
	UID       string    `json:"uid"`
	FullName  string    `json:"full_name"`
	ClassCode string    `json:"class_code"`
	Cells     []DayCell `json:"cells"`
}

// DayCounts 日统计计数（仅正课节次）
type DayCounts struct {
	Present      int `json:"present"`
	Late         int `json:"late"`
	Absent       int `json:"absent"`
	ExcusedSick  int `json:"excused_sick"`
	ExcusedOther int `json:"excused_other"`
	Total        int `json:"total"`
}

// DayPercentages 日统计占比（%）
type DayPercentages struct {
	Present      float64 `json:"present"`
	Late         float64 `json:"late"`
	PresentAll   float64 `json:"present_all"` // 出勤+迟到，主指标
	Absent       float64 `json:"absent"`
	ExcusedSick  float64 `json:"excused_sick"`
	ExcusedOther float64 `json:"excused_other"`
}

// RankingRow 日视图出勤排名行
type RankingRow struct {
	FullName string  `json:"full_name"`
	UID      string  `json:"uid"`
	Attended int     `json:"attended"`
	Total    int     `json:"total"`
	Percent  float64 `json:"percent"`
}

// DayViewResponse 日视图整体响应
type DayViewResponse struct {
	Date            string         `json:"date"`
	Schedule        []PeriodInfo   `json:"schedule"`
	Rows            []DayRow       `json:"rows"`
	Counts          DayCounts      `json:"counts"`
	Percentages     DayPercentages `json:"percentages"`
	Ranking         []RankingRow   `json:"ranking"`
	PairsConsidered int            `json:"pairs_considered"` // 当日计入统计的正课节数
	TotalStudents   int            `json:"total_students"`
}

// StudentWeekDay 学生自助周视图中的一天
type StudentWeekDay struct {
	Date  string            `json:"date"`
	Items map[string]string `json:"items"` // period_code → status
}

// StudentWeekResponse 学生自助周视图
type StudentWeekResponse struct {
	StudentID string           `json:"student_id"`
	FullName  string           `json:"full_name"`
	ClassCode string           `json:"class_code"`
	Days      []StudentWeekDay `json:"days"`
}
