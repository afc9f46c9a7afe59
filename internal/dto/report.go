package dto

// ── 区间统计与分学生明细 DTO ──

// RangeStatsResponse 区间状态统计
// 只统计有显式最终状态的记录；停课节次一律排除
type RangeStatsResponse struct {
	ClassCode string             `json:"class_code"`
	Start     string             `json:"start"`
	End       string             `json:"end"`
	Counts    map[string]int     `json:"counts"` // present/late/absent/excused
	Total     int                `json:"total"`
	Pct       map[string]float64 `json:"pct"`
}

// StudentDetailRow 分学生明细行（学时口径）
type StudentDetailRow struct {
	Num      int    `json:"num"`
	FullName string `json:"full_name"`
	// 缺勤合计与分事由拆分，均为学时数（节数 × 每节学时）
	TotalHours       int `json:"total_hours"`
	StatementHours   int `json:"statement_hours"`
	SickHours        int `json:"sick_hours"`
	CompetitionHours int `json:"competition_hours"`
	OtherHours       int `json:"other_hours"`
	UnexcusedHours   int `json:"unexcused_hours"`
	// 出勤率；无任何记录按 100 计
	Pct float64 `json:"pct"`
}

// GroupReportResponse 班级区间报表：明细行 + 班级平均
// Excel 导出消费的正是这组行
type GroupReportResponse struct {
	ClassCode string             `json:"class_code"`
	Start     string             `json:"start"`
	End       string             `json:"end"`
	Rows      []StudentDetailRow `json:"rows"`
	GroupPct  float64            `json:"group_pct"`
}
