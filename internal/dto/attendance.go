package dto

// ── 考勤模块 DTO ──

// CheckInRequest 打卡请求（刷卡端/学生端）
type CheckInRequest struct {
	UID string `json:"uid" binding:"required,max=64"`
	// 节次代码；为空时按当前时刻解析，无进行中节次则拒绝
	PeriodCode string `json:"period_code" binding:"omitempty,max=8"`
}

// CheckInResponse 打卡结果
type CheckInResponse struct {
	Student    CheckInStudent `json:"student"`
	PeriodCode string         `json:"period_code"`
	Time       string         `json:"time"`   // "HH:MM"
	Status     string         `json:"status"` // 即时计算的展示状态
}

// CheckInStudent 打卡结果中的学生摘要
type CheckInStudent struct {
	ID       string `json:"id"`
	UID      string `json:"uid"`
	FullName string `json:"full_name"`
}

// SetStatusRequest 辅导员显式改判请求
type SetStatusRequest struct {
	Date       string `json:"date"        binding:"required"` // "2006-01-02"
	StudentID  string `json:"student_id"  binding:"required,uuid"`
	PeriodCode string `json:"period_code" binding:"required,max=8"`
	Status     string `json:"status"      binding:"required,oneof=present late absent excused"`
	// 仅 status=excused 时有效，封闭枚举
	Reason string `json:"reason" binding:"omitempty,oneof=sick competition statement family other"`
}

// AttendanceRecordResponse 单条考勤记录响应
type AttendanceRecordResponse struct {
	RecordID   string  `json:"record_id"`
	Date       string  `json:"date"`
	PeriodCode string  `json:"period_code"`
	StudentID  string  `json:"student_id"`
	MarkTime   *string `json:"mark_time,omitempty"`
	Status     string  `json:"status"`
	Reason     string  `json:"reason,omitempty"`
}

// BulkSubmitRequest 班长批量提交请求
// 针对 (今日, 节次, 本班)，锁定后拒绝重复提交
type BulkSubmitRequest struct {
	// 节次代码；为空时按当前时刻解析
	PeriodCode string   `json:"period_code" binding:"omitempty,max=8"`
	StudentIDs []string `json:"student_ids" binding:"required,min=1,dive,uuid"`
	Status     string   `json:"status"      binding:"required,oneof=present absent excused"`
	Reason     string   `json:"reason"      binding:"omitempty,oneof=sick competition statement family other"`
}

// BulkSubmitResponse 批量提交结果
type BulkSubmitResponse struct {
	PeriodCode string `json:"period_code"`
	Submitted  int    `json:"submitted"`
	Locked     bool   `json:"locked"`
}

// SkipToggleRequest 停课开关请求
// ClassCode 为 "ALL" 时作用于操作者名下全部班级（单事务）
type SkipToggleRequest struct {
	Date       string `json:"date"        binding:"required"`
	PeriodCode string `json:"period_code" binding:"required,max=8"`
	ClassCode  string `json:"class_code"  binding:"required,max=32"`
	On         *bool  `json:"on"          binding:"required"`
}

// HolidayImportResponse 假期日历导入结果
type HolidayImportResponse struct {
	Events       int `json:"events"`        // 识别出的日历事件数
	SkipsApplied int `json:"skips_applied"` // 实际落库的停课条目数
}
