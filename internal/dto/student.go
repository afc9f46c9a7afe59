package dto

// ── 学生档案模块 DTO ──

// CreateStudentRequest 创建学生请求
type CreateStudentRequest struct {
	UID       string `json:"uid"        binding:"required,max=64"`
	FullName  string `json:"full_name"  binding:"required,min=2,max=255"`
	ClassCode string `json:"class_code" binding:"required,max=32"`
	// 学生端自助登录口令，可不开通
	Password string `json:"password" binding:"omitempty,min=6,max=128"`
}

// UpdateStudentRequest 更新学生请求
type UpdateStudentRequest struct {
	UID       *string `json:"uid"        binding:"omitempty,max=64"`
	FullName  *string `json:"full_name"  binding:"omitempty,min=2,max=255"`
	ClassCode *string `json:"class_code" binding:"omitempty,max=32"`
	Password  *string `json:"password"   binding:"omitempty,min=6,max=128"`
}

// StudentResponse 学生信息响应
type StudentResponse struct {
	ID        string `json:"id"`
	UID       string `json:"uid"`
	FullName  string `json:"full_name"`
	ClassCode string `json:"class_code"`
}
