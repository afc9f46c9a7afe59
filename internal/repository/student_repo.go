package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-attend/backend/internal/model"
)

// StudentRepository 学生档案数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id string) (*model.Student, error)
	GetByUID(ctx context.Context, uid string) (*model.Student, error)
	GetByFullName(ctx context.Context, fullName string) (*model.Student, error)
	// ListByClasses 按班级代码集合列出学生，按姓名排序
	ListByClasses(ctx context.Context, classCodes []string) ([]model.Student, error)
	// ListClassesByPrefixes 列出以任一前缀开头的去重班级代码，升序
	ListClassesByPrefixes(ctx context.Context, prefixes []string) ([]string, error)
	Update(ctx context.Context, student *model.Student) error
	// Delete 删除学生；考勤记录由外键级联删除
	Delete(ctx context.Context, id string) error
}

// studentRepo StudentRepository 的 GORM 实现
type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("student_id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByUID(ctx context.Context, uid string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetByFullName(ctx context.Context, fullName string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("full_name = ?", fullName).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) ListByClasses(ctx context.Context, classCodes []string) ([]model.Student, error) {
	if len(classCodes) == 0 {
		return []model.Student{}, nil
	}
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("class_code IN ?", classCodes).
		Order("full_name").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepo) ListClassesByPrefixes(ctx context.Context, prefixes []string) ([]string, error) {
	if len(prefixes) == 0 {
		return []string{}, nil
	}

	q := r.db.WithContext(ctx).Model(&model.Student{})
	cond := r.db.Where("class_code LIKE ?", prefixes[0]+"%")
	for _, pfx := range prefixes[1:] {
		cond = cond.Or("class_code LIKE ?", pfx+"%")
	}

	var classes []string
	err := q.Where(cond).
		Distinct("class_code").
		Order("class_code").
		Pluck("class_code", &classes).Error
	if err != nil {
		return nil, err
	}
	return classes, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", id).
		Delete(&model.Student{}).Error
}
