package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"campus-attend/backend/internal/dto"
	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/repository"
)

// ── 学生档案模块业务错误 ──

var (
	ErrStudentUIDTaken = errors.New("一卡通编号已被占用")
)

// StudentService 学生档案业务接口
type StudentService interface {
	Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error)
	Get(ctx context.Context, id string) (*dto.StudentResponse, error)
	// List 列出操作者可见范围内的学生；classCode 非空时限定单个班级
	List(ctx context.Context, classCode, role, username string) ([]dto.StudentResponse, error)
	Update(ctx context.Context, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error)
	// Delete 删除学生，考勤记录级联删除
	Delete(ctx context.Context, id string) error
}

type studentService struct {
	repo   *repository.Repository
	scope  *ScopeResolver
	logger *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, scope *ScopeResolver, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, scope: scope, logger: logger}
}

func (s *studentService) Create(ctx context.Context, req *dto.CreateStudentRequest) (*dto.StudentResponse, error) {
	student := model.Student{
		UID:       req.UID,
		FullName:  req.FullName,
		ClassCode: req.ClassCode,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("口令哈希失败", zap.Error(err))
			return nil, err
		}
		hashStr := string(hash)
		student.PasswordHash = &hashStr
	}

	if err := s.repo.Student.Create(ctx, &student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStudentUIDTaken
		}
		s.logger.Error("创建学生失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("创建学生",
		zap.String("uid", student.UID),
		zap.String("class", student.ClassCode),
	)
	return toStudentResponse(&student), nil
}

func (s *studentService) Get(ctx context.Context, id string) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, classCode, role, username string) ([]dto.StudentResponse, error) {
	var classes []string
	if classCode != "" {
		if err := s.scope.RequireClass(role, username, classCode); err != nil {
			return nil, err
		}
		classes = []string{classCode}
	} else {
		var err error
		classes, err = s.scope.ClassesFor(ctx, role, username)
		if err != nil {
			s.logger.Error("解析可见班级失败", zap.Error(err))
			return nil, err
		}
	}

	students, err := s.repo.Student.ListByClasses(ctx, classes)
	if err != nil {
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.StudentResponse, 0, len(students))
	for i := range students {
		result = append(result, *toStudentResponse(&students[i]))
	}
	return result, nil
}

func (s *studentService) Update(ctx context.Context, id string, req *dto.UpdateStudentRequest) (*dto.StudentResponse, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}

	if req.UID != nil {
		student.UID = *req.UID
	}
	if req.FullName != nil {
		student.FullName = *req.FullName
	}
	if req.ClassCode != nil {
		student.ClassCode = *req.ClassCode
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("口令哈希失败", zap.Error(err))
			return nil, err
		}
		hashStr := string(hash)
		student.PasswordHash = &hashStr
	}

	if err := s.repo.Student.Update(ctx, student); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrStudentUIDTaken
		}
		s.logger.Error("更新学生失败", zap.Error(err))
		return nil, err
	}
	return toStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.Student.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return err
	}
	if err := s.repo.Student.Delete(ctx, id); err != nil {
		s.logger.Error("删除学生失败", zap.Error(err))
		return err
	}
	s.logger.Info("删除学生", zap.String("student_id", id))
	return nil
}

func toStudentResponse(st *model.Student) *dto.StudentResponse {
	return &dto.StudentResponse{
		ID:        st.StudentID,
		UID:       st.UID,
		FullName:  st.FullName,
		ClassCode: st.ClassCode,
	}
}
