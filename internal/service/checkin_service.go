package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"campus-attend/backend/config"
	"campus-attend/backend/internal/dto"
	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/repository"
	"campus-attend/backend/internal/schedule"
)

// ── 考勤模块业务错误 ──

var (
	ErrStudentNotFound = errors.New("学生不存在")
	ErrNoActivePeriod  = errors.New("当前不在任何节次内，且未指明节次")
	ErrInvalidPeriod   = errors.New("节次无效")
	ErrInvalidStatus   = errors.New("状态无效")
	ErrInvalidReason   = errors.New("请假事由无效")
	ErrInvalidDate     = errors.New("日期格式应为 YYYY-MM-DD")
	ErrAlreadyLocked   = errors.New("该节次考勤已由班长提交锁定，不可重复提交")
)

const dateLayout = "2006-01-02"

// AttendanceService 打卡与改判业务接口
type AttendanceService interface {
	// RecordCheckIn 刷卡打卡：未指明节次时按当前时刻解析
	RecordCheckIn(ctx context.Context, req *dto.CheckInRequest) (*dto.CheckInResponse, error)
	// SetStatus 辅导员/技术支持显式改判某学生某节次的状态
	SetStatus(ctx context.Context, req *dto.SetStatusRequest, role, username string) (*dto.AttendanceRecordResponse, error)
	// SubmitBulkAttendance 班长批量提交本班考勤并锁定该节次
	SubmitBulkAttendance(ctx context.Context, req *dto.BulkSubmitRequest, username string) (*dto.BulkSubmitResponse, error)
}

type attendanceService struct {
	cfg    *config.AttendanceConfig
	repo   *repository.Repository
	table  *schedule.Table
	scope  *ScopeResolver
	logger *zap.Logger
	now    func() time.Time
}

// NewAttendanceService 创建 AttendanceService 实例
func NewAttendanceService(
	cfg *config.AttendanceConfig,
	repo *repository.Repository,
	table *schedule.Table,
	scope *ScopeResolver,
	logger *zap.Logger,
) AttendanceService {
	return &attendanceService{
		cfg:    cfg,
		repo:   repo,
		table:  table,
		scope:  scope,
		logger: logger,
		now:    time.Now,
	}
}

func (s *attendanceService) RecordCheckIn(ctx context.Context, req *dto.CheckInRequest) (*dto.CheckInResponse, error) {
	now := s.now()
	date := now.Format(dateLayout)

	// 1. 识别学生
	student, err := s.repo.Student.GetByUID(ctx, req.UID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}

	// 2. 解析节次
	var period schedule.Period
	if req.PeriodCode != "" {
		p, ok := s.table.FindPeriod(now, req.PeriodCode)
		if !ok {
			return nil, ErrInvalidPeriod
		}
		period = p
	} else {
		p, ok := s.table.CurrentPeriod(now)
		if !ok {
			return nil, ErrNoActivePeriod
		}
		period = p
	}

	// 3. 落库（自然键 upsert，重复打卡只刷新时刻）
	markTime := now.Format("15:04")
	if err := s.repo.Attendance.UpsertMark(ctx, date, period.Code, student.StudentID, markTime); err != nil {
		s.logger.Error("写入打卡记录失败", zap.Error(err))
		return nil, err
	}

	// 4. 即时展示状态：停课优先于一切
	status := ComputeStatusLive(schedule.MinutesOfDay(now), period, schedule.MinutesOfDay(now), s.cfg.LateGraceMinutes)
	skipped, err := s.repo.PeriodSkip.Exists(ctx, date, period.Code, student.ClassCode)
	if err != nil {
		s.logger.Warn("停课查询失败，按未停课处理", zap.Error(err))
	} else if skipped {
		status = model.StatusSkip
	}

	s.logger.Info("学生打卡",
		zap.String("uid", student.UID),
		zap.String("period", period.Code),
		zap.String("status", status),
	)

	return &dto.CheckInResponse{
		Student: dto.CheckInStudent{
			ID:       student.StudentID,
			UID:      student.UID,
			FullName: student.FullName,
		},
		PeriodCode: period.Code,
		Time:       markTime,
		Status:     status,
	}, nil
}

func (s *attendanceService) SetStatus(ctx context.Context, req *dto.SetStatusRequest, role, username string) (*dto.AttendanceRecordResponse, error) {
	// 1. 先验后写：任何校验失败都不得触库写入
	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if !model.ValidStatus(req.Status) {
		return nil, ErrInvalidStatus
	}
	if req.Status == model.StatusExcused {
		if req.Reason == "" || !model.ValidReason(req.Reason) {
			return nil, ErrInvalidReason
		}
	} else if req.Reason != "" {
		return nil, ErrInvalidReason
	}
	if _, ok := s.table.FindPeriod(day, req.PeriodCode); !ok {
		return nil, ErrInvalidPeriod
	}

	// 2. 学生存在性与可见范围
	student, err := s.repo.Student.GetByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, err
	}
	if err := s.scope.RequireClass(role, username, student.ClassCode); err != nil {
		return nil, err
	}

	// 3. 改判落库
	rec := model.AttendanceRecord{
		Date:       req.Date,
		PeriodCode: req.PeriodCode,
		StudentID:  req.StudentID,
		Status:     req.Status,
		Reason:     req.Reason,
	}
	if err := s.repo.Attendance.UpsertStatus(ctx, &rec); err != nil {
		s.logger.Error("写入改判记录失败", zap.Error(err))
		return nil, err
	}

	stored, err := s.repo.Attendance.Get(ctx, req.Date, req.PeriodCode, req.StudentID)
	if err != nil {
		s.logger.Error("回查改判记录失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("考勤改判",
		zap.String("operator", username),
		zap.String("student", student.FullName),
		zap.String("date", req.Date),
		zap.String("period", req.PeriodCode),
		zap.String("status", req.Status),
	)

	return &dto.AttendanceRecordResponse{
		RecordID:   stored.RecordID,
		Date:       stored.Date,
		PeriodCode: stored.PeriodCode,
		StudentID:  stored.StudentID,
		MarkTime:   stored.MarkTime,
		Status:     stored.Status,
		Reason:     stored.Reason,
	}, nil
}

func (s *attendanceService) SubmitBulkAttendance(ctx context.Context, req *dto.BulkSubmitRequest, username string) (*dto.BulkSubmitResponse, error) {
	now := s.now()
	date := now.Format(dateLayout)

	// 1. 班长只能提交本班
	classCode, ok := s.scope.MonitorClass(username)
	if !ok {
		return nil, ErrScopeViolation
	}

	// 2. 解析节次
	var period schedule.Period
	if req.PeriodCode != "" {
		p, found := s.table.FindPeriod(now, req.PeriodCode)
		if !found {
			return nil, ErrInvalidPeriod
		}
		period = p
	} else {
		p, found := s.table.CurrentPeriod(now)
		if !found {
			return nil, ErrNoActivePeriod
		}
		period = p
	}

	// 3. 校验状态/事由（不依赖传输层 binding，服务层自己把关）
	if !model.ValidStatus(req.Status) {
		return nil, ErrInvalidStatus
	}
	if req.Status == model.StatusExcused {
		if req.Reason == "" || !model.ValidReason(req.Reason) {
			return nil, ErrInvalidReason
		}
	} else if req.Reason != "" {
		return nil, ErrInvalidReason
	}

	// 4. 锁定检查（最终判定仍由唯一约束把关）
	locked, err := s.repo.MonitorLock.Exists(ctx, date, period.Code, classCode)
	if err != nil {
		s.logger.Error("查询提交锁失败", zap.Error(err))
		return nil, err
	}
	if locked {
		return nil, ErrAlreadyLocked
	}

	// 5. 全部学生必须属于本班，任何一个越界整体拒绝
	recs := make([]model.AttendanceRecord, 0, len(req.StudentIDs))
	for _, sid := range req.StudentIDs {
		student, err := s.repo.Student.GetByID(ctx, sid)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrStudentNotFound
			}
			s.logger.Error("查询学生失败", zap.Error(err))
			return nil, err
		}
		if student.ClassCode != classCode {
			return nil, ErrScopeViolation
		}
		recs = append(recs, model.AttendanceRecord{
			Date:       date,
			PeriodCode: period.Code,
			StudentID:  sid,
			Status:     req.Status,
			Reason:     req.Reason,
		})
	}

	// 6. 单事务：写入全部记录 + 建锁；并发提交撞锁整体回滚
	lock := model.MonitorLock{
		Date:        date,
		PeriodCode:  period.Code,
		ClassCode:   classCode,
		SubmittedBy: username,
	}
	if err := s.repo.Attendance.SubmitWithLock(ctx, recs, &lock); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyLocked
		}
		s.logger.Error("批量提交考勤失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("班长批量提交考勤",
		zap.String("monitor", username),
		zap.String("class", classCode),
		zap.String("period", period.Code),
		zap.Int("count", len(recs)),
	)

	return &dto.BulkSubmitResponse{
		PeriodCode: period.Code,
		Submitted:  len(recs),
		Locked:     true,
	}, nil
}
