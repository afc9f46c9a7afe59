package service

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"campus-attend/backend/internal/dto"
	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/repository"
	"campus-attend/backend/internal/schedule"
)

// ── 停课模块业务错误 ──

var (
	// ErrSkipNotClassPeriod 只有正课节次可登记停课
	ErrSkipNotClassPeriod = errors.New("该节次不可登记停课")
	ErrEmptyScope         = errors.New("可见范围内没有任何班级")
)

// 批量操作的班级通配值
const ClassCodeAll = "ALL"

// SkipService 停课登记业务接口
type SkipService interface {
	// Toggle 开/关停课；class_code 为 "ALL" 时作用于操作者名下
	// 全部班级，单事务提交
	Toggle(ctx context.Context, req *dto.SkipToggleRequest, role, username string) error
	// ImportHolidayCalendar 从 iCalendar 导入假期：日历事件覆盖的
	// 每个日期，对操作者名下全部班级登记全天正课停课
	ImportHolidayCalendar(ctx context.Context, reader io.Reader, role, username string) (*dto.HolidayImportResponse, error)
}

type skipService struct {
	repo   *repository.Repository
	table  *schedule.Table
	scope  *ScopeResolver
	logger *zap.Logger
}

// NewSkipService 创建 SkipService 实例
func NewSkipService(repo *repository.Repository, table *schedule.Table, scope *ScopeResolver, logger *zap.Logger) SkipService {
	return &skipService{repo: repo, table: table, scope: scope, logger: logger}
}

func (s *skipService) Toggle(ctx context.Context, req *dto.SkipToggleRequest, role, username string) error {
	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return ErrInvalidDate
	}

	// 节次必须在当日作息表中，且为正课（班会等不可停课）
	p, ok := s.table.FindPeriod(day, req.PeriodCode)
	if !ok {
		return ErrInvalidPeriod
	}
	if !p.IsClassPeriod() {
		return ErrSkipNotClassPeriod
	}

	on := *req.On

	if req.ClassCode == ClassCodeAll {
		classes, err := s.scope.ClassesFor(ctx, role, username)
		if err != nil {
			s.logger.Error("解析可见班级失败", zap.Error(err))
			return err
		}
		if len(classes) == 0 {
			return ErrEmptyScope
		}
		// 全部班级同进同退：一起成功或一起回滚
		if err := s.repo.PeriodSkip.ToggleAll(ctx, req.Date, req.PeriodCode, classes, on); err != nil {
			s.logger.Error("批量停课开关失败", zap.Error(err))
			return err
		}
		s.logger.Info("批量停课开关",
			zap.String("operator", username),
			zap.String("date", req.Date),
			zap.String("period", req.PeriodCode),
			zap.Int("classes", len(classes)),
			zap.Bool("on", on),
		)
		return nil
	}

	if err := s.scope.RequireClass(role, username, req.ClassCode); err != nil {
		return err
	}

	// 幂等：重复开/重复关都是空操作
	if on {
		err = s.repo.PeriodSkip.Set(ctx, req.Date, req.PeriodCode, req.ClassCode)
	} else {
		err = s.repo.PeriodSkip.Unset(ctx, req.Date, req.PeriodCode, req.ClassCode)
	}
	if err != nil {
		s.logger.Error("停课开关失败", zap.Error(err))
		return err
	}

	s.logger.Info("停课开关",
		zap.String("operator", username),
		zap.String("date", req.Date),
		zap.String("period", req.PeriodCode),
		zap.String("class", req.ClassCode),
		zap.Bool("on", on),
	)
	return nil
}

func (s *skipService) ImportHolidayCalendar(ctx context.Context, reader io.Reader, role, username string) (*dto.HolidayImportResponse, error) {
	dates, events, err := ParseHolidayICS(reader)
	if err != nil {
		return nil, err
	}

	classes, err := s.scope.ClassesFor(ctx, role, username)
	if err != nil {
		s.logger.Error("解析可见班级失败", zap.Error(err))
		return nil, err
	}
	if len(classes) == 0 {
		return nil, ErrEmptyScope
	}

	// 假期日 × 当日正课节次 × 班级 → 停课条目
	var skips []model.PeriodSkip
	for _, d := range dates {
		codes := s.table.ClassPeriodCodes(d)
		dateStr := d.Format(dateLayout)
		for _, code := range codes {
			for _, g := range classes {
				skips = append(skips, model.PeriodSkip{
					Date:       dateStr,
					PeriodCode: code,
					ClassCode:  g,
				})
			}
		}
	}

	applied, err := s.repo.PeriodSkip.BulkSet(ctx, skips)
	if err != nil {
		s.logger.Error("假期停课落库失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("假期日历导入",
		zap.String("operator", username),
		zap.Int("events", events),
		zap.Int("dates", len(dates)),
		zap.Int("applied", applied),
	)

	return &dto.HolidayImportResponse{
		Events:       events,
		SkipsApplied: applied,
	}, nil
}
