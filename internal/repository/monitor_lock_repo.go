package repository

import (
	"context"

	"gorm.io/gorm"

	"campus-attend/backend/internal/model"
)

// MonitorLockRepository 班长提交锁数据访问接口
type MonitorLockRepository interface {
	Exists(ctx context.Context, date, periodCode, classCode string) (bool, error)
	Create(ctx context.Context, lock *model.MonitorLock) error
}

type monitorLockRepo struct {
	db *gorm.DB
}

// NewMonitorLockRepo 创建 MonitorLockRepository 实例
func NewMonitorLockRepo(db *gorm.DB) MonitorLockRepository {
	return &monitorLockRepo{db: db}
}

func (r *monitorLockRepo) Exists(ctx context.Context, date, periodCode, classCode string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MonitorLock{}).
		Where("date = ? AND period_code = ? AND class_code = ?", date, periodCode, classCode).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *monitorLockRepo) Create(ctx context.Context, lock *model.MonitorLock) error {
	return r.db.WithContext(ctx).Create(lock).Error
}
