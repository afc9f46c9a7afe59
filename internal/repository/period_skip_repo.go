package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"campus-attend/backend/internal/model"
)

// PeriodSkipRepository 停课登记数据访问接口
type PeriodSkipRepository interface {
	// Exists (date, period, class) 是否已登记停课
	Exists(ctx context.Context, date, periodCode, classCode string) (bool, error)
	// ListByDate 某日若干班级的停课登记
	ListByDate(ctx context.Context, date string, classCodes []string) ([]model.PeriodSkip, error)
	// ListByClassRange 某班在 [start,end] 的停课登记
	ListByClassRange(ctx context.Context, classCode, start, end string) ([]model.PeriodSkip, error)
	// Set 登记停课；重复登记为幂等空操作
	Set(ctx context.Context, date, periodCode, classCode string) error
	// Unset 取消停课；不存在时为幂等空操作
	Unset(ctx context.Context, date, periodCode, classCode string) error
	// ToggleAll 将同一开关状态应用到多个班级，单事务：
	// 所有班级一起成功或一起回滚
	ToggleAll(ctx context.Context, date, periodCode string, classCodes []string, on bool) error
	// BulkSet 批量登记（假期日历导入），单事务，返回净新增条数
	BulkSet(ctx context.Context, skips []model.PeriodSkip) (int, error)
}

// periodSkipRepo PeriodSkipRepository 的 GORM 实现
type periodSkipRepo struct {
	db *gorm.DB
}

// NewPeriodSkipRepo 创建 PeriodSkipRepository 实例
func NewPeriodSkipRepo(db *gorm.DB) PeriodSkipRepository {
	return &periodSkipRepo{db: db}
}

var skipConflictColumns = []clause.Column{
	{Name: "date"}, {Name: "period_code"}, {Name: "class_code"},
}

func (r *periodSkipRepo) Exists(ctx context.Context, date, periodCode, classCode string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PeriodSkip{}).
		Where("date = ? AND period_code = ? AND class_code = ?", date, periodCode, classCode).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *periodSkipRepo) ListByDate(ctx context.Context, date string, classCodes []string) ([]model.PeriodSkip, error) {
	q := r.db.WithContext(ctx).Where("date = ?", date)
	if len(classCodes) > 0 {
		q = q.Where("class_code IN ?", classCodes)
	}
	var skips []model.PeriodSkip
	if err := q.Find(&skips).Error; err != nil {
		return nil, err
	}
	return skips, nil
}

func (r *periodSkipRepo) ListByClassRange(ctx context.Context, classCode, start, end string) ([]model.PeriodSkip, error) {
	var skips []model.PeriodSkip
	err := r.db.WithContext(ctx).
		Where("class_code = ? AND date >= ? AND date <= ?", classCode, start, end).
		Find(&skips).Error
	if err != nil {
		return nil, err
	}
	return skips, nil
}

func (r *periodSkipRepo) Set(ctx context.Context, date, periodCode, classCode string) error {
	return setSkipTx(r.db.WithContext(ctx), date, periodCode, classCode)
}

func setSkipTx(tx *gorm.DB, date, periodCode, classCode string) error {
	skip := model.PeriodSkip{Date: date, PeriodCode: periodCode, ClassCode: classCode}
	return tx.
		Clauses(clause.OnConflict{Columns: skipConflictColumns, DoNothing: true}).
		Create(&skip).Error
}

func (r *periodSkipRepo) Unset(ctx context.Context, date, periodCode, classCode string) error {
	return r.db.WithContext(ctx).
		Where("date = ? AND period_code = ? AND class_code = ?", date, periodCode, classCode).
		Delete(&model.PeriodSkip{}).Error
}

func (r *periodSkipRepo) ToggleAll(ctx context.Context, date, periodCode string, classCodes []string, on bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range classCodes {
			if on {
				if err := setSkipTx(tx, date, periodCode, g); err != nil {
					return err
				}
			} else {
				if err := tx.
					Where("date = ? AND period_code = ? AND class_code = ?", date, periodCode, g).
					Delete(&model.PeriodSkip{}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func (r *periodSkipRepo) BulkSet(ctx context.Context, skips []model.PeriodSkip) (int, error) {
	applied := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range skips {
			res := tx.
				Clauses(clause.OnConflict{Columns: skipConflictColumns, DoNothing: true}).
				Create(&skips[i])
			if res.Error != nil {
				return res.Error
			}
			applied += int(res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return applied, nil
}
