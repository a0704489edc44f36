package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"AreYouDead/internal/model"
)

type CheckInRepository struct {
	db *gorm.DB
}

func NewCheckInRepository(db *gorm.DB) *CheckInRepository {
	return &CheckInRepository{db: db}
}

// Create 追加一条打卡记录
func (r *CheckInRepository) Create(ctx context.Context, record *model.CheckInRecord) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to create check-in record: %w", err)
	}
	return nil
}

// Latest 返回最近一次打卡，没有记录时返回 nil
// 告警判定依赖刚写入的数据，强制走主库
func (r *CheckInRepository) Latest(ctx context.Context) (*model.CheckInRecord, error) {
	var records []model.CheckInRecord
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Order("timestamp DESC").
		Limit(1).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query latest check-in: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Since 返回某时刻之后的打卡历史，按时间倒序
func (r *CheckInRepository) Since(ctx context.Context, since time.Time, limit int) ([]model.CheckInRecord, error) {
	var records []model.CheckInRecord
	q := r.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query check-in history: %w", err)
	}
	return records, nil
}
