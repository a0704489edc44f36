package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"AreYouDead/internal/model"
)

type EscalationRepository struct {
	db *gorm.DB
}

func NewEscalationRepository(db *gorm.DB) *EscalationRepository {
	return &EscalationRepository{db: db}
}

// Create 在同一事务内写入告警记录及其逐条腿的发送记录
func (r *EscalationRepository) Create(ctx context.Context, run *model.EscalationRun) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := run.Attempts
		if err := tx.Omit("Attempts").Create(run).Error; err != nil {
			return fmt.Errorf("failed to create escalation run: %w", err)
		}
		if len(attempts) == 0 {
			return nil
		}
		for i := range attempts {
			attempts[i].RunID = run.ID
		}
		if err := tx.Create(&attempts).Error; err != nil {
			return fmt.Errorf("failed to create contact attempts: %w", err)
		}
		run.Attempts = attempts
		return nil
	})
}

// ListRecent 按开始时间倒序返回最近的告警记录
func (r *EscalationRepository) ListRecent(ctx context.Context, limit int) ([]model.EscalationRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []model.EscalationRun
	err := r.db.WithContext(ctx).
		Preload("Attempts").
		Order("started_at DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list escalation runs: %w", err)
	}
	return runs, nil
}
