package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"AreYouDead/internal/model"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get 读取设置快照；尚未保存过设置时返回 defaults
func (r *SettingsRepository) Get(ctx context.Context, defaults model.ScheduleConfig) (model.ScheduleConfig, error) {
	var rows []model.Settings
	err := r.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Where("id = ?", model.SettingsRowID).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return model.ScheduleConfig{}, fmt.Errorf("failed to query settings: %w", err)
	}
	if len(rows) == 0 {
		return defaults.Normalize(), nil
	}
	return rows[0].Snapshot(), nil
}

// Save 以单行 upsert 的方式保存设置
func (r *SettingsRepository) Save(ctx context.Context, cfg model.ScheduleConfig) error {
	row := model.SettingsFromConfig(cfg)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"check_in_hour",
				"check_in_minute",
				"grace_period_hours",
				"check_in_frequency_days",
				"enabled",
				"messaging_method",
				"user_name",
				"updated_at",
			}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
