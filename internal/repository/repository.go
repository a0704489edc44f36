package repository

import (
	"gorm.io/gorm"
)

// Repositories 聚合所有数据访问对象，由 cmd 在启动时构造
type Repositories struct {
	CheckIns    *CheckInRepository
	Contacts    *ContactRepository
	Settings    *SettingsRepository
	Escalations *EscalationRepository
}

func New(db *gorm.DB) *Repositories {
	return &Repositories{
		CheckIns:    NewCheckInRepository(db),
		Contacts:    NewContactRepository(db),
		Settings:    NewSettingsRepository(db),
		Escalations: NewEscalationRepository(db),
	}
}
