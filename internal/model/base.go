package model

import (
	"time"

	"gorm.io/gorm"
)

// BaseModel 联系人、设置、告警记录共用；删除走软删除，历史告警仍能关联到联系人
type BaseModel struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id,string"`
	CreatedAt time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;default:now()" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
