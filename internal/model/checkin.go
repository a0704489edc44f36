package model

import "time"

// CheckInStatus 打卡状态，由最后一次打卡、配置和当前时间推导，不落库
type CheckInStatus string

const (
	CheckInStatusCompliant CheckInStatus = "compliant" // 本周期已打卡
	CheckInStatusPending   CheckInStatus = "pending"   // 待打卡，仍在宽限期内
	CheckInStatusOverdue   CheckInStatus = "overdue"   // 超过宽限期未打卡
)

// CheckInRecord 打卡记录，只追加不修改
type CheckInRecord struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp time.Time `gorm:"type:timestamptz;not null;index:idx_check_ins_timestamp" json:"timestamp"`
	Source    string    `gorm:"type:varchar(16);not null;default:'api'" json:"source"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

// TableName 指定表名
func (CheckInRecord) TableName() string {
	return "check_ins"
}
