package models

import (
	"time"

	"verge/internal/shared/constants"
)

// UserTrafficModel is an append-only usage sample reported by the node
// agents. The trial traffic check aggregates these per business day.
type UserTrafficModel struct {
	ID         uint      `gorm:"primarykey"`
	UserID     uint      `gorm:"not null;index:idx_user_recorded"`
	Upload     uint64    `gorm:"not null;default:0"`
	Download   uint64    `gorm:"not null;default:0"`
	RecordedAt time.Time `gorm:"not null;index:idx_user_recorded"`
	CreatedAt  time.Time
}

// TableName specifies the table name for GORM.
func (UserTrafficModel) TableName() string {
	return constants.TableUserTraffic
}
