package models

import (
	"time"

	"gorm.io/gorm"

	"verge/internal/shared/constants"
)

// UserModel is the database persistence model for panel accounts.
type UserModel struct {
	ID             uint       `gorm:"primarykey"`
	Email          string     `gorm:"uniqueIndex;not null;size:191"`
	PlanID         *uint      `gorm:"index"`
	ExpiredAt      *time.Time `gorm:"index"`
	Upload         uint64     `gorm:"not null;default:0"`
	Download       uint64     `gorm:"not null;default:0"`
	TransferEnable *uint64
	SpeedLimit     *uint
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`

	Plan *PlanModel `gorm:"foreignKey:PlanID"`
}

// TableName specifies the table name for GORM.
func (UserModel) TableName() string {
	return constants.TableUsers
}
