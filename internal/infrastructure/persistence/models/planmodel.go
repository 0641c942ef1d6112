package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"verge/internal/shared/constants"
)

// PlanModel is the database persistence model for subscription plans.
type PlanModel struct {
	ID   uint   `gorm:"primarykey"`
	Name string `gorm:"not null;size:100"`

	// TransferEnableGB is the allowance granted on traffic reset, in whole
	// gigabytes. Null means the plan does not provision quota.
	TransferEnableGB *uint64

	// ResetPolicy holds the billing-cycle code (0-6). Null defers to the
	// process-wide default.
	ResetPolicy *int `gorm:"index"`

	Metadata  datatypes.JSON
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name for GORM.
func (PlanModel) TableName() string {
	return constants.TablePlans
}
