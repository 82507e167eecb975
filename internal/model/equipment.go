package model

import (
	"time"

	"gorm.io/gorm"
)

// Equipment is a physical unit installed at a property. It contributes
// descriptive text to search content and job snapshots but has no
// independent query API.
type Equipment struct {
	ID           string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	TenantID     string         `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	PropertyID   string         `json:"property_id" gorm:"type:varchar(64);index;not null"`
	Make         string         `json:"make" gorm:"type:varchar(100)"`
	Model        string         `json:"model" gorm:"type:varchar(100)"`
	SerialNumber string         `json:"serial_number" gorm:"type:varchar(100)"`
	InstallYear  int            `json:"install_year"`
	Notes        string         `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName implements the GORM tabler interface.
func (Equipment) TableName() string { return "equipment" }
