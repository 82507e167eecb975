package model

import (
	"time"

	"gorm.io/gorm"
)

// Property is a physical location belonging to exactly one client.
type Property struct {
	ID        string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	ClientID  string         `json:"client_id" gorm:"type:varchar(64);index;not null"`
	Address   string         `json:"address" gorm:"type:varchar(255);not null"`
	City      string         `json:"city" gorm:"type:varchar(100)"`
	State     string         `json:"state" gorm:"type:varchar(50)"`
	Zip       string         `json:"zip" gorm:"type:varchar(20)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
