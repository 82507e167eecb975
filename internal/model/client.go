package model

import (
	"time"

	"gorm.io/gorm"
)

// Client is a customer with zero or more properties.
type Client struct {
	ID        string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Email     string         `json:"email" gorm:"type:varchar(255)"`
	Phone     string         `json:"phone" gorm:"type:varchar(50)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
