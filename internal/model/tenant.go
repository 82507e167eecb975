package model

import (
	"time"

	"gorm.io/gorm"
)

// Tenant is the isolation boundary for a company account. Every other
// table except access_identities carries a tenant_id and every query
// filters by it.
type Tenant struct {
	ID        string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
