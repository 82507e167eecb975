package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin       = "admin"
	RoleLeadTech    = "lead_tech"
	RoleTechnician  = "technician"
	RoleOfficeStaff = "office_staff"
)

// User is a technician or staff member owned by exactly one tenant.
type User struct {
	ID        string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	TenantID  string         `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Email     string         `json:"email" gorm:"type:varchar(255)"`
	Phone     string         `json:"phone" gorm:"type:varchar(50)"`
	Role      string         `json:"role" gorm:"type:varchar(32);default:'technician'"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidRole reports whether role is one of the known user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleLeadTech, RoleTechnician, RoleOfficeStaff:
		return true
	}
	return false
}
