package model

import "time"

// AccessIdentity maps an external token issuer+subject pair to an internal
// user. Rows are provisioned out-of-band and read-only to this service;
// they persist until administratively revoked.
type AccessIdentity struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Issuer    string    `json:"issuer" gorm:"type:varchar(255);uniqueIndex:ux_issuer_subject,priority:1;not null"`
	Subject   string    `json:"subject" gorm:"type:varchar(255);uniqueIndex:ux_issuer_subject,priority:2;not null"`
	UserID    string    `json:"user_id" gorm:"type:varchar(64);index;not null"`
	TenantID  string    `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName implements the GORM tabler interface.
func (AccessIdentity) TableName() string { return "access_identities" }
