package model

import "time"

// JobSearchIndex is a derived, non-authoritative projection: one row per
// (tenant, job) holding the normalized searchable text for that job. It is
// fully recomputed (delete-then-insert) whenever any contributing record
// changes and has no identity beyond the (tenant, job) pair.
type JobSearchIndex struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	TenantID  string    `json:"tenant_id" gorm:"type:varchar(64);uniqueIndex:ux_tenant_job,priority:1;not null"`
	JobID     string    `json:"job_id" gorm:"type:varchar(64);uniqueIndex:ux_tenant_job,priority:2;not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName implements the GORM tabler interface.
func (JobSearchIndex) TableName() string { return "job_search_index" }
