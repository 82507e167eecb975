package model

import (
	"time"

	"gorm.io/gorm"
)

// JobEvent is a structured diagnostic or service record tied to a job.
type JobEvent struct {
	ID         string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	TenantID   string         `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	JobID      string         `json:"job_id" gorm:"type:varchar(64);index;not null"`
	EventType  string         `json:"event_type" gorm:"type:varchar(64);not null"`
	Issue      string         `json:"issue" gorm:"type:text"`
	Resolution string         `json:"resolution" gorm:"type:text"`
	PartsUsed  string         `json:"parts_used" gorm:"type:text"`
	OccurredAt time.Time      `json:"occurred_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
