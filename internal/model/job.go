package model

import (
	"time"

	"gorm.io/gorm"
)

// Job statuses
const (
	JobStatusScheduled  = "scheduled"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
)

// Job is the unit of service work and the root object the retrieval and
// orchestration pipeline answers questions about. Jobs are never deleted;
// status updates use last-write-wins semantics.
type Job struct {
	ID             string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	TenantID       string         `json:"tenant_id" gorm:"type:varchar(64);index;not null"`
	ClientID       string         `json:"client_id" gorm:"type:varchar(64);index;not null"`
	PropertyID     string         `json:"property_id" gorm:"type:varchar(64);index;not null"`
	Title          string         `json:"title" gorm:"type:varchar(255);not null"`
	Description    string         `json:"description" gorm:"type:text"`
	Status         string         `json:"status" gorm:"type:varchar(32);default:'scheduled'"`
	AssignedUserID *string        `json:"assigned_user_id,omitempty" gorm:"type:varchar(64);index"`
	ScheduledAt    *time.Time     `json:"scheduled_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}
