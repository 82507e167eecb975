package model

import (
	"time"

	"gorm.io/gorm"
)

// Note entity types
const (
	NoteEntityJob      = "job"
	NoteEntityClient   = "client"
	NoteEntityProperty = "property"
)

// Note is a free-text annotation attached to a job, client or property.
// The composite unique index on (tenant_id, idempotency_key) is what makes
// retried note creations safe: for a given pair at most one row is ever
// persisted. The key is nullable so notes without a key never collide.
type Note struct {
	ID             string         `json:"id" gorm:"type:varchar(64);primaryKey"`
	TenantID       string         `json:"tenant_id" gorm:"type:varchar(64);index;not null;uniqueIndex:ux_tenant_idem_key,priority:1"`
	EntityType     string         `json:"entity_type" gorm:"type:varchar(32);not null;index:idx_note_entity,priority:1"`
	EntityID       string         `json:"entity_id" gorm:"type:varchar(64);not null;index:idx_note_entity,priority:2"`
	AuthorID       string         `json:"author_id" gorm:"type:varchar(64)"`
	Body           string         `json:"body" gorm:"type:text;not null"`
	IdempotencyKey *string        `json:"-" gorm:"type:varchar(128);uniqueIndex:ux_tenant_idem_key,priority:2"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`
}

// ValidNoteEntityType reports whether t is a supported note target type.
func ValidNoteEntityType(t string) bool {
	switch t {
	case NoteEntityJob, NoteEntityClient, NoteEntityProperty:
		return true
	}
	return false
}
