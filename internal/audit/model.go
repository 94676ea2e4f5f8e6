package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog records who did what to which entity. Rows are append-only.
type AuditLog struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Action     string    `gorm:"not null;index" json:"action"`
	EntityType string    `gorm:"not null;index" json:"entity_type"`
	EntityID   uuid.UUID `gorm:"type:uuid;not null;index" json:"entity_id"`
	Actor      string    `gorm:"not null" json:"actor"`
	Details    *string   `json:"details,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
