package tag

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag labels documents. Managed by admins, attached by anyone with Write on
// the document.
type Tag struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Description *string        `json:"description,omitempty"`
	Color       string         `gorm:"not null;default:'#0066CC'" json:"color"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// DocumentTag is the join row between documents and tags.
type DocumentTag struct {
	DocumentID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TagID      uuid.UUID `gorm:"type:uuid;primaryKey"`
}

func (DocumentTag) TableName() string {
	return "document_tags"
}
