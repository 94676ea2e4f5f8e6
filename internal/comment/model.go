package comment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a threaded note on a document. Replies reference their parent
// comment; one level of metadata is enough, the tree is rebuilt client-side.
type Comment struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID      uuid.UUID      `gorm:"type:uuid;not null;index" json:"document_id"`
	ParentCommentID *uuid.UUID     `gorm:"type:uuid;index" json:"parent_comment_id,omitempty"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null" json:"user_id"`
	Text            string         `gorm:"not null" json:"text"`
	IsResolved      bool           `gorm:"not null;default:false" json:"is_resolved"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CommentDTO carries the author's username alongside the row.
type CommentDTO struct {
	ID              uuid.UUID  `json:"id"`
	DocumentID      uuid.UUID  `json:"document_id"`
	ParentCommentID *uuid.UUID `json:"parent_comment_id,omitempty"`
	UserID          uuid.UUID  `json:"user_id"`
	UserName        string     `json:"user_name"`
	Text            string     `json:"text"`
	IsResolved      bool       `json:"is_resolved"`
	CreatedAt       time.Time  `json:"created_at"`
}
