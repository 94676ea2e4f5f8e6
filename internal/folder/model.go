package folder

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Folder is a node in the folder tree. Path is the materialized path from
// the root ("/Root/Projects/2026/") and Level its depth, both derived from
// the parent at creation time. There is no move operation, so neither is
// ever recomputed.
type Folder struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Description    *string        `json:"description,omitempty"`
	ParentFolderID *uuid.UUID     `gorm:"type:uuid;index" json:"parent_folder_id,omitempty"`
	Path           string         `gorm:"uniqueIndex;not null" json:"path"`
	Level          int            `gorm:"not null" json:"level"`
	IsSystemFolder bool           `gorm:"not null;default:false" json:"is_system_folder"`
	OwnerID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (f *Folder) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// FolderDTO is the listing shape, carrying child and document counts so the
// client can render the tree without extra round trips.
type FolderDTO struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    *string    `json:"description,omitempty"`
	ParentFolderID *uuid.UUID `json:"parent_folder_id,omitempty"`
	Path           string     `json:"path"`
	Level          int        `json:"level"`
	IsSystemFolder bool       `json:"is_system_folder"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	ChildCount     int64      `json:"child_count"`
	DocumentCount  int64      `json:"document_count"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toDTO(f Folder, childCount, documentCount int64) FolderDTO {
	return FolderDTO{
		ID:             f.ID,
		Name:           f.Name,
		Description:    f.Description,
		ParentFolderID: f.ParentFolderID,
		Path:           f.Path,
		Level:          f.Level,
		IsSystemFolder: f.IsSystemFolder,
		OwnerID:        f.OwnerID,
		ChildCount:     childCount,
		DocumentCount:  documentCount,
		CreatedAt:      f.CreatedAt,
	}
}
