package document

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document statuses. Documents start as drafts; approval workflows move
// them to Approved or Rejected.
const (
	StatusDraft    = "Draft"
	StatusActive   = "Active"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
	StatusArchived = "Archived"
)

// Document is the metadata row. File content lives in storage, addressed by
// FilePath; the denormalized FileName/FileSizeBytes/FilePath columns always
// describe the current version.
type Document struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    *string        `json:"description,omitempty"`
	FolderID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"folder_id"`
	FileName       string         `gorm:"not null" json:"file_name"`
	FileExtension  string         `gorm:"not null" json:"file_extension"`
	FileSizeBytes  int64          `gorm:"not null" json:"file_size_bytes"`
	FilePath       string         `gorm:"not null" json:"-"`
	CurrentVersion int            `gorm:"not null;default:1" json:"current_version"`
	Status         string         `gorm:"not null;default:'Draft'" json:"status"`
	OwnerID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	DownloadCount  int            `gorm:"not null;default:0" json:"download_count"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// DocumentVersion is an immutable snapshot of one upload.
type DocumentVersion struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_document_version" json:"document_id"`
	VersionNumber int       `gorm:"not null;uniqueIndex:idx_document_version" json:"version_number"`
	FileName      string    `gorm:"not null" json:"file_name"`
	FilePath      string    `gorm:"not null" json:"-"`
	FileSizeBytes int64     `gorm:"not null" json:"file_size_bytes"`
	ChangeComment *string   `json:"change_comment,omitempty"`
	UploadedBy    string    `gorm:"not null" json:"uploaded_by"`
	CreatedAt     time.Time `json:"created_at"`
}

func (v *DocumentVersion) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// DocumentDTO is the listing and detail shape.
type DocumentDTO struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description,omitempty"`
	FolderID        uuid.UUID `json:"folder_id"`
	FolderPath      string    `json:"folder_path"`
	FileName        string    `json:"file_name"`
	FileExtension   string    `json:"file_extension"`
	FileSizeBytes   int64     `json:"file_size_bytes"`
	CurrentVersion  int       `json:"current_version"`
	Status          string    `json:"status"`
	OwnerID         uuid.UUID `json:"owner_id"`
	OwnerName       string    `json:"owner_name"`
	Tags            []string  `json:"tags"`
	HasOpenWorkflow bool      `json:"has_open_workflow"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
