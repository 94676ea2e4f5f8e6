package permission

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Level is the permission level carried by a grant. Levels are totally
// ordered: Read < Write < Admin. Comparison goes through rank so nobody
// re-derives the ordering with string switches.
type Level string

const (
	LevelRead  Level = "Read"
	LevelWrite Level = "Write"
	LevelAdmin Level = "Admin"
)

func (l Level) rank() int {
	switch l {
	case LevelRead:
		return 1
	case LevelWrite:
		return 2
	case LevelAdmin:
		return 3
	}
	return 0
}

func (l Level) Valid() bool {
	return l.rank() > 0
}

// Satisfies reports whether a grant of level l covers a request for the
// required level. Unknown levels never satisfy anything.
func (l Level) Satisfies(required Level) bool {
	if !l.Valid() || !required.Valid() {
		return false
	}
	return l.rank() >= required.rank()
}

func ParseLevel(s string) (Level, bool) {
	l := Level(s)
	return l, l.Valid()
}

// Role is a user's organization-wide role.
type Role string

const (
	RoleSystemAdmin Role = "SystemAdmin"
	RoleAdmin       Role = "Admin"
	RoleManager     Role = "Manager"
	RoleEditor      Role = "Editor"
	RoleContributor Role = "Contributor"
	RoleViewer      Role = "Viewer"
	RoleUser        Role = "User"
)

var allRoles = map[Role]struct{}{
	RoleSystemAdmin: {},
	RoleAdmin:       {},
	RoleManager:     {},
	RoleEditor:      {},
	RoleContributor: {},
	RoleViewer:      {},
	RoleUser:        {},
}

// Roles allowed to write into system folders (roles that can create documents
// there without an explicit grant).
var systemFolderWriteRoles = map[Role]struct{}{
	RoleSystemAdmin: {},
	RoleAdmin:       {},
	RoleManager:     {},
	RoleEditor:      {},
	RoleContributor: {},
}

func (r Role) Valid() bool {
	_, ok := allRoles[r]
	return ok
}

// Elevated reports whether the role bypasses all resource checks.
func (r Role) Elevated() bool {
	return r == RoleSystemAdmin || r == RoleAdmin
}

func (r Role) CanWriteSystemFolders() bool {
	_, ok := systemFolderWriteRoles[r]
	return ok
}

func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// ResourceRef identifies the target of a grant: exactly one folder or one
// document. The zero value is invalid, so the both-set and neither-set states
// cannot be expressed at all.
type ResourceRef struct {
	folderID   *uuid.UUID
	documentID *uuid.UUID
}

func FolderRef(id uuid.UUID) ResourceRef {
	return ResourceRef{folderID: &id}
}

func DocumentRef(id uuid.UUID) ResourceRef {
	return ResourceRef{documentID: &id}
}

func (r ResourceRef) IsZero() bool {
	return r.folderID == nil && r.documentID == nil
}

func (r ResourceRef) FolderID() (uuid.UUID, bool) {
	if r.folderID == nil {
		return uuid.Nil, false
	}
	return *r.folderID, true
}

func (r ResourceRef) DocumentID() (uuid.UUID, bool) {
	if r.documentID == nil {
		return uuid.Nil, false
	}
	return *r.documentID, true
}

// Permission is an explicit access grant for a user on a folder or document.
// At most one row exists per (user, resource) pair; granting again updates
// the row in place.
type Permission struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	FolderID   *uuid.UUID `gorm:"type:uuid;index"`
	DocumentID *uuid.UUID `gorm:"type:uuid;index"`
	Level      Level      `gorm:"column:permission_type;not null"`
	GrantedBy  string     `gorm:"not null"`
	GrantedAt  time.Time
	ExpiresAt  *time.Time
	ModifiedAt *time.Time
	ModifiedBy *string
}

func (Permission) TableName() string {
	return "permissions"
}

func (p *Permission) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the grant has lapsed. Grants without an expiry
// never expire.
func (p *Permission) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// PermissionDTO is the external representation of a grant, joined with the
// grantee name and the resource's display info.
type PermissionDTO struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	UserName      string     `json:"user_name"`
	FolderID      *uuid.UUID `json:"folder_id,omitempty"`
	FolderPath    *string    `json:"folder_path,omitempty"`
	DocumentID    *uuid.UUID `json:"document_id,omitempty"`
	DocumentTitle *string    `json:"document_title,omitempty"`
	Level         Level      `json:"permission_type"`
	GrantedBy     string     `json:"granted_by"`
	GrantedAt     time.Time  `json:"granted_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// GrantRequest is the service-level input for granting a permission.
type GrantRequest struct {
	UserID    uuid.UUID
	Resource  ResourceRef
	Level     Level
	ExpiresAt *time.Time
}
