package permission

import (
	"context"
	"time"

	"edm-backend/internal/errors"

	"github.com/google/uuid"
)

// UserInfo is what the resolver needs to know about a user.
type UserInfo struct {
	Role   Role
	Active bool
}

// FolderInfo is what the resolver needs to know about a folder.
type FolderInfo struct {
	OwnerID  uuid.UUID
	IsSystem bool
}

// DocumentInfo is what the resolver needs to know about a document.
type DocumentInfo struct {
	OwnerID  uuid.UUID
	FolderID uuid.UUID
}

// Lookup interfaces are satisfied by the user, folder and document
// repositories. All of them return (nil, nil) for missing (or soft-deleted)
// records: the resolver folds "not found" into a deny so callers can't probe
// for resource existence through access checks.
type UserLookup interface {
	UserAccessInfo(ctx context.Context, id uuid.UUID) (*UserInfo, error)
}

type FolderLookup interface {
	FolderAccessInfo(ctx context.Context, id uuid.UUID) (*FolderInfo, error)
}

type DocumentLookup interface {
	DocumentAccessInfo(ctx context.Context, id uuid.UUID) (*DocumentInfo, error)
}

// AuditRecorder receives grant/revoke events. May be nil-free no-op.
type AuditRecorder interface {
	Record(ctx context.Context, action, entityType string, entityID uuid.UUID, actor string)
}

// Service decides folder and document access and manages explicit grants.
type Service interface {
	CanAccessFolder(ctx context.Context, userID, folderID uuid.UUID, required Level) (bool, error)
	CanAccessDocument(ctx context.Context, userID, documentID uuid.UUID, required Level) (bool, error)
	Grant(ctx context.Context, req GrantRequest, grantedBy string) (*PermissionDTO, error)
	Revoke(ctx context.Context, permissionID uuid.UUID) (bool, error)
	GetPermission(ctx context.Context, permissionID uuid.UUID) (*PermissionDTO, error)
	ListUserPermissions(ctx context.Context, userID uuid.UUID) ([]PermissionDTO, error)
	ListFolderPermissions(ctx context.Context, folderID uuid.UUID) ([]PermissionDTO, error)
	ListDocumentPermissions(ctx context.Context, documentID uuid.UUID) ([]PermissionDTO, error)
}

type DefaultService struct {
	repo      Repository
	users     UserLookup
	folders   FolderLookup
	documents DocumentLookup
	audit     AuditRecorder
}

func NewService(repo Repository, users UserLookup, folders FolderLookup, documents DocumentLookup, audit AuditRecorder) Service {
	return &DefaultService{
		repo:      repo,
		users:     users,
		folders:   folders,
		documents: documents,
		audit:     audit,
	}
}

// CanAccessFolder evaluates the access rules in order; the first rule that
// grants wins and deny is the default. An unknown user carries no role and
// owns nothing, so it falls through to the grant check and is denied there.
func (s *DefaultService) CanAccessFolder(ctx context.Context, userID, folderID uuid.UUID, required Level) (bool, error) {
	if !required.Valid() {
		return false, nil
	}

	user, err := s.users.UserAccessInfo(ctx, userID)
	if err != nil {
		return false, err
	}

	// Role overrides apply regardless of the resource
	if user != nil && user.Role.Elevated() {
		return true, nil
	}

	folder, err := s.folders.FolderAccessInfo(ctx, folderID)
	if err != nil {
		return false, err
	}
	if folder == nil {
		// Missing folder reads as deny, not as a distinct error
		return false, nil
	}

	if folder.OwnerID == userID {
		return true, nil
	}

	if folder.IsSystem && user != nil && user.Active {
		if required == LevelRead {
			return true, nil
		}
		if required == LevelWrite && user.Role.CanWriteSystemFolders() {
			return true, nil
		}
	}

	grant, err := s.repo.FindForFolder(ctx, userID, folderID)
	if err != nil {
		return false, err
	}
	if grant == nil || grant.Expired(time.Now().UTC()) {
		return false, nil
	}

	return grant.Level.Satisfies(required), nil
}

// CanAccessDocument applies the same overrides and ownership rules against
// the document, then inherits the containing folder's access before falling
// back to document-level grants. Folder grants are the common case, so they
// are checked first.
func (s *DefaultService) CanAccessDocument(ctx context.Context, userID, documentID uuid.UUID, required Level) (bool, error) {
	if !required.Valid() {
		return false, nil
	}

	user, err := s.users.UserAccessInfo(ctx, userID)
	if err != nil {
		return false, err
	}
	if user != nil && user.Role.Elevated() {
		return true, nil
	}

	doc, err := s.documents.DocumentAccessInfo(ctx, documentID)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}

	if doc.OwnerID == userID {
		return true, nil
	}

	ok, err := s.CanAccessFolder(ctx, userID, doc.FolderID, required)
	if err != nil {
		return false, err
	}
	if ok {
		return true, nil
	}

	grant, err := s.repo.FindForDocument(ctx, userID, documentID)
	if err != nil {
		return false, err
	}
	if grant == nil || grant.Expired(time.Now().UTC()) {
		return false, nil
	}

	return grant.Level.Satisfies(required), nil
}

// Grant creates or updates the single grant for (user, resource). Granting
// twice on the same pair updates the existing row rather than duplicating it.
func (s *DefaultService) Grant(ctx context.Context, req GrantRequest, grantedBy string) (*PermissionDTO, error) {
	if req.Resource.IsZero() {
		return nil, errors.BadRequest("Either folder_id or document_id must be provided", nil)
	}
	if !req.Level.Valid() {
		return nil, errors.BadRequest("Unknown permission type", nil)
	}

	grant := &Permission{
		UserID:    req.UserID,
		Level:     req.Level,
		GrantedBy: grantedBy,
		GrantedAt: time.Now().UTC(),
		ExpiresAt: req.ExpiresAt,
	}
	if folderID, ok := req.Resource.FolderID(); ok {
		grant.FolderID = &folderID
	}
	if documentID, ok := req.Resource.DocumentID(); ok {
		grant.DocumentID = &documentID
	}

	if err := s.repo.Upsert(ctx, grant); err != nil {
		return nil, err
	}

	if s.audit != nil {
		entityType, entityID := grantTarget(grant)
		s.audit.Record(ctx, "permission.grant", entityType, entityID, grantedBy)
	}

	return s.repo.DTOByID(ctx, grant.ID)
}

// Revoke deletes the grant by id. Returns false when no such grant exists,
// so callers cannot tell "already revoked" from "never existed".
func (s *DefaultService) Revoke(ctx context.Context, permissionID uuid.UUID) (bool, error) {
	var (
		entityType string
		entityID   uuid.UUID
	)
	if s.audit != nil {
		if grant, err := s.repo.DTOByID(ctx, permissionID); err == nil && grant != nil {
			if grant.FolderID != nil {
				entityType, entityID = "folder", *grant.FolderID
			} else if grant.DocumentID != nil {
				entityType, entityID = "document", *grant.DocumentID
			}
		}
	}

	deleted, err := s.repo.Delete(ctx, permissionID)
	if err != nil {
		return false, err
	}

	if deleted && s.audit != nil && entityType != "" {
		s.audit.Record(ctx, "permission.revoke", entityType, entityID, "")
	}

	return deleted, nil
}

func (s *DefaultService) GetPermission(ctx context.Context, permissionID uuid.UUID) (*PermissionDTO, error) {
	return s.repo.DTOByID(ctx, permissionID)
}

func (s *DefaultService) ListUserPermissions(ctx context.Context, userID uuid.UUID) ([]PermissionDTO, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *DefaultService) ListFolderPermissions(ctx context.Context, folderID uuid.UUID) ([]PermissionDTO, error) {
	return s.repo.ListByFolder(ctx, folderID)
}

func (s *DefaultService) ListDocumentPermissions(ctx context.Context, documentID uuid.UUID) ([]PermissionDTO, error) {
	return s.repo.ListByDocument(ctx, documentID)
}

func grantTarget(grant *Permission) (string, uuid.UUID) {
	if grant.FolderID != nil {
		return "folder", *grant.FolderID
	}
	return "document", *grant.DocumentID
}
