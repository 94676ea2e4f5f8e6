package permission

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// In-memory fakes standing in for the user/folder/document repositories.

type fakeUsers map[uuid.UUID]UserInfo

func (f fakeUsers) UserAccessInfo(_ context.Context, id uuid.UUID) (*UserInfo, error) {
	if info, ok := f[id]; ok {
		return &info, nil
	}
	return nil, nil
}

type fakeFolders map[uuid.UUID]FolderInfo

func (f fakeFolders) FolderAccessInfo(_ context.Context, id uuid.UUID) (*FolderInfo, error) {
	if info, ok := f[id]; ok {
		return &info, nil
	}
	return nil, nil
}

type fakeDocuments map[uuid.UUID]DocumentInfo

func (f fakeDocuments) DocumentAccessInfo(_ context.Context, id uuid.UUID) (*DocumentInfo, error) {
	if info, ok := f[id]; ok {
		return &info, nil
	}
	return nil, nil
}

// fakeGrantStore emulates the transactional upsert and pair uniqueness the
// real repository gets from postgres.
type fakeGrantStore struct {
	grants map[uuid.UUID]*Permission
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{grants: map[uuid.UUID]*Permission{}}
}

func samePair(a, b *Permission) bool {
	if a.UserID != b.UserID {
		return false
	}
	sameID := func(x, y *uuid.UUID) bool {
		if (x == nil) != (y == nil) {
			return false
		}
		return x == nil || *x == *y
	}
	return sameID(a.FolderID, b.FolderID) && sameID(a.DocumentID, b.DocumentID)
}

func (s *fakeGrantStore) Upsert(_ context.Context, grant *Permission) error {
	for _, existing := range s.grants {
		if samePair(existing, grant) {
			now := time.Now().UTC()
			existing.Level = grant.Level
			existing.ExpiresAt = grant.ExpiresAt
			existing.ModifiedAt = &now
			existing.ModifiedBy = &grant.GrantedBy
			grant.ID = existing.ID
			return nil
		}
	}
	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	stored := *grant
	s.grants[grant.ID] = &stored
	return nil
}

func (s *fakeGrantStore) FindForFolder(_ context.Context, userID, folderID uuid.UUID) (*Permission, error) {
	for _, grant := range s.grants {
		if grant.UserID == userID && grant.FolderID != nil && *grant.FolderID == folderID {
			return grant, nil
		}
	}
	return nil, nil
}

func (s *fakeGrantStore) FindForDocument(_ context.Context, userID, documentID uuid.UUID) (*Permission, error) {
	for _, grant := range s.grants {
		if grant.UserID == userID && grant.DocumentID != nil && *grant.DocumentID == documentID {
			return grant, nil
		}
	}
	return nil, nil
}

func (s *fakeGrantStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	if _, ok := s.grants[id]; !ok {
		return false, nil
	}
	delete(s.grants, id)
	return true, nil
}

func (s *fakeGrantStore) DTOByID(_ context.Context, id uuid.UUID) (*PermissionDTO, error) {
	grant, ok := s.grants[id]
	if !ok {
		return nil, nil
	}
	return &PermissionDTO{
		ID:         grant.ID,
		UserID:     grant.UserID,
		FolderID:   grant.FolderID,
		DocumentID: grant.DocumentID,
		Level:      grant.Level,
		GrantedBy:  grant.GrantedBy,
		GrantedAt:  grant.GrantedAt,
		ExpiresAt:  grant.ExpiresAt,
	}, nil
}

func (s *fakeGrantStore) ListByUser(_ context.Context, userID uuid.UUID) ([]PermissionDTO, error) {
	var dtos []PermissionDTO
	for id, grant := range s.grants {
		if grant.UserID == userID {
			dto, _ := s.DTOByID(context.Background(), id)
			dtos = append(dtos, *dto)
		}
	}
	return dtos, nil
}

func (s *fakeGrantStore) ListByFolder(_ context.Context, folderID uuid.UUID) ([]PermissionDTO, error) {
	var dtos []PermissionDTO
	for id, grant := range s.grants {
		if grant.FolderID != nil && *grant.FolderID == folderID {
			dto, _ := s.DTOByID(context.Background(), id)
			dtos = append(dtos, *dto)
		}
	}
	return dtos, nil
}

func (s *fakeGrantStore) ListByDocument(_ context.Context, documentID uuid.UUID) ([]PermissionDTO, error) {
	var dtos []PermissionDTO
	for id, grant := range s.grants {
		if grant.DocumentID != nil && *grant.DocumentID == documentID {
			dto, _ := s.DTOByID(context.Background(), id)
			dtos = append(dtos, *dto)
		}
	}
	return dtos, nil
}

// fixture wires a resolver over in-memory state.
type fixture struct {
	users   fakeUsers
	folders fakeFolders
	docs    fakeDocuments
	store   *fakeGrantStore
	service Service
}

func newFixture() *fixture {
	f := &fixture{
		users:   fakeUsers{},
		folders: fakeFolders{},
		docs:    fakeDocuments{},
		store:   newFakeGrantStore(),
	}
	f.service = NewService(f.store, f.users, f.folders, f.docs, nil)
	return f
}

func (f *fixture) addUser(role Role) uuid.UUID {
	id := uuid.New()
	f.users[id] = UserInfo{Role: role, Active: true}
	return id
}

func (f *fixture) addFolder(ownerID uuid.UUID, system bool) uuid.UUID {
	id := uuid.New()
	f.folders[id] = FolderInfo{OwnerID: ownerID, IsSystem: system}
	return id
}

func (f *fixture) addDocument(ownerID, folderID uuid.UUID) uuid.UUID {
	id := uuid.New()
	f.docs[id] = DocumentInfo{OwnerID: ownerID, FolderID: folderID}
	return id
}

func (f *fixture) grant(t *testing.T, userID uuid.UUID, resource ResourceRef, level Level) *PermissionDTO {
	t.Helper()
	dto, err := f.service.Grant(context.Background(), GrantRequest{
		UserID:   userID,
		Resource: resource,
		Level:    level,
	}, "tester")
	require.NoError(t, err)
	require.NotNil(t, dto)
	return dto
}

var allLevels = []Level{LevelRead, LevelWrite, LevelAdmin}

func TestElevatedRolesBypassAllChecks(t *testing.T) {
	f := newFixture()
	owner := f.addUser(RoleUser)
	folderID := f.addFolder(owner, false)
	documentID := f.addDocument(owner, folderID)

	for _, role := range []Role{RoleSystemAdmin, RoleAdmin} {
		actor := f.addUser(role)
		for _, level := range allLevels {
			ok, err := f.service.CanAccessFolder(context.Background(), actor, folderID, level)
			require.NoError(t, err)
			assert.True(t, ok, "%s on folder at %s", role, level)

			ok, err = f.service.CanAccessDocument(context.Background(), actor, documentID, level)
			require.NoError(t, err)
			assert.True(t, ok, "%s on document at %s", role, level)
		}

		// Even for resources that do not exist
		ok, err := f.service.CanAccessFolder(context.Background(), actor, uuid.New(), LevelAdmin)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestOwnerAlwaysGranted(t *testing.T) {
	f := newFixture()
	owner := f.addUser(RoleUser)
	folderID := f.addFolder(owner, false)
	documentID := f.addDocument(owner, f.addFolder(f.addUser(RoleUser), false))

	for _, level := range allLevels {
		ok, err := f.service.CanAccessFolder(context.Background(), owner, folderID, level)
		require.NoError(t, err)
		assert.True(t, ok, "owner on folder at %s", level)

		ok, err = f.service.CanAccessDocument(context.Background(), owner, documentID, level)
		require.NoError(t, err)
		assert.True(t, ok, "owner on document at %s", level)
	}
}

func TestSystemFolderDefaults(t *testing.T) {
	f := newFixture()
	admin := f.addUser(RoleSystemAdmin)
	systemFolder := f.addFolder(admin, true)

	cases := []struct {
		role     Role
		level    Level
		expected bool
	}{
		{RoleUser, LevelRead, true},
		{RoleViewer, LevelRead, true},
		{RoleManager, LevelWrite, true},
		{RoleEditor, LevelWrite, true},
		{RoleContributor, LevelWrite, true},
		{RoleViewer, LevelWrite, false},
		{RoleUser, LevelWrite, false},
		{RoleUser, LevelAdmin, false},
	}
	for _, tc := range cases {
		actor := f.addUser(tc.role)
		ok, err := f.service.CanAccessFolder(context.Background(), actor, systemFolder, tc.level)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, ok, "%s at %s", tc.role, tc.level)
	}

	// Inactive users get no system-folder default at all
	inactive := uuid.New()
	f.users[inactive] = UserInfo{Role: RoleUser, Active: false}
	ok, err := f.service.CanAccessFolder(context.Background(), inactive, systemFolder, LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantLevelOrdering(t *testing.T) {
	f := newFixture()
	owner := f.addUser(RoleUser)

	cases := []struct {
		granted  Level
		required Level
		expected bool
	}{
		{LevelRead, LevelRead, true},
		{LevelRead, LevelWrite, false},
		{LevelRead, LevelAdmin, false},
		{LevelWrite, LevelRead, true},
		{LevelWrite, LevelWrite, true},
		{LevelWrite, LevelAdmin, false},
		{LevelAdmin, LevelRead, true},
		{LevelAdmin, LevelWrite, true},
		{LevelAdmin, LevelAdmin, true},
	}
	for _, tc := range cases {
		actor := f.addUser(RoleUser)
		folderID := f.addFolder(owner, false)
		f.grant(t, actor, FolderRef(folderID), tc.granted)

		ok, err := f.service.CanAccessFolder(context.Background(), actor, folderID, tc.required)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, ok, "grant %s, required %s", tc.granted, tc.required)
	}
}

func TestDocumentInheritsFolderGrant(t *testing.T) {
	f := newFixture()
	owner := f.addUser(RoleUser)
	actor := f.addUser(RoleUser)
	folderID := f.addFolder(owner, false)
	documentID := f.addDocument(owner, folderID)

	// No grant at all: denied
	ok, err := f.service.CanAccessDocument(context.Background(), actor, documentID, LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)

	// Folder Read grant carries over to the contained document
	f.grant(t, actor, FolderRef(folderID), LevelRead)

	ok, err = f.service.CanAccessDocument(context.Background(), actor, documentID, LevelRead)
	require.NoError(t, err)
	assert.True(t, ok)

	// But not beyond the granted level
	ok, err = f.service.CanAccessDocument(context.Background(), actor, documentID, LevelWrite)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentGrantWithoutFolderAccess(t *testing.T) {
	f := newFixture()
	owner := f.addUser(RoleUser)
	actor := f.addUser(RoleUser)
	folderID := f.addFolder(owner, false)
	documentID := f.addDocument(owner, folderID)

	f.grant(t, actor, DocumentRef(documentID), LevelWrite)

	ok, err := f.service.CanAccessDocument(context.Background(), actor, documentID, LevelWrite)
	require.NoError(t, err)
	assert.True(t, ok)

	// The document grant does not leak upward to the folder
	ok, err = f.service.CanAccessFolder(context.Background(), actor, folderID, LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMissingResourcesAndUsersDeny(t *testing.T) {
	f := newFixture()
	actor := f.addUser(RoleUser)
	owner := f.addUser(RoleUser)
	folderID := f.addFolder(owner, false)

	// Unknown folder and document read as deny, not as an error
	ok, err := f.service.CanAccessFolder(context.Background(), actor, uuid.New(), LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.service.CanAccessDocument(context.Background(), actor, uuid.New(), LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)

	// Unknown user falls through every rule
	ok, err = f.service.CanAccessFolder(context.Background(), uuid.New(), folderID, LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGrantUpsertIsIdempotent(t *testing.T) {
	f := newFixture()
	owner := f.addUser(RoleUser)
	actor := f.addUser(RoleUser)
	folderID := f.addFolder(owner, false)

	first := f.grant(t, actor, FolderRef(folderID), LevelRead)
	second := f.grant(t, actor, FolderRef(folderID), LevelWrite)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, f.store.grants, 1)

	// The most recent level is in effect
	ok, err := f.service.CanAccessFolder(context.Background(), actor, folderID, LevelWrite)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGrantRequiresExactlyOneResource(t *testing.T) {
	f := newFixture()
	actor := f.addUser(RoleUser)

	_, err := f.service.Grant(context.Background(), GrantRequest{
		UserID: actor,
		Level:  LevelRead,
	}, "tester")
	assert.Error(t, err)
	assert.Empty(t, f.store.grants)
}

func TestRevoke(t *testing.T) {
	f := newFixture()
	owner := f.addUser(RoleUser)
	actor := f.addUser(RoleUser)
	folderID := f.addFolder(owner, false)

	// Revoking an unknown id reports false
	deleted, err := f.service.Revoke(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, deleted)

	grant := f.grant(t, actor, FolderRef(folderID), LevelAdmin)

	deleted, err = f.service.Revoke(context.Background(), grant.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	// Access relying solely on that grant is gone
	ok, err := f.service.CanAccessFolder(context.Background(), actor, folderID, LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)

	// Revoking again reports false, same as never-existed
	deleted, err = f.service.Revoke(context.Background(), grant.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestExpiredGrantsReadAsAbsent(t *testing.T) {
	f := newFixture()
	owner := f.addUser(RoleUser)
	actor := f.addUser(RoleUser)
	folderID := f.addFolder(owner, false)

	expired := time.Now().UTC().Add(-time.Minute)
	dto, err := f.service.Grant(context.Background(), GrantRequest{
		UserID:    actor,
		Resource:  FolderRef(folderID),
		Level:     LevelAdmin,
		ExpiresAt: &expired,
	}, "tester")
	require.NoError(t, err)
	require.NotNil(t, dto)

	ok, err := f.service.CanAccessFolder(context.Background(), actor, folderID, LevelRead)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNonOwnerWithReadGrantScenario(t *testing.T) {
	f := newFixture()
	admin := f.addUser(RoleAdmin)
	u := f.addUser(RoleUser)
	folderID := f.addFolder(admin, false)
	f.grant(t, u, FolderRef(folderID), LevelRead)

	ok, err := f.service.CanAccessFolder(context.Background(), u, folderID, LevelRead)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.service.CanAccessFolder(context.Background(), u, folderID, LevelWrite)
	require.NoError(t, err)
	assert.False(t, ok)
}
