package folder

import (
	"context"
	"fmt"
	"os"
	"testing"

	"edm-backend/internal/errors"
	"edm-backend/internal/permission"
	"edm-backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.L = zap.NewNop()
	os.Exit(m.Run())
}

type fakeFolderRepo struct {
	folders map[uuid.UUID]*Folder
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: map[uuid.UUID]*Folder{}}
}

func (r *fakeFolderRepo) add(f Folder) *Folder {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	stored := f
	r.folders[f.ID] = &stored
	return &stored
}

func (r *fakeFolderRepo) Create(_ context.Context, folder *Folder) error {
	if folder.ID == uuid.Nil {
		folder.ID = uuid.New()
	}
	for _, existing := range r.folders {
		if existing.Path == folder.Path {
			return fmt.Errorf("duplicate path %s", folder.Path)
		}
	}
	stored := *folder
	r.folders[folder.ID] = &stored
	return nil
}

func (r *fakeFolderRepo) FindByID(_ context.Context, id uuid.UUID) (*Folder, error) {
	if f, ok := r.folders[id]; ok {
		copied := *f
		return &copied, nil
	}
	return nil, nil
}

func (r *fakeFolderRepo) FindByPath(_ context.Context, path string) (*Folder, error) {
	for _, f := range r.folders {
		if f.Path == path {
			copied := *f
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeFolderRepo) FindChildren(_ context.Context, parentID *uuid.UUID) ([]Folder, error) {
	var children []Folder
	for _, f := range r.folders {
		if parentID == nil {
			if f.ParentFolderID == nil {
				children = append(children, *f)
			}
			continue
		}
		if f.ParentFolderID != nil && *f.ParentFolderID == *parentID {
			children = append(children, *f)
		}
	}
	return children, nil
}

func (r *fakeFolderRepo) CountChildren(_ context.Context, id uuid.UUID) (int64, error) {
	var count int64
	for _, f := range r.folders {
		if f.ParentFolderID != nil && *f.ParentFolderID == id {
			count++
		}
	}
	return count, nil
}

func (r *fakeFolderRepo) Update(_ context.Context, folder *Folder) error {
	if _, ok := r.folders[folder.ID]; !ok {
		return fmt.Errorf("folder %s not found", folder.ID)
	}
	stored := *folder
	r.folders[folder.ID] = &stored
	return nil
}

func (r *fakeFolderRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.folders[id]; !ok {
		return fmt.Errorf("folder %s not found", id)
	}
	delete(r.folders, id)
	return nil
}

func (r *fakeFolderRepo) FolderAccessInfo(_ context.Context, id uuid.UUID) (*permission.FolderInfo, error) {
	f, ok := r.folders[id]
	if !ok {
		return nil, nil
	}
	return &permission.FolderInfo{OwnerID: f.OwnerID, IsSystem: f.IsSystemFolder}, nil
}

// allowAll / denyAll stand in for the permission resolver.
type accessFunc func(ctx context.Context, userID, folderID uuid.UUID, required permission.Level) (bool, error)

func (f accessFunc) CanAccessFolder(ctx context.Context, userID, folderID uuid.UUID, required permission.Level) (bool, error) {
	return f(ctx, userID, folderID, required)
}

var allowAll = accessFunc(func(context.Context, uuid.UUID, uuid.UUID, permission.Level) (bool, error) {
	return true, nil
})

var denyAll = accessFunc(func(context.Context, uuid.UUID, uuid.UUID, permission.Level) (bool, error) {
	return false, nil
})

func newTestService(repo FolderRepository, access AccessChecker) Service {
	return NewService(repo, access, nil, nil, nil)
}

func seedRoot(repo *fakeFolderRepo, ownerID uuid.UUID) *Folder {
	return repo.add(Folder{
		Name:           "Root",
		Path:           "/Root/",
		Level:          0,
		IsSystemFolder: true,
		OwnerID:        ownerID,
	})
}

func TestCreateDerivesPathAndLevel(t *testing.T) {
	repo := newFakeFolderRepo()
	admin := uuid.New()
	root := seedRoot(repo, admin)
	service := newTestService(repo, allowAll)

	actor := uuid.New()
	dto, err := service.Create(context.Background(), actor, CreateFolderRequest{
		Name:           "Projects",
		ParentFolderID: root.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "/Root/Projects/", dto.Path)
	assert.Equal(t, 1, dto.Level)
	assert.Equal(t, actor, dto.OwnerID)
	assert.False(t, dto.IsSystemFolder)
	require.NotNil(t, dto.ParentFolderID)
	assert.Equal(t, root.ID, *dto.ParentFolderID)

	// Nested one deeper
	nested, err := service.Create(context.Background(), actor, CreateFolderRequest{
		Name:           "2026",
		ParentFolderID: dto.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "/Root/Projects/2026/", nested.Path)
	assert.Equal(t, 2, nested.Level)
}

func TestCreateMissingParent(t *testing.T) {
	service := newTestService(newFakeFolderRepo(), allowAll)

	_, err := service.Create(context.Background(), uuid.New(), CreateFolderRequest{
		Name:           "Orphan",
		ParentFolderID: uuid.New(),
	})
	require.Error(t, err)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Status)
}

func TestCreateWithoutWriteAccess(t *testing.T) {
	repo := newFakeFolderRepo()
	root := seedRoot(repo, uuid.New())
	service := newTestService(repo, denyAll)

	_, err := service.Create(context.Background(), uuid.New(), CreateFolderRequest{
		Name:           "Nope",
		ParentFolderID: root.ID,
	})
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Status)
}

func TestUpdateKeepsPathAndProtectsSystemFolders(t *testing.T) {
	repo := newFakeFolderRepo()
	admin := uuid.New()
	root := seedRoot(repo, admin)
	child := repo.add(Folder{
		Name:           "Drafts",
		ParentFolderID: &root.ID,
		Path:           "/Root/Drafts/",
		Level:          1,
		OwnerID:        admin,
	})
	service := newTestService(repo, allowAll)

	dto, err := service.Update(context.Background(), admin, child.ID, UpdateFolderRequest{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", dto.Name)
	assert.Equal(t, "/Root/Drafts/", dto.Path, "path never changes after creation")
	assert.Equal(t, 1, dto.Level)

	_, err = service.Update(context.Background(), admin, root.ID, UpdateFolderRequest{Name: "NewRoot"})
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)
}

func TestDeleteProtectsSystemFolders(t *testing.T) {
	repo := newFakeFolderRepo()
	admin := uuid.New()
	root := seedRoot(repo, admin)
	child := repo.add(Folder{
		Name:           "Old",
		ParentFolderID: &root.ID,
		Path:           "/Root/Old/",
		Level:          1,
		OwnerID:        admin,
	})
	service := newTestService(repo, allowAll)

	err := service.Delete(context.Background(), admin, root.ID)
	var apiErr *errors.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 400, apiErr.Status)

	require.NoError(t, service.Delete(context.Background(), admin, child.ID))
	gone, err := repo.FindByID(context.Background(), child.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestListFiltersByReadAccess(t *testing.T) {
	repo := newFakeFolderRepo()
	admin := uuid.New()
	root := seedRoot(repo, admin)
	visible := repo.add(Folder{Name: "A", ParentFolderID: &root.ID, Path: "/Root/A/", Level: 1, OwnerID: admin})
	hidden := repo.add(Folder{Name: "B", ParentFolderID: &root.ID, Path: "/Root/B/", Level: 1, OwnerID: admin})

	perFolder := accessFunc(func(_ context.Context, _ uuid.UUID, folderID uuid.UUID, _ permission.Level) (bool, error) {
		return folderID == visible.ID, nil
	})
	service := newTestService(repo, perFolder)

	dtos, err := service.List(context.Background(), uuid.New(), &root.ID)
	require.NoError(t, err)
	require.Len(t, dtos, 1)
	assert.Equal(t, visible.ID, dtos[0].ID)
	_ = hidden
}

func TestEnsurePersonalFolder(t *testing.T) {
	repo := newFakeFolderRepo()
	admin := uuid.New()
	root := seedRoot(repo, admin)
	users := repo.add(Folder{
		Name:           "Users",
		ParentFolderID: &root.ID,
		Path:           "/Root/Users/",
		Level:          1,
		IsSystemFolder: true,
		OwnerID:        admin,
	})
	service := newTestService(repo, allowAll)

	userID := uuid.New()
	created, err := service.EnsurePersonalFolder(context.Background(), userID, "alice")
	require.NoError(t, err)
	assert.True(t, created)

	personal, err := repo.FindByPath(context.Background(), "/Root/Users/alice/")
	require.NoError(t, err)
	require.NotNil(t, personal)
	assert.Equal(t, userID, personal.OwnerID)
	assert.Equal(t, users.Level+1, personal.Level)
	assert.False(t, personal.IsSystemFolder)

	// Second call is a no-op
	created, err = service.EnsurePersonalFolder(context.Background(), userID, "alice")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestEnsurePersonalFolderWithoutUsersFolder(t *testing.T) {
	repo := newFakeFolderRepo()
	seedRoot(repo, uuid.New())
	service := newTestService(repo, allowAll)

	created, err := service.EnsurePersonalFolder(context.Background(), uuid.New(), "bob")
	require.NoError(t, err)
	assert.False(t, created)
}
