package permission

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestLevelSatisfies(t *testing.T) {
	assert.True(t, LevelAdmin.Satisfies(LevelRead))
	assert.True(t, LevelAdmin.Satisfies(LevelAdmin))
	assert.True(t, LevelWrite.Satisfies(LevelRead))
	assert.False(t, LevelWrite.Satisfies(LevelAdmin))
	assert.False(t, LevelRead.Satisfies(LevelWrite))

	assert.False(t, Level("Owner").Satisfies(LevelRead))
	assert.False(t, LevelAdmin.Satisfies(Level("")))
}

func TestParseLevel(t *testing.T) {
	l, ok := ParseLevel("Write")
	assert.True(t, ok)
	assert.Equal(t, LevelWrite, l)

	_, ok = ParseLevel("write")
	assert.False(t, ok)
	_, ok = ParseLevel("")
	assert.False(t, ok)
}

func TestRoleHelpers(t *testing.T) {
	assert.True(t, RoleSystemAdmin.Elevated())
	assert.True(t, RoleAdmin.Elevated())
	assert.False(t, RoleManager.Elevated())

	assert.True(t, RoleManager.CanWriteSystemFolders())
	assert.True(t, RoleContributor.CanWriteSystemFolders())
	assert.False(t, RoleViewer.CanWriteSystemFolders())
	assert.False(t, RoleUser.CanWriteSystemFolders())

	_, ok := ParseRole("Editor")
	assert.True(t, ok)
	_, ok = ParseRole("editor")
	assert.False(t, ok)
}

func TestResourceRef(t *testing.T) {
	assert.True(t, ResourceRef{}.IsZero())

	id := uuid.New()
	ref := FolderRef(id)
	assert.False(t, ref.IsZero())
	got, ok := ref.FolderID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = ref.DocumentID()
	assert.False(t, ok)

	ref = DocumentRef(id)
	got, ok = ref.DocumentID()
	assert.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = ref.FolderID()
	assert.False(t, ok)
}

func TestPermissionExpired(t *testing.T) {
	now := time.Now().UTC()

	assert.False(t, (&Permission{}).Expired(now))

	future := now.Add(time.Hour)
	assert.False(t, (&Permission{ExpiresAt: &future}).Expired(now))

	past := now.Add(-time.Hour)
	assert.True(t, (&Permission{ExpiresAt: &past}).Expired(now))

	// An expiry equal to now is already lapsed
	assert.True(t, (&Permission{ExpiresAt: &now}).Expired(now))
}
