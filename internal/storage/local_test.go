package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"edm-backend/internal/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	config.AppConfig = config.Config{
		MaxFileSizeMB:     10,
		AllowedExtensions: []string{".pdf", ".txt"},
	}
	os.Exit(m.Run())
}

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	documentID := uuid.New()
	key, err := store.Save(context.Background(), documentID, 1, "report.pdf", strings.NewReader("hello"), 5)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("%s/v1_report.pdf", documentID), key)

	reader, err := store.Open(context.Background(), key)
	require.NoError(t, err)
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	reader.Close()
	assert.Equal(t, "hello", string(data))

	require.NoError(t, store.Delete(context.Background(), key))
	_, err = store.Open(context.Background(), key)
	assert.Error(t, err)

	// Deleting a missing key is not an error
	assert.NoError(t, store.Delete(context.Background(), key))
}

func TestLocalStorageVersionsDoNotCollide(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	documentID := uuid.New()
	key1, err := store.Save(context.Background(), documentID, 1, "report.pdf", strings.NewReader("v1"), 2)
	require.NoError(t, err)
	key2, err := store.Save(context.Background(), documentID, 2, "report.pdf", strings.NewReader("v2"), 2)
	require.NoError(t, err)
	assert.NotEqual(t, key1, key2)

	reader, err := store.Open(context.Background(), key1)
	require.NoError(t, err)
	data, _ := io.ReadAll(reader)
	reader.Close()
	assert.Equal(t, "v1", string(data))
}

func TestLocalStorageRejectsTraversal(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStorage(base)
	require.NoError(t, err)

	secret := filepath.Join(base, "..", "secret.txt")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0o600))
	defer os.Remove(secret)

	_, err = store.Open(context.Background(), "../secret.txt")
	assert.Error(t, err)
	assert.Error(t, store.Delete(context.Background(), "../secret.txt"))
}

func TestObjectKeyStripsDirectories(t *testing.T) {
	documentID := uuid.New()
	key := objectKey(documentID, 3, "../../etc/passwd")
	assert.Equal(t, fmt.Sprintf("%s/v3_passwd", documentID), key)
}

func TestValidateUpload(t *testing.T) {
	assert.NoError(t, ValidateUpload("report.pdf", 1024))
	assert.NoError(t, ValidateUpload("NOTES.TXT", 1024))

	assert.Error(t, ValidateUpload("report.pdf", 11*1024*1024))
	assert.Error(t, ValidateUpload("tool.exe", 10))
	assert.Error(t, ValidateUpload("Makefile", 10))
}
