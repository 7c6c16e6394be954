package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderUploadAndDelete(t *testing.T) {
	provider, err := NewLocalProvider(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	stored, err := provider.Upload(context.Background(), []byte("image-bytes"), "members/photos", "photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, ".jpg", filepath.Ext(stored.PublicID))
	assert.Contains(t, stored.URL, "http://localhost:8080/uploads/")

	data, err := os.ReadFile(provider.Path(stored.PublicID))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(data))

	require.NoError(t, provider.Delete(context.Background(), stored.PublicID))
	_, err = os.Stat(provider.Path(stored.PublicID))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalProviderDeleteMissingIsQuiet(t *testing.T) {
	provider, err := NewLocalProvider(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	assert.NoError(t, provider.Delete(context.Background(), "members/photos/gone.jpg"))
}

func TestLocalProviderCleanupSkipsReferencedFiles(t *testing.T) {
	provider, err := NewLocalProvider(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	kept, err := provider.Upload(context.Background(), []byte("keep"), "members/photos", "keep.jpg")
	require.NoError(t, err)
	orphan, err := provider.Upload(context.Background(), []byte("orphan"), "members/photos", "orphan.jpg")
	require.NoError(t, err)

	// age both files past the TTL
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(provider.Path(kept.PublicID), old, old))
	require.NoError(t, os.Chtimes(provider.Path(orphan.PublicID), old, old))

	deleted, err := provider.CleanupOlderThan(time.Hour, func(publicID string) bool {
		return publicID == kept.PublicID
	})
	require.NoError(t, err)
	assert.Equal(t, []string{orphan.PublicID}, deleted)

	_, err = os.Stat(provider.Path(kept.PublicID))
	assert.NoError(t, err)
	_, err = os.Stat(provider.Path(orphan.PublicID))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalProviderCleanupIgnoresFreshFiles(t *testing.T) {
	provider, err := NewLocalProvider(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	_, err = provider.Upload(context.Background(), []byte("fresh"), "members/photos", "fresh.jpg")
	require.NoError(t, err)

	deleted, err := provider.CleanupOlderThan(time.Hour, nil)
	require.NoError(t, err)
	assert.Empty(t, deleted)
}
