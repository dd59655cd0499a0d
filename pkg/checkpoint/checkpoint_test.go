package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"listingcrawler/pkg/logger"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "state", "crawl_progress.txt"), logger.NewNopLogger())
}

func TestFileStoreLoadMissing(t *testing.T) {
	page, ok, err := newFileStore(t).Load()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, page)
}

func TestFileStoreSaveAndLoad(t *testing.T) {
	store := newFileStore(t)

	require.NoError(t, store.Save(6))
	page, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 6, page)

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "6", string(data))

	// Last writer wins, including moving backwards after an interception
	require.NoError(t, store.Save(41))
	require.NoError(t, store.Save(11))
	page, _, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, 11, page)

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestFileStoreLoadTrimsWhitespace(t *testing.T) {
	store := newFileStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("  17\n"), 0644))

	page, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 17, page)
}

func TestFileStoreLoadCorrupt(t *testing.T) {
	for _, content := range []string{"", "abc", "-3", "12.5"} {
		store := newFileStore(t)
		require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0755))
		require.NoError(t, os.WriteFile(store.Path(), []byte(content), 0644))

		_, ok, err := store.Load()
		assert.False(t, ok, content)
		assert.True(t, errors.Is(err, ErrCorrupt), "content %q: %v", content, err)
	}
}

func TestFileStoreClear(t *testing.T) {
	store := newFileStore(t)
	require.NoError(t, store.Clear(), "clearing a missing checkpoint is not an error")

	require.NoError(t, store.Save(3))
	require.NoError(t, store.Clear())

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreInfo(t *testing.T) {
	store := newFileStore(t)

	_, ok, err := store.Info()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(9))
	info, ok, err := store.Info()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 9, info.Page)
	assert.Equal(t, store.Path(), info.Path)
	assert.False(t, info.UpdatedAt.IsZero())
}

func TestFileStoreRejectsNegative(t *testing.T) {
	assert.Error(t, newFileStore(t).Save(-1))
}

func TestMemoryStore(t *testing.T) {
	var store Store = NewMemoryStore()

	_, ok, _ := store.Load()
	assert.False(t, ok)

	require.NoError(t, store.Save(4))
	require.NoError(t, store.Save(5))
	page, ok, _ := store.Load()
	assert.True(t, ok)
	assert.Equal(t, 5, page)
	assert.Equal(t, []int{4, 5}, store.(*MemoryStore).Saves())

	require.NoError(t, store.Clear())
	_, ok, _ = store.Load()
	assert.False(t, ok)

	page, ok, _ = NewMemoryStoreAt(12).Load()
	assert.True(t, ok)
	assert.Equal(t, 12, page)
}
