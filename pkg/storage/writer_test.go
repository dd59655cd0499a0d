package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/models"
)

func newWriter(t *testing.T) *Writer {
	t.Helper()
	w, err := NewWriter(filepath.Join(t.TempDir(), "json"), logger.NewNopLogger())
	require.NoError(t, err)
	return w
}

func sampleRecords() []models.ListingRecord {
	return []models.ListingRecord{
		{
			Title:       "Bán nhà <mặt phố> & kinh doanh",
			URL:         "https://alonhadat.com.vn/ban-nha-1.html",
			Price:       "12 tỷ",
			Description: "Hướng: Nam, KT: 4x15",
			Orientation: "Nam",
			Dimension:   "4x15",
		},
		{
			Title: "Bán đất Sóc Sơn",
			URL:   "https://alonhadat.com.vn/ban-dat-2.html",
		},
	}
}

func TestWriteEmptyIsNoop(t *testing.T) {
	w := newWriter(t)

	path, written, err := w.Write(3, nil)
	require.NoError(t, err)
	assert.False(t, written)
	assert.Empty(t, path)
	assert.False(t, w.Exists(3))

	entries, err := os.ReadDir(w.OutputDir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWriteAndReadPage(t *testing.T) {
	w := newWriter(t)
	records := sampleRecords()

	path, written, err := w.Write(12, records)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Equal(t, filepath.Join(w.OutputDir(), "page_12.jsonl"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	// Non-ASCII and HTML characters are written literally with every key present in order
	assert.True(t, strings.HasPrefix(lines[0], `{"title":"Bán nhà <mặt phố> & kinh doanh","url":`), lines[0])
	assert.Contains(t, lines[1], `"price":"","floors":"","bedrooms":"","address":"","road_width":"","car_parking":"","description":"","orientation":"","dimension":""}`)

	got, err := w.ReadPage(12)
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestWriteReplacesExistingPage(t *testing.T) {
	w := newWriter(t)
	records := sampleRecords()

	_, _, err := w.Write(5, records)
	require.NoError(t, err)
	_, _, err = w.Write(5, records[:1])
	require.NoError(t, err)

	got, err := w.ReadPage(5)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	entries, err := os.ReadDir(w.OutputDir())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestReadPageMissing(t *testing.T) {
	_, err := newWriter(t).ReadPage(99)
	assert.Error(t, err)
}

func TestExistingPages(t *testing.T) {
	w := newWriter(t)
	for _, p := range []int{10, 2, 7} {
		_, _, err := w.Write(p, sampleRecords())
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(w.OutputDir(), "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(w.OutputDir(), "page_x.jsonl"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(w.OutputDir(), "page_4.jsonl"), 0755))

	pages, err := w.ExistingPages()
	require.NoError(t, err)
	assert.Equal(t, []int{2, 7, 10}, pages)
}
