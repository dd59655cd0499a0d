package merge

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"listingcrawler/pkg/logger"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func readCSV(t *testing.T, path string) (string, [][]string) {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	raw := string(data)
	require.True(t, strings.HasPrefix(raw, utf8BOM), "missing byte order mark")
	rows, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return raw, rows
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page_10.jsonl", `{"title":"Nhà C","url":"https://x/c","price":"5 tỷ"}`+"\n")
	writeFile(t, dir, "page_2.jsonl",
		`{"title":"Nhà A, mặt phố","url":"https://x/a","area":"50 m2"}`+"\n"+
			"\n"+
			"// comment line\n"+
			`{"title":"Nhà B","url":"https://x/b","floors":3,"car_parking":true}`+"\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.jsonl"), 0755))

	log := logger.NewTestLogger()
	out := filepath.Join(t.TempDir(), "raw", "merged.csv")
	res, err := Merge(dir, out, log)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Equal(t, 3, res.Records)
	assert.Equal(t, 0, res.Invalid)
	assert.Equal(t, []string{"area", "car_parking", "floors", "price", "title", "url"}, res.Columns)

	_, rows := readCSV(t, out)
	require.Len(t, rows, 4)
	assert.Equal(t, res.Columns, rows[0])
	assert.Equal(t, []string{"50 m2", "", "", "", "Nhà A, mặt phố", "https://x/a"}, rows[1])
	assert.Equal(t, []string{"", "true", "3", "", "Nhà B", "https://x/b"}, rows[2])
	assert.Equal(t, []string{"", "", "", "5 tỷ", "Nhà C", "https://x/c"}, rows[3], "page 10 sorts after page 2")

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
	assert.True(t, log.HasMessage("Merged page files"))
}

func TestMergeSkipsInvalidLines(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page_3.jsonl", "{broken\n"+`{"title":"ok"}`+"\n"+`["not","an","object"]`+"\n")

	log := logger.NewTestLogger()
	out := filepath.Join(dir, "merged.csv")
	res, err := Merge(dir, out, log)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Records)
	assert.Equal(t, 2, res.Invalid)
	warnings := log.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 2)
	assert.Equal(t, 1, warnings[0].Fields["line"])
	assert.Equal(t, 3, warnings[1].Fields["line"])
}

func TestMergeQuotesFields(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page_1.jsonl", `{"description":"Nhà \"đẹp\", sổ đỏ\nchính chủ"}`+"\n")

	out := filepath.Join(dir, "merged.csv")
	_, err := Merge(dir, out, logger.NewNopLogger())
	require.NoError(t, err)

	raw, rows := readCSV(t, out)
	assert.Contains(t, raw, `"Nhà ""đẹp"", sổ đỏ`)
	assert.Equal(t, "Nhà \"đẹp\", sổ đỏ\nchính chủ", rows[1][0])
}

func TestMergeErrors(t *testing.T) {
	empty := t.TempDir()
	_, err := Merge(empty, filepath.Join(empty, "out.csv"), logger.NewNopLogger())
	assert.ErrorIs(t, err, ErrNoInput)

	onlyComments := t.TempDir()
	writeFile(t, onlyComments, "page_1.jsonl", "// nothing\n\n")
	_, err = Merge(onlyComments, filepath.Join(onlyComments, "out.csv"), logger.NewNopLogger())
	assert.ErrorIs(t, err, ErrNoRecords)
	_, statErr := os.Stat(filepath.Join(onlyComments, "out.csv"))
	assert.True(t, os.IsNotExist(statErr))

	_, err = Merge(filepath.Join(empty, "missing"), "out.csv", logger.NewNopLogger())
	assert.Error(t, err)
}

func TestMergeRejectsTrailingData(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page_2.jsonl",
		`{"title":"ok"}`+"\n"+
			`{"title":"a"} {"title":"b"}`+"\n"+
			`{"title":"c"} junk`+"\n"+
			`{"title":"d"}]`+"\n"+
			`{"title":"e"}   `+"\n")

	log := logger.NewTestLogger()
	res, err := Merge(dir, filepath.Join(dir, "merged.csv"), log)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Records)
	assert.Equal(t, 3, res.Invalid)
	warnings := log.GetMessagesByLevel("WARN")
	require.Len(t, warnings, 3)
	assert.Equal(t, 2, warnings[0].Fields["line"])
	assert.Equal(t, 4, warnings[2].Fields["line"])
}

func TestMergeSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page_2.jsonl", `{"title":"A"}`+"\n")
	writeFile(t, dir, "page_5.jsonl", `{"title":"B"}`+"\n")
	broken := filepath.Join(dir, "page_3.jsonl")
	if err := os.Symlink(filepath.Join(dir, "missing-target"), broken); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	log := logger.NewTestLogger()
	res, err := Merge(dir, filepath.Join(t.TempDir(), "merged.csv"), log)
	require.NoError(t, err)

	assert.Equal(t, 3, res.Files)
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, []string{broken}, res.Unreadable)
	assert.True(t, log.HasMessage("Error reading file"))

	_, rows := readCSV(t, res.Path)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"A"}, rows[1])
	assert.Equal(t, []string{"B"}, rows[2])
}
