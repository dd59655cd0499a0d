package merge

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/storage"
)

// utf8BOM lets spreadsheet tools detect the encoding of Vietnamese text
const utf8BOM = "\uFEFF"

const maxLineSize = 16 << 20

var (
	// ErrNoInput is returned when the directory holds no .jsonl files
	ErrNoInput = errors.New("no .jsonl files found")
	// ErrNoRecords is returned when no file yields a valid record
	ErrNoRecords = errors.New("no records to write")
)

var pageFilePattern = regexp.MustCompile(`^page_(\d+)\.jsonl$`)

// Result summarizes a merge
type Result struct {
	Path    string
	Files   int
	Records int
	Invalid int
	Columns []string
	// Unreadable lists files skipped because they could not be read
	Unreadable []string
}

// Merge reads every .jsonl file in dir and writes one CSV to out. Blank lines
// and lines starting with "//" are ignored; invalid JSON lines and unreadable
// files are skipped with a warning. The header is the sorted union of all record keys; missing
// values are empty. The file starts with a UTF-8 byte order mark.
func Merge(dir, out string, log logger.Logger) (*Result, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	files, err := inputFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoInput, dir)
	}

	result := &Result{Path: out, Files: len(files)}
	var records []map[string]interface{}
	for _, path := range files {
		log.DebugWithFields("Processing file", map[string]interface{}{"file": path})
		recs, invalid, err := readFile(path, log)
		if err != nil {
			log.WithError(err).WarnWithFields("Error reading file, skipping it", map[string]interface{}{"file": path})
			result.Unreadable = append(result.Unreadable, path)
			continue
		}
		records = append(records, recs...)
		result.Invalid += invalid
	}
	if len(records) == 0 {
		return nil, ErrNoRecords
	}

	result.Columns = columns(records)
	result.Records = len(records)

	if err := writeCSV(out, result.Columns, records); err != nil {
		return nil, err
	}

	log.InfoWithFields("Merged page files", map[string]interface{}{
		"files":   result.Files,
		"records": result.Records,
		"invalid": result.Invalid,
		"output":  out,
	})
	return result, nil
}

// inputFiles lists .jsonl files with page files in numeric page order first
func inputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	type file struct {
		name string
		page int
	}
	var files []file
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		f := file{name: e.Name(), page: -1}
		if m := pageFilePattern.FindStringSubmatch(e.Name()); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				f.page = n
			}
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		a, b := files[i], files[j]
		if (a.page >= 0) != (b.page >= 0) {
			return a.page >= 0
		}
		if a.page != b.page {
			return a.page < b.page
		}
		return a.name < b.name
	})

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = filepath.Join(dir, f.name)
	}
	return paths, nil
}

func readFile(path string, log logger.Logger) ([]map[string]interface{}, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var records []map[string]interface{}
	invalid := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		dec := json.NewDecoder(strings.NewReader(line))
		dec.UseNumber()
		var rec map[string]interface{}
		err := dec.Decode(&rec)
		if err == nil {
			var extra json.RawMessage
			if dec.Decode(&extra) != io.EOF {
				err = fmt.Errorf("unexpected data after JSON object at offset %d", dec.InputOffset())
			}
		}
		if err != nil || rec == nil {
			invalid++
			log.WarnWithFields("Skipping invalid JSON line", map[string]interface{}{
				"file":  path,
				"line":  lineNo,
				"error": fmt.Sprint(err),
			})
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return records, invalid, nil
}

func columns(records []map[string]interface{}) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		for k := range rec {
			seen[k] = struct{}{}
		}
	}
	cols := make([]string, 0, len(seen))
	for k := range seen {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

func writeCSV(out string, cols []string, records []map[string]interface{}) error {
	return storage.WriteFileAtomic(out, 0644, func(f io.Writer) error {
		bw := bufio.NewWriter(f)
		if _, err := bw.WriteString(utf8BOM); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}

		w := csv.NewWriter(bw)
		w.UseCRLF = true
		if err := w.Write(cols); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		row := make([]string, len(cols))
		for _, rec := range records {
			for i, col := range cols {
				row[i] = formatValue(rec[col])
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		return nil
	})
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}
