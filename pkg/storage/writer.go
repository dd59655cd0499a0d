package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/models"
)

var pageFileRe = regexp.MustCompile(`^page_(\d+)\.jsonl$`)

// Writer stores the records of each page as a JSON Lines file
type Writer struct {
	outputDir string
	logger    logger.Logger
}

// NewWriter creates a writer for outputDir, creating the directory if needed
func NewWriter(outputDir string, log logger.Logger) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Writer{outputDir: outputDir, logger: log}, nil
}

// OutputDir returns the output directory path
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// PagePath returns the file path used for page
func (w *Writer) PagePath(page int) string {
	return filepath.Join(w.outputDir, fmt.Sprintf("page_%d.jsonl", page))
}

// Write stores records as page_<page>.jsonl, one JSON object per line.
// Nothing is written for an empty slice. An existing file for the page is replaced.
func (w *Writer) Write(page int, records []models.ListingRecord) (string, bool, error) {
	if len(records) == 0 {
		return "", false, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := enc.Encode(&records[i]); err != nil {
			return "", false, fmt.Errorf("failed to encode record %d of page %d: %w", i, page, err)
		}
	}

	path := w.PagePath(page)
	if err := WriteFileAtomic(path, 0644, func(out io.Writer) error {
		if _, err := out.Write(buf.Bytes()); err != nil {
			return fmt.Errorf("failed to write page data: %w", err)
		}
		return nil
	}); err != nil {
		return "", false, err
	}

	w.logger.DebugWithFields("Page file written", map[string]interface{}{
		"page":    page,
		"records": len(records),
		"path":    path,
	})

	return path, true, nil
}

// ReadPage decodes the records stored for page
func (w *Writer) ReadPage(page int) ([]models.ListingRecord, error) {
	file, err := os.Open(w.PagePath(page))
	if err != nil {
		return nil, fmt.Errorf("failed to open page %d: %w", page, err)
	}
	defer file.Close()

	var records []models.ListingRecord
	dec := json.NewDecoder(file)
	for {
		var rec models.ListingRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to decode record %d of page %d: %w", len(records), page, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Exists reports whether a file for page is present
func (w *Writer) Exists(page int) bool {
	_, err := os.Stat(w.PagePath(page))
	return err == nil
}

// ExistingPages returns the page numbers that have output files, ascending
func (w *Writer) ExistingPages() ([]int, error) {
	entries, err := os.ReadDir(w.outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var pages []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := pageFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, n)
	}
	sort.Ints(pages)
	return pages, nil
}
