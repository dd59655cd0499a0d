// Package storage writes crawled listing pages to disk.
//
// Each page with at least one record becomes page_<N>.jsonl in the output
// directory: one JSON object per line, UTF-8, with Vietnamese text and HTML
// characters written literally. Files are written to a temporary name, synced
// and renamed, so a reader sees either no file or the complete page.
//
// Usage:
//
//	w, err := storage.NewWriter("data/alonhadat/json", log)
//	if err != nil {
//	    return err
//	}
//	path, written, err := w.Write(12, records)
package storage
