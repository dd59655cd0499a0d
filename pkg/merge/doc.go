// Package merge combines per-page JSONL output into a single CSV dataset.
package merge
