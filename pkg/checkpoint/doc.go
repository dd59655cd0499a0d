// Package checkpoint records crawl progress so an interrupted crawl can resume.
//
// The checkpoint is a single integer: the highest page whose output has been
// fully written. FileStore keeps it as decimal text (crawl_progress.txt by
// default), written to a temporary file, synced and renamed over the target,
// so a crash never leaves a half-written value. MemoryStore serves tests and
// embedders that keep progress elsewhere.
package checkpoint
