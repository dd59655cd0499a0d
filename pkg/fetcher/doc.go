// Package fetcher downloads alonhadat.com.vn index pages.
//
// A Fetcher issues one GET per attempt with a fixed browser identity and a
// per-request timeout, waits on the politeness limiter before each attempt,
// and retries network failures, 408, 429 and 5xx responses with exponential
// backoff. The returned RawPage carries the body and its parsed document.
package fetcher
