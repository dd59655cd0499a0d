package crawler

import (
	"context"

	"github.com/PuerkitoBio/goquery"
	"listingcrawler/pkg/detect"
	"listingcrawler/pkg/fetcher"
	"listingcrawler/pkg/models"
)

// PageFetcher downloads one index page
type PageFetcher interface {
	Fetch(ctx context.Context, page int) (*fetcher.RawPage, error)
	PageURL(page int) string
}

// Classifier recognizes verification walls
type Classifier interface {
	Classify(doc *goquery.Document) detect.Verdict
}

// ListingParser extracts records from a fetched page
type ListingParser interface {
	Parse(doc *goquery.Document) []models.ListingRecord
}

// PageWriter persists the records of one page
type PageWriter interface {
	Write(page int, records []models.ListingRecord) (path string, written bool, err error)
}

// Reporter receives per-page progress for operator output
type Reporter interface {
	PageStarted(page int, url string)
	PageFinished(result models.PageResult)
}

// VerificationNotifier alerts the operator that a page needs manual verification
type VerificationNotifier interface {
	NotifyVerification(page int, url string)
}

type nopReporter struct{}

func (nopReporter) PageStarted(int, string)        {}
func (nopReporter) PageFinished(models.PageResult) {}
