package crawler

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"listingcrawler/pkg/checkpoint"
	"listingcrawler/pkg/config"
	"listingcrawler/pkg/detect"
	"listingcrawler/pkg/fetcher"
	"listingcrawler/pkg/listing"
	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/storage"
)

// NewFromConfig wires the HTTP fetcher, detector, parser and JSONL writer
// described by cfg around store.
func NewFromConfig(cfg *config.Config, store checkpoint.Store, log logger.Logger, opts ...Option) (*Crawler, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	detector := detect.New(cfg.Site.Sentinels...)

	fetchOpts := fetcher.OptionsFromConfig(cfg)
	fetchOpts.Logger = log
	fetchOpts.StopRetry = func(doc *goquery.Document) bool {
		return detector.Classify(doc) == detect.InterceptionRequired
	}
	f := fetcher.New(fetchOpts)

	parser, err := listing.NewParser(cfg.Site.BaseURL, listing.WithLogger(log.WithField("component", "parser")))
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	writer, err := storage.NewWriter(cfg.Output.Directory, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create page writer: %w", err)
	}

	deps := Dependencies{
		Fetcher:  f,
		Detector: detector,
		Parser:   parser,
		Writer:   writer,
		Store:    store,
	}
	return New(deps, append([]Option{WithLogger(log)}, opts...)...)
}

// ResolveStart returns the first page to crawl. With resume set and a
// checkpoint present it is the page after the checkpoint; otherwise requested.
func ResolveStart(store checkpoint.Store, requested int, resume bool) (start int, resumed bool, err error) {
	if !resume {
		return requested, false, nil
	}
	last, ok, err := store.Load()
	if err != nil {
		return 0, false, fmt.Errorf("failed to load checkpoint: %w", err)
	}
	if !ok {
		return requested, false, nil
	}
	return last + 1, true, nil
}
