package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"listingcrawler/pkg/checkpoint"
	"listingcrawler/pkg/detect"
	errs "listingcrawler/pkg/errors"
	"listingcrawler/pkg/fetcher"
	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/models"
)

// Dependencies are the components a Crawler drives, one call at a time
type Dependencies struct {
	Fetcher  PageFetcher
	Detector Classifier
	Parser   ListingParser
	Writer   PageWriter
	Store    checkpoint.Store
}

// Option configures a Crawler
type Option func(*Crawler)

// WithReporter sets the receiver of per-page outcomes
func WithReporter(r Reporter) Option {
	return func(c *Crawler) {
		if r != nil {
			c.reporter = r
		}
	}
}

// WithNotifier sets who is alerted when a page needs manual verification
func WithNotifier(n VerificationNotifier) Option {
	return func(c *Crawler) {
		c.notifier = n
	}
}

// WithLogger sets the logger
func WithLogger(l logger.Logger) Option {
	return func(c *Crawler) {
		if l != nil {
			c.baseLogger = l
		}
	}
}

// WithSessionID overrides the generated session identifier
func WithSessionID(id string) Option {
	return func(c *Crawler) {
		if id != "" {
			c.status.SessionID = id
		}
	}
}

// Crawler walks a page range sequentially: fetch, classify, parse, write,
// then advance the checkpoint. It pauses on verification walls until an
// operator calls Resume or Skip.
type Crawler struct {
	deps       Dependencies
	reporter   Reporter
	notifier   VerificationNotifier
	baseLogger logger.Logger
	logger     logger.Logger

	mu           sync.Mutex
	status       Status
	decisions    chan Decision
	decisionSent bool
}

// New creates a Crawler over deps
func New(deps Dependencies, opts ...Option) (*Crawler, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, errors.New("crawler: fetcher is required")
	case deps.Detector == nil:
		return nil, errors.New("crawler: detector is required")
	case deps.Parser == nil:
		return nil, errors.New("crawler: parser is required")
	case deps.Writer == nil:
		return nil, errors.New("crawler: writer is required")
	case deps.Store == nil:
		return nil, errors.New("crawler: checkpoint store is required")
	}

	c := &Crawler{
		deps:       deps,
		reporter:   nopReporter{},
		baseLogger: logger.GetLogger(),
		decisions:  make(chan Decision, 1),
		status: Status{
			SessionID: uuid.New().String(),
			State:     StateIdle,
			UpdatedAt: time.Now(),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.baseLogger.WithFields(map[string]interface{}{
		"component":  "crawler",
		"session_id": c.status.SessionID,
	})

	if page, ok, err := deps.Store.Load(); err == nil && ok {
		c.status.Checkpoint, c.status.HasCheckpoint = page, true
	}

	return c, nil
}

// Status returns a snapshot of the session
func (c *Crawler) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Resume re-fetches the page that triggered the current verification pause
func (c *Crawler) Resume() error {
	return c.decide(DecisionResume)
}

// Skip abandons the page that triggered the current verification pause
func (c *Crawler) Skip() error {
	return c.decide(DecisionSkip)
}

func (c *Crawler) decide(d Decision) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status.State != StatePausedForVerification || c.decisionSent {
		return ErrNotPaused
	}
	c.decisionSent = true
	c.decisions <- d

	c.logger.InfoWithFields("Verification decision received", map[string]interface{}{
		"decision": d.String(),
		"page":     c.status.CurrentPage,
	})
	return nil
}

// Run crawls pages start through end inclusive. It returns nil when the
// range is finished, a wrapped context error when cancelled, and an error
// when output or checkpoint I/O fails. A start beyond end completes at once.
// A Crawler runs once.
func (c *Crawler) Run(ctx context.Context, start, end int) error {
	c.mu.Lock()
	if c.status.State != StateIdle {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.status.State = StateRunning
	c.status.StartPage, c.status.EndPage = start, end
	c.status.StartedAt = time.Now()
	c.status.UpdatedAt = c.status.StartedAt
	c.mu.Unlock()

	logger.LogComponentStart(c.logger, "crawl", map[string]interface{}{
		"start_page": start,
		"end_page":   end,
	})

	for page := start; page <= end; page++ {
		if err := ctx.Err(); err != nil {
			return c.abort(page, err)
		}

		if err := c.processPage(ctx, page); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
				return c.abort(page, err)
			}
			c.finish(StateAborted, err)
			logger.LogComponentStop(c.logger, "crawl", "fatal error")
			return err
		}
	}

	c.finish(StateCompleted, nil)
	logger.LogComponentStop(c.logger, "crawl", "completed")
	return nil
}

func (c *Crawler) abort(page int, err error) error {
	c.finish(StateAborted, err)
	logger.LogComponentStop(c.logger, "crawl", "cancelled")
	return fmt.Errorf("crawl aborted at page %d: %w", page, err)
}

func (c *Crawler) finish(state State, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.State = state
	c.status.BlockingURL = ""
	if err != nil {
		c.status.LastError = err.Error()
	}
	c.status.UpdatedAt = time.Now()
}

// processPage handles one page, looping while the operator resumes after verification
func (c *Crawler) processPage(ctx context.Context, page int) error {
	url := c.deps.Fetcher.PageURL(page)
	log := c.logger.WithFields(map[string]interface{}{"page": page, "url": url})

	for {
		c.update(func(s *Status) { s.CurrentPage = page })
		c.reporter.PageStarted(page, url)

		raw, err := c.deps.Fetcher.Fetch(ctx, page)
		verdict := detect.Normal
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Walls are also served with error statuses
			if wall := fetcher.ErrorPage(err); wall != nil {
				verdict = c.deps.Detector.Classify(wall.Doc)
			}
			if verdict != detect.InterceptionRequired {
				log.WithError(err).Warn("Page fetch failed, skipping page")
				c.update(func(s *Status) {
					s.PagesSkipped++
					s.LastError = err.Error()
				})
				c.reporter.PageFinished(models.PageResult{Page: page, URL: url, Outcome: models.OutcomeSkipped, Err: err})
				return nil
			}
			log.WithError(err).Warn("Verification wall served with error status")
		} else {
			verdict = c.deps.Detector.Classify(raw.Doc)
		}

		if verdict == detect.InterceptionRequired {
			if err := c.saveCheckpoint(page - 1); err != nil {
				return err
			}
			c.update(func(s *Status) { s.Interceptions++ })
			c.reporter.PageFinished(models.PageResult{Page: page, URL: url, Outcome: models.OutcomeIntercepted})

			decision, err := c.awaitDecision(ctx, page, url)
			if err != nil {
				return err
			}
			if decision == DecisionSkip {
				log.Warn("Page skipped after verification pause")
				c.update(func(s *Status) { s.PagesSkipped++ })
				c.reporter.PageFinished(models.PageResult{Page: page, URL: url, Outcome: models.OutcomeSkipped})
				return nil
			}
			log.Info("Retrying page after verification")
			continue
		}

		records := c.deps.Parser.Parse(raw.Doc)

		path, written, err := c.deps.Writer.Write(page, records)
		if err != nil {
			return errs.New(errs.ErrorTypeIO, err, "write page %d: %v", page, err)
		}

		result := models.PageResult{Page: page, URL: url, Records: len(records), Path: path, Outcome: models.OutcomeWritten}
		if !written {
			result.Outcome = models.OutcomeEmpty
			log.Warn("No listings found on page, it may be empty or use a different layout")
		}

		if err := c.saveCheckpoint(page); err != nil {
			return err
		}

		c.update(func(s *Status) {
			if written {
				s.PagesWritten++
			} else {
				s.PagesEmpty++
			}
			s.Records += len(records)
		})
		log.InfoWithFields("Page processed", map[string]interface{}{
			"records": len(records),
			"path":    path,
		})
		c.reporter.PageFinished(result)
		return nil
	}
}

func (c *Crawler) saveCheckpoint(page int) error {
	if err := c.deps.Store.Save(page); err != nil {
		return errs.New(errs.ErrorTypeIO, err, "save checkpoint %d: %v", page, err)
	}
	c.update(func(s *Status) {
		s.Checkpoint, s.HasCheckpoint = page, true
	})
	return nil
}

func (c *Crawler) awaitDecision(ctx context.Context, page int, url string) (Decision, error) {
	c.mu.Lock()
	c.status.State = StatePausedForVerification
	c.status.BlockingURL = url
	c.status.UpdatedAt = time.Now()
	c.decisionSent = false
	c.mu.Unlock()

	c.logger.WarnWithFields("Verification required, crawl paused", map[string]interface{}{
		"page": page,
		"url":  url,
	})
	if c.notifier != nil {
		c.notifier.NotifyVerification(page, url)
	}

	select {
	case d := <-c.decisions:
		c.update(func(s *Status) {
			s.State = StateRunning
			s.BlockingURL = ""
		})
		return d, nil
	case <-ctx.Done():
		return DecisionSkip, ctx.Err()
	}
}

func (c *Crawler) update(fn func(*Status)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.status)
	c.status.UpdatedAt = time.Now()
}
