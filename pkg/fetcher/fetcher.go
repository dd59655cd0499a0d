package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"listingcrawler/pkg/config"
	errs "listingcrawler/pkg/errors"
	"listingcrawler/pkg/logger"
	"listingcrawler/pkg/ratelimit"
	"listingcrawler/pkg/retry"
)

// PagePlaceholder is replaced by the page number in the URL template
const PagePlaceholder = "{page}"

// maxErrorBody caps how much of a non-2xx body is kept for inspection
const maxErrorBody = 4 << 20

// RawPage is a successfully fetched index page
type RawPage struct {
	Page       int
	URL        string
	StatusCode int
	Body       []byte
	Doc        *goquery.Document
	Attempts   int
}

// StatusError is returned for a non-2xx response. Page carries the parsed
// body when there was one, since verification walls are often served with
// 403, 429 or 503.
type StatusError struct {
	Page *RawPage
	Err  *errs.Error
}

func (e *StatusError) Error() string {
	return e.Err.Error()
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// ErrorPage returns the parsed body of a non-2xx response found in err's chain, or nil
func ErrorPage(err error) *RawPage {
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Page != nil && statusErr.Page.Doc != nil {
		return statusErr.Page
	}
	return nil
}

// Options configures a Fetcher
type Options struct {
	URLTemplate string
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     retry.BackoffStrategy
	Limiter     ratelimit.Limiter
	HTTPClient  *http.Client
	Logger      logger.Logger
	// OnRetry is called before each backoff wait
	OnRetry func(page, attempt int, err error, delay time.Duration)
	// StopRetry reports whether a non-2xx body is final and must not be
	// retried, as for a verification wall
	StopRetry func(doc *goquery.Document) bool
}

// OptionsFromConfig builds fetcher options from the crawler configuration
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URLTemplate: cfg.Site.PageURLTemplate,
		UserAgent:   cfg.Site.UserAgent,
		Timeout:     cfg.Crawl.RequestTimeout,
		MaxAttempts: cfg.Retry.MaxAttempts,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    cfg.Retry.BaseDelay,
			MaxDelay:     cfg.Retry.MaxDelay,
			Multiplier:   cfg.Retry.Multiplier,
			JitterFactor: cfg.Retry.JitterFactor,
		},
		Limiter: ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst),
	}
}

// Fetcher downloads listing index pages one at a time
type Fetcher struct {
	httpClient  *http.Client
	headers     map[string]string
	urlTemplate string
	maxAttempts int
	backoff     retry.BackoffStrategy
	limiter     ratelimit.Limiter
	onRetry     func(page, attempt int, err error, delay time.Duration)
	stopRetry   func(doc *goquery.Document) bool
	logger      logger.Logger
}

// New creates a Fetcher, filling unset options with defaults
func New(opts Options) *Fetcher {
	if opts.Logger == nil {
		opts.Logger = logger.GetLogger()
	}
	if opts.URLTemplate == "" {
		opts.URLTemplate = config.DefaultPageURLTemplate
	}
	if opts.UserAgent == "" {
		opts.UserAgent = config.DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.Backoff == nil {
		opts.Backoff = retry.DefaultExponentialBackoff()
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.Unlimited{}
	}
	// Copy so the caller's client, possibly http.DefaultClient, keeps its timeout
	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		httpClient = &c
	}
	httpClient.Timeout = opts.Timeout

	return &Fetcher{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":      opts.UserAgent,
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
			"Accept-Language": "vi-VN,vi;q=0.9,en;q=0.8",
		},
		urlTemplate: opts.URLTemplate,
		maxAttempts: opts.MaxAttempts,
		backoff:     opts.Backoff,
		limiter:     opts.Limiter,
		onRetry:     opts.OnRetry,
		stopRetry:   opts.StopRetry,
		logger:      opts.Logger.WithField("component", "fetcher"),
	}
}

// PageURL returns the index URL for page
func (f *Fetcher) PageURL(page int) string {
	return strings.ReplaceAll(f.urlTemplate, PagePlaceholder, strconv.Itoa(page))
}

// Fetch downloads and parses page, retrying transient failures with
// exponential backoff. Client errors other than 408 and 429 fail at once.
// A non-2xx failure wraps a *StatusError; see ErrorPage.
func (f *Fetcher) Fetch(ctx context.Context, page int) (*RawPage, error) {
	url := f.PageURL(page)
	attempts := 0

	raw, err := retry.DoWithResult(func() (*RawPage, error) {
		attempts++
		return f.fetchOnce(ctx, page, url)
	}, &retry.Config{
		MaxAttempts: f.maxAttempts,
		Backoff:     f.backoff,
		RetryIf: func(err error) bool {
			if ctx.Err() != nil {
				return false
			}
			if raw := ErrorPage(err); raw != nil && f.stopRetry != nil && f.stopRetry(raw.Doc) {
				return false
			}
			return errs.IsRetryable(errs.TypeOf(err))
		},
		OnRetry: func(attempt int, err error, delay time.Duration) {
			if f.onRetry != nil {
				f.onRetry(page, attempt, err, delay)
			}
		},
		Context: ctx,
		Logger:  f.logger.WithField("page", page),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, ctxErr)
		}
		return nil, fmt.Errorf("fetch page %d after %d attempt(s): %w", page, attempts, err)
	}
	raw.Attempts = attempts
	return raw, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, page int, url string) (*RawPage, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.New(errs.ErrorTypeRateLimit, err, "rate limiter: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, err, "failed to create request: %v", err)
	}
	for key, value := range f.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		f.logger.WarnWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": time.Since(start),
		})
		return nil, errs.New(errs.ErrorTypeNetwork, err, "GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	logger.LogRequest(f.logger, req.Method, url, resp.StatusCode, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, f.statusError(page, url, resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.New(errs.ErrorTypeNetwork, err, "read body of %s: %v", url, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errs.New(errs.ErrorTypeParsing, err, "parse HTML of %s: %v", url, err)
	}

	return &RawPage{
		Page:       page,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       body,
		Doc:        doc,
	}, nil
}

// statusError keeps the body of a non-2xx response so the caller can
// classify it. A body that cannot be read or parsed is dropped.
func (f *Fetcher) statusError(page int, url string, resp *http.Response) error {
	statusErr := &StatusError{Err: errs.FromStatusCode(resp.StatusCode)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_, _ = io.Copy(io.Discard, resp.Body)
	if err != nil || len(bytes.TrimSpace(body)) == 0 {
		return statusErr
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return statusErr
	}
	statusErr.Page = &RawPage{
		Page:       page,
		URL:        url,
		StatusCode: resp.StatusCode,
		Body:       body,
		Doc:        doc,
	}
	return statusErr
}
