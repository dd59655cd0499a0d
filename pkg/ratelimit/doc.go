// Package ratelimit paces listing page requests so the crawler stays polite
// to the target site.
//
// TokenBucket wraps golang.org/x/time/rate and is configured in requests per
// minute with a burst allowance. New returns Unlimited when the configured
// rate is zero, which keeps the crawl's pace governed only by request latency.
//
//	limiter := ratelimit.New(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
//	if err := limiter.Wait(ctx); err != nil {
//	    return err
//	}
package ratelimit
