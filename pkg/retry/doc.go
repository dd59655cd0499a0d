// Package retry provides exponential backoff and retry logic for transient
// failures when fetching listing pages.
//
// Basic usage:
//
//	cfg := &retry.Config{
//		MaxAttempts: 3,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:  5 * time.Second,
//			Multiplier: 2.0,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Context: ctx,
//		Logger:  logger.GetLogger(),
//	}
//	body, err := retry.DoWithResult(func() ([]byte, error) {
//		return fetchOnce(ctx, url)
//	}, cfg)
//
// MaxAttempts counts every attempt, so three attempts wait twice: BaseDelay,
// then 2*BaseDelay. Typed errors from pkg/errors decide retryability: network,
// rate limit and server errors retry, client errors fail immediately. Context
// cancellation interrupts the wait and is never retried.
package retry
