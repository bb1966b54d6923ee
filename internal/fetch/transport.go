package fetch

import (
	"net/http"
	"time"

	"github.com/PuerkitoBio/rehttp"
)

// RetryConfig configures the shared retry policy used by both discoverers
// and the fetcher (spec §9 "ad-hoc retries ... consolidate into a single
// policy object").
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// NewRetryTransport wraps base in an exponential-backoff retry transport
// that retries on connection failures and on {429,500,502,503,504}, honoring
// a Retry-After header on 429 responses. GET/HEAD only, matching the
// fetcher's contract.
func NewRetryTransport(base http.RoundTripper, cfg RetryConfig) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	retryFn := rehttp.RetryAll(
		rehttp.RetryMaxRetries(cfg.MaxAttempts),
		rehttp.RetryHTTPMethods(http.MethodGet, http.MethodHead),
		rehttp.RetryAny(
			rehttp.RetryTemporaryErr(),
			rehttp.RetryStatuses(
				http.StatusTooManyRequests,
				http.StatusInternalServerError,
				http.StatusBadGateway,
				http.StatusServiceUnavailable,
				http.StatusGatewayTimeout,
			),
		),
	)

	delayFn := rehttp.ExpJitterDelay(cfg.BaseDelay, cfg.MaxDelay)

	return rehttp.NewTransport(base, retryFn, retryAfterAwareDelay(delayFn))
}

// retryAfterAwareDelay honors a Retry-After header on 429 responses (spec
// §4.3/§7: "honor the Retry-After header if present, else exponential
// backoff"), falling back to the wrapped delay function otherwise.
func retryAfterAwareDelay(fallback rehttp.DelayFn) rehttp.DelayFn {
	return func(attempt rehttp.Attempt) time.Duration {
		if attempt.Response != nil && attempt.Response.StatusCode == http.StatusTooManyRequests {
			if d, ok := parseRetryAfter(attempt.Response.Header.Get("Retry-After")); ok {
				return d
			}
		}
		return fallback(attempt)
	}
}

func parseRetryAfter(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if secs, err := time.ParseDuration(v + "s"); err == nil {
		return secs, true
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}
