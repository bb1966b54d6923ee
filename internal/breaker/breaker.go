// Package breaker wraps an http.RoundTripper with a sony/gobreaker circuit
// breaker, opening after a run of failed requests to an external API so a
// sick News-API or Video-API endpoint doesn't stall every worker behind
// retries that will never succeed (spec DOMAIN STACK: "circuit breaker
// around the News-API and Video-API HTTP clients").
package breaker

import (
	"fmt"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kdevcrawl/corpuscrawler/internal/logger"
)

// Transport wraps http.RoundTripper with a named circuit breaker. It
// treats a non-nil transport error, or a 5xx/429 response, as a failure;
// any other status is a success even if the caller goes on to treat it as
// an application-level error.
type Transport struct {
	next    http.RoundTripper
	breaker *gobreaker.CircuitBreaker
}

// New builds a Transport around next (http.DefaultTransport if nil),
// opening after 5 consecutive failures and probing again after a minute.
func New(name string, next http.RoundTripper, log logger.Interface) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	if log == nil {
		log = logger.NewNoOp()
	}
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(breakerName string, from, to gobreaker.State) {
			log.Warn("circuit breaker state change", "breaker", breakerName, "from", from.String(), "to", to.String())
		},
	}
	return &Transport{next: next, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// RoundTrip executes req through the breaker, returning gobreaker.ErrOpenState
// immediately once the breaker has tripped, without hitting the network at
// all. A 5xx/429 response counts as a breaker failure but is still
// returned to the caller with a nil error, so callers keep their own
// status-code handling.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	result, err := t.breaker.Execute(func() (interface{}, error) {
		resp, rtErr := t.next.RoundTrip(req)
		if rtErr != nil {
			return nil, rtErr
		}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return resp, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		return resp, nil
	})
	if resp, ok := result.(*http.Response); ok && resp != nil {
		return resp, nil
	}
	return nil, err
}
