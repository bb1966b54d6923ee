// Package metrics exposes the Pipeline and AutoCrawler's counters as
// Prometheus metrics (an additive instrumentation layer; spec.md's Non-goals
// exclude a database or UI, not an optional scrape endpoint).
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector wraps the counters/gauges a single process accumulates across
// however many Pipeline runs it performs.
type Collector struct {
	Discovered        *prometheus.CounterVec
	Fetched           prometheus.Counter
	Stored            *prometheus.CounterVec
	DuplicatesSkipped prometheus.Counter
	FailedFetch       prometheus.Counter
	QualityRejected   prometheus.Counter
	ExtractionFailed  prometheus.Counter
	YoutubeQuotaUsed  prometheus.Gauge

	registry *prometheus.Registry
}

// New constructs a Collector registered against its own private registry,
// so a library caller never pollutes prometheus.DefaultRegisterer.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		Discovered: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "corpuscrawler_discovered_total",
			Help: "Candidates discovered, by source.",
		}, []string{"source"}),
		Fetched: factory.NewCounter(prometheus.CounterOpts{
			Name: "corpuscrawler_fetched_total",
			Help: "Candidates successfully fetched.",
		}),
		Stored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "corpuscrawler_stored_total",
			Help: "Documents stored, by source.",
		}, []string{"source"}),
		DuplicatesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "corpuscrawler_duplicates_skipped_total",
			Help: "Candidates skipped because their normalized URL was already known.",
		}),
		FailedFetch: factory.NewCounter(prometheus.CounterOpts{
			Name: "corpuscrawler_failed_fetch_total",
			Help: "Fetches that returned an error.",
		}),
		QualityRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "corpuscrawler_quality_rejected_total",
			Help: "Documents rejected by the keyword-hits quality gate.",
		}),
		ExtractionFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "corpuscrawler_extraction_failed_total",
			Help: "Fetches whose primary extraction produced no document.",
		}),
		YoutubeQuotaUsed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "corpuscrawler_youtube_quota_used",
			Help: "YouTube Data API units consumed in the current UTC day.",
		}),
		registry: reg,
	}
}

// Serve starts a /metrics HTTP server on addr and blocks until ctx is
// cancelled, mirroring the short-lived server lifecycle of the teacher's
// own httpd command (started from a CLI flag, stopped on shutdown signal).
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
