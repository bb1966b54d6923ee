package cmd

import (
	"net/http"
	"os"
	"time"

	"github.com/kdevcrawl/corpuscrawler/internal/breaker"
	"github.com/kdevcrawl/corpuscrawler/internal/config"
	"github.com/kdevcrawl/corpuscrawler/internal/discover/news"
	"github.com/kdevcrawl/corpuscrawler/internal/discover/video"
	"github.com/kdevcrawl/corpuscrawler/internal/extract"
	"github.com/kdevcrawl/corpuscrawler/internal/fetch"
	"github.com/kdevcrawl/corpuscrawler/internal/logger"
	"github.com/kdevcrawl/corpuscrawler/internal/metrics"
	"github.com/kdevcrawl/corpuscrawler/internal/pipeline"
	"github.com/kdevcrawl/corpuscrawler/internal/urlnorm"
)

// buildPipeline wires every C1-C6 component together from a loaded Config,
// the shape `crawl` and `autocrawl` share. The News-API and Video-API HTTP
// clients each get their own circuit breaker (spec DOMAIN STACK); the
// target-site Fetcher stays on rehttp's retry transport alone, since a
// single bad article host tripping a breaker would wrongly silence every
// other host.
func buildPipeline(cfg *config.Config, log logger.Interface, m *metrics.Collector) (*pipeline.Pipeline, error) {
	index, err := urlnorm.Open(cfg.Output.Root, log)
	if err != nil {
		return nil, err
	}
	writer := urlnorm.NewWriter(cfg.Output.Root)

	fetcher := fetch.New(fetch.Config{
		UserAgent:      cfg.UserAgent,
		RequestTimeout: time.Duration(cfg.Limits.RequestTimeoutSec) * time.Second,
		GlobalPauseSec: 1,
	}, log)

	newsBreaker := breaker.New("news-api", nil, log)
	newsClient := &http.Client{Transport: newsBreaker, Timeout: 30 * time.Second}

	videoBreaker := breaker.New("video-api", nil, log)
	videoClient := &http.Client{Transport: videoBreaker, Timeout: 30 * time.Second}

	extractCfg := extract.ConfigFromEnv(cfg.Keywords, cfg.Lang, cfg.Quality.MinKeywordHits, fetcher.HTTPClient())

	newsCfgFn := func() news.Config {
		return news.Config{
			ChunkDays:            cfg.GDELT.ChunkDays,
			OverlapDays:          cfg.GDELT.OverlapDays,
			MaxConcurrency:       cfg.GDELT.MaxConcurrency,
			MaxRecords:           cfg.GDELT.MaxRecords,
			MaxAttempts:          cfg.GDELT.MaxAttempts,
			RateLimitBackoffSec:  cfg.GDELT.RateLimitBackoffSec,
			PauseBetweenRequests: cfg.GDELT.PauseBetweenRequests,
			BaseURL:              cfg.GDELT.BaseURL,
			Lang:                 cfg.Lang,
			UserAgent:            cfg.UserAgent,
			HTTPClient:           newsClient,
			Log:                  log,
		}
	}
	videoCfgFn := func() video.Config {
		return video.Config{
			APIKey:     youtubeAPIKeyFromEnv(),
			MaxResults: 25,
			HTTPClient: videoClient,
		}
	}

	return pipeline.New(cfg, log, index, writer, fetcher, extractCfg, m, newsCfgFn, videoCfgFn), nil
}

func youtubeAPIKeyFromEnv() string {
	return os.Getenv("YOUTUBE_API_KEY")
}
