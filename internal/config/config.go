// Package config parses the declarative run specification: keywords,
// languages, time window, per-source options, and rate-limit tuning (C1).
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// TimeWindow is the half-open [Start,End) discovery window. EndDate defaults
// to "now" when absent.
type TimeWindow struct {
	StartDate string `mapstructure:"start_date" yaml:"start_date"`
	EndDate   string `mapstructure:"end_date" yaml:"end_date"`
}

// Bounds resolves the window to concrete UTC instants, defaulting EndDate to
// now when empty.
func (w TimeWindow) Bounds(now time.Time) (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", w.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse time_window.start_date: %w", err)
	}
	start = start.UTC()
	if w.EndDate == "" {
		return start, now.UTC(), nil
	}
	end, err = time.Parse("2006-01-02", w.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse time_window.end_date: %w", err)
	}
	return start, end.UTC(), nil
}

// Output configures the per-source log and index location.
type Output struct {
	Root     string `mapstructure:"root" yaml:"root"`
	FileName string `mapstructure:"file_name" yaml:"file_name"`
}

// Limits bounds discovery and fetch work.
type Limits struct {
	MaxCandidatesPerSource int `mapstructure:"max_candidates_per_source" yaml:"max_candidates_per_source"`
	RequestTimeoutSec      int `mapstructure:"request_timeout_sec" yaml:"request_timeout_sec"`
}

// Quality configures the keyword-hits quality gate.
type Quality struct {
	MinKeywordHits int `mapstructure:"min_keyword_hits" yaml:"min_keyword_hits"`
}

// GDELT tunes the News-API discoverer.
type GDELT struct {
	ChunkDays            int     `mapstructure:"chunk_days" yaml:"chunk_days"`
	OverlapDays          int     `mapstructure:"overlap_days" yaml:"overlap_days"`
	MaxConcurrency       int     `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	MaxRecords           int     `mapstructure:"maxrecords" yaml:"maxrecords"`
	MaxAttempts          int     `mapstructure:"max_attempts" yaml:"max_attempts"`
	RateLimitBackoffSec  float64 `mapstructure:"rate_limit_backoff_sec" yaml:"rate_limit_backoff_sec"`
	PauseBetweenRequests float64 `mapstructure:"pause_between_requests" yaml:"pause_between_requests"`
	BaseURL              string  `mapstructure:"base_url" yaml:"base_url"`
}

// ForumSite configures one forum source (A-E in the spec).
type ForumSite struct {
	Enabled       bool     `mapstructure:"enabled" yaml:"enabled"`
	Boards        []string `mapstructure:"boards" yaml:"boards"`
	MaxPages      int      `mapstructure:"max_pages" yaml:"max_pages"`
	PerBoardLimit int      `mapstructure:"per_board_limit" yaml:"per_board_limit"`
	ObeyRobots    bool     `mapstructure:"obey_robots" yaml:"obey_robots"`
	PauseSec      float64  `mapstructure:"pause_sec" yaml:"pause_sec"`
	UntilDate     string   `mapstructure:"until_date" yaml:"until_date"`
}

// Forums groups the per-site forum config.
type Forums struct {
	Sites map[string]ForumSite `mapstructure:"sites" yaml:"sites"`
}

// YoutubeAutocrawl configures the video-API quota planning knobs.
type YoutubeAutocrawl struct {
	DailyQuota   int `mapstructure:"daily_quota" yaml:"daily_quota"`
	ReserveQuota int `mapstructure:"reserve_quota" yaml:"reserve_quota"`
}

// Round bounds a single autocrawl round's execution.
type Round struct {
	MaxFetch           int     `mapstructure:"max_fetch" yaml:"max_fetch"`
	MaxGdeltWindows    int     `mapstructure:"max_gdelt_windows" yaml:"max_gdelt_windows"`
	MaxYoutubeWindows  int     `mapstructure:"max_youtube_windows" yaml:"max_youtube_windows"`
	MaxYoutubeKeywords int     `mapstructure:"max_youtube_keywords" yaml:"max_youtube_keywords"`
	MinStoredThreshold int     `mapstructure:"min_stored_threshold" yaml:"min_stored_threshold"`
	MaxDupRatio        float64 `mapstructure:"max_dup_ratio" yaml:"max_dup_ratio"`
	CooldownRounds     int     `mapstructure:"cooldown_rounds" yaml:"cooldown_rounds"`
}

// Autocrawl configures the AutoCrawler planner.
type Autocrawl struct {
	MonthsBack          int              `mapstructure:"months_back" yaml:"months_back"`
	MonthlyTargetPerSrc int              `mapstructure:"monthly_target_per_source" yaml:"monthly_target_per_source"`
	IncludeForums       bool             `mapstructure:"include_forums" yaml:"include_forums"`
	Youtube             YoutubeAutocrawl `mapstructure:"youtube" yaml:"youtube"`
	RoundCfg            Round            `mapstructure:"round" yaml:"round"`
}

// Config is the full declarative run specification (C1).
type Config struct {
	Keywords   []string   `mapstructure:"keywords" yaml:"keywords"`
	Lang       []string   `mapstructure:"lang" yaml:"lang"`
	TimeWindow TimeWindow `mapstructure:"time_window" yaml:"time_window"`
	Output     Output     `mapstructure:"output" yaml:"output"`
	Limits     Limits     `mapstructure:"limits" yaml:"limits"`
	Quality    Quality    `mapstructure:"quality" yaml:"quality"`
	GDELT      GDELT      `mapstructure:"gdelt" yaml:"gdelt"`
	Forums     Forums     `mapstructure:"forums" yaml:"forums"`
	Autocrawl  Autocrawl  `mapstructure:"autocrawl" yaml:"autocrawl"`

	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
}

// Default returns a Config with every knob the spec names set to a sane
// default, the way the teacher's setDefaults populates viper before a file
// or env var can override it.
func Default() *Config {
	return &Config{
		Lang: []string{"ko"},
		Output: Output{
			Root:     "./data",
			FileName: "",
		},
		Limits: Limits{
			MaxCandidatesPerSource: 200,
			RequestTimeoutSec:      20,
		},
		Quality: Quality{MinKeywordHits: 1},
		GDELT: GDELT{
			ChunkDays:            1,
			OverlapDays:          0,
			MaxConcurrency:       4,
			MaxRecords:           250,
			MaxAttempts:          5,
			RateLimitBackoffSec:  2,
			PauseBetweenRequests: 1,
			BaseURL:              "https://api.gdeltproject.org/api/v2/doc/doc",
		},
		Forums: Forums{Sites: map[string]ForumSite{}},
		Autocrawl: Autocrawl{
			MonthsBack:          6,
			MonthlyTargetPerSrc: 100,
			IncludeForums:       true,
			Youtube:             YoutubeAutocrawl{DailyQuota: 10000, ReserveQuota: 1000},
			RoundCfg: Round{
				MaxFetch:           500,
				MaxGdeltWindows:    2,
				MaxYoutubeWindows:  1,
				MaxYoutubeKeywords: 5,
				MinStoredThreshold: 3,
				MaxDupRatio:        0.8,
				CooldownRounds:     2,
			},
		},
		UserAgent: "corpuscrawler/1.0",
	}
}

// Load reads defaults, then an optional YAML override file, then environment
// variables, in that precedence order (lowest to highest), mirroring the
// teacher's setupConfig: defaults -> file -> env -> flags (flags are applied
// by the caller after Load returns).
func Load(paramsPath string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	bindDefaults(v, cfg)

	if paramsPath != "" {
		data, err := os.ReadFile(paramsPath)
		if err != nil {
			return nil, fmt.Errorf("read params file %s: %w", paramsPath, err)
		}
		if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
			return nil, fmt.Errorf("parse params file %s: %w", paramsPath, err)
		}
	}

	v.AutomaticEnv()
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	out := Default()
	decoderOpt := func(dc *mapstructure.DecoderConfig) { dc.TagName = "mapstructure" }
	if err := v.Unmarshal(out, decoderOpt); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}

// bindDefaults seeds viper with the zero-config defaults so unset keys still
// resolve to something sensible after Unmarshal.
func bindDefaults(v *viper.Viper, cfg *Config) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return
	}
	_ = v.MergeConfig(bytes.NewReader(data))
}

func bindEnvVars(v *viper.Viper) error {
	binds := map[string]string{
		"user_agent": "CRAWLER_USER_AGENT",
	}
	for key, env := range binds {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	return nil
}
