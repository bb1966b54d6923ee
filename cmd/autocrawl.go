package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/kdevcrawl/corpuscrawler/internal/autocrawl"
	"github.com/kdevcrawl/corpuscrawler/internal/config"
	"github.com/kdevcrawl/corpuscrawler/internal/metrics"
)

func newAutocrawlCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autocrawl",
		Short: "Plan and run bounded AutoCrawler rounds against a persistent deficit budget",
	}
	cmd.AddCommand(newAutocrawlRunCommand())
	cmd.AddCommand(newAutocrawlStatusCommand())
	cmd.AddCommand(newAutocrawlPlanCommand())
	cmd.AddCommand(newAutocrawlResetCommand())
	return cmd
}

// autocrawlOverrides carries the spec §6 `autocrawl` planner-knob flags
// (--months-back, --monthly-target, --include-forums/--exclude-forums,
// --max-fetch, --max-gdelt-windows, --max-youtube-windows,
// --max-youtube-keywords), applied on top of the loaded config.Config the
// same way a CLI flag outranks a config file value in the teacher's
// defaults -> file -> env -> flags precedence chain.
type autocrawlOverrides struct {
	monthsBack         int
	monthlyTarget      int
	includeForums      bool
	excludeForums      bool
	maxFetch           int
	maxGdeltWindows    int
	maxYoutubeWindows  int
	maxYoutubeKeywords int
}

func (o autocrawlOverrides) apply(cfg *config.Config) {
	if o.monthsBack > 0 {
		cfg.Autocrawl.MonthsBack = o.monthsBack
	}
	if o.monthlyTarget > 0 {
		cfg.Autocrawl.MonthlyTargetPerSrc = o.monthlyTarget
	}
	if o.includeForums {
		cfg.Autocrawl.IncludeForums = true
	}
	if o.excludeForums {
		cfg.Autocrawl.IncludeForums = false
	}
	if o.maxFetch > 0 {
		cfg.Autocrawl.RoundCfg.MaxFetch = o.maxFetch
	}
	if o.maxGdeltWindows > 0 {
		cfg.Autocrawl.RoundCfg.MaxGdeltWindows = o.maxGdeltWindows
	}
	if o.maxYoutubeWindows > 0 {
		cfg.Autocrawl.RoundCfg.MaxYoutubeWindows = o.maxYoutubeWindows
	}
	if o.maxYoutubeKeywords > 0 {
		cfg.Autocrawl.RoundCfg.MaxYoutubeKeywords = o.maxYoutubeKeywords
	}
}

func addAutocrawlOverrideFlags(cmd *cobra.Command, o *autocrawlOverrides) {
	cmd.Flags().IntVar(&o.monthsBack, "months-back", 0, "override autocrawl.months_back (0 = use config)")
	cmd.Flags().IntVar(&o.monthlyTarget, "monthly-target", 0, "override autocrawl.monthly_target_per_source (0 = use config)")
	cmd.Flags().BoolVar(&o.includeForums, "include-forums", false, "force autocrawl.include_forums on")
	cmd.Flags().BoolVar(&o.excludeForums, "exclude-forums", false, "force autocrawl.include_forums off")
	cmd.Flags().IntVar(&o.maxFetch, "max-fetch", 0, "override autocrawl.round.max_fetch (0 = use config)")
	cmd.Flags().IntVar(&o.maxGdeltWindows, "max-gdelt-windows", 0, "override autocrawl.round.max_gdelt_windows (0 = use config)")
	cmd.Flags().IntVar(&o.maxYoutubeWindows, "max-youtube-windows", 0, "override autocrawl.round.max_youtube_windows (0 = use config)")
	cmd.Flags().IntVar(&o.maxYoutubeKeywords, "max-youtube-keywords", 0, "override autocrawl.round.max_youtube_keywords (0 = use config)")
}

// loadCrawler builds a config.Config, a wired Pipeline, and an AutoCrawler
// reading/writing its state next to the configured output root.
func loadCrawler(overrides autocrawlOverrides) (*autocrawl.AutoCrawler, *metrics.Collector, error) {
	cfg, err := config.Load(paramsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	overrides.apply(cfg)
	m := metrics.New()
	p, err := buildPipeline(cfg, log, m)
	if err != nil {
		return nil, nil, fmt.Errorf("build pipeline: %w", err)
	}
	statePath := filepath.Join(cfg.Output.Root, "_auto_state.json")
	return autocrawl.New(cfg, log, p, statePath), m, nil
}

func newAutocrawlRunCommand() *cobra.Command {
	var (
		rounds      int
		sleepSec    int
		cronExpr    string
		metricsAddr string
		dryRun      bool
		overrides   autocrawlOverrides
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute one or more AutoCrawler rounds",
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, m, err := loadCrawler(overrides)
			if err != nil {
				return err
			}

			if dryRun {
				plan := ac.Plan(time.Now())
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(plan)
			}

			if metricsAddr != "" {
				go func() {
					if err := m.Serve(cmd.Context(), metricsAddr); err != nil {
						log.Warn("metrics server stopped", "error", err)
					}
				}()
			}

			if cronExpr != "" {
				return runCronDaemon(cmd.Context(), ac, cronExpr)
			}
			return runRounds(cmd.Context(), ac, rounds, sleepSec)
		},
	}

	cmd.Flags().IntVar(&rounds, "rounds", 1, "number of rounds to run (ignored when --cron is set)")
	cmd.Flags().IntVar(&sleepSec, "sleep-sec", 0, "seconds to sleep between rounds")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "run forever, firing one round on this 5-field cron schedule (daemon mode)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the next RoundPlan instead of executing it (like `autocrawl plan`)")
	addAutocrawlOverrideFlags(cmd, &overrides)

	return cmd
}

func runRounds(ctx context.Context, ac *autocrawl.AutoCrawler, rounds, sleepSec int) error {
	for i := 0; i < rounds; i++ {
		result, err := ac.RunRound(ctx, time.Now())
		if err != nil {
			return fmt.Errorf("round %d: %w", i+1, err)
		}
		log.Info("autocrawl round complete",
			"round", i+1,
			"stored", result.Stats.Stored,
			"fetched", result.Stats.Fetched,
			"duplicates_skipped", result.Stats.DuplicatesSkipped)

		if i < rounds-1 && sleepSec > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(sleepSec) * time.Second):
			}
		}
	}
	return nil
}

// runCronDaemon fires one AutoCrawler round per cronExpr match, following
// the teacher pack's worker-cron pattern (cron.New + AddFunc + Start,
// blocking until the process is signaled to stop).
func runCronDaemon(ctx context.Context, ac *autocrawl.AutoCrawler, cronExpr string) error {
	c := cron.New()
	_, err := c.AddFunc(cronExpr, func() {
		if _, err := ac.RunRound(context.Background(), time.Now()); err != nil {
			log.Error("autocrawl cron round failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	c.Start()
	defer c.Stop()

	log.Info("autocrawl cron daemon started", "schedule", cronExpr)
	<-ctx.Done()
	log.Info("autocrawl cron daemon stopping")
	return nil
}

func newAutocrawlStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the current AutoState (counts, cooldowns, quota)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, _, err := loadCrawler(autocrawlOverrides{})
			if err != nil {
				return err
			}
			state := ac.State()
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(state)
		},
	}
}

func newAutocrawlPlanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Print the next RoundPlan without executing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, _, err := loadCrawler(autocrawlOverrides{})
			if err != nil {
				return err
			}
			plan := ac.Plan(time.Now())
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		},
	}
}

func newAutocrawlResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard AutoState, preserving configured YouTube quota defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, _, err := loadCrawler(autocrawlOverrides{})
			if err != nil {
				return err
			}
			ac.Reset()
			if err := ac.Save(); err != nil {
				return fmt.Errorf("save reset state: %w", err)
			}
			log.Info("autocrawl state reset")
			return nil
		},
	}
}
