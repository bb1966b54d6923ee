package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kdevcrawl/corpuscrawler/internal/config"
	"github.com/kdevcrawl/corpuscrawler/internal/metrics"
	"github.com/kdevcrawl/corpuscrawler/internal/pipeline"
)

func newCrawlCommand() *cobra.Command {
	var (
		only        []string
		forumsSites []string
		maxFetch    int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Run a single discover -> fetch -> extract -> store pass",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paramsFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			m := metrics.New()
			if metricsAddr != "" {
				go func() {
					if err := m.Serve(cmd.Context(), metricsAddr); err != nil {
						log.Warn("metrics server stopped", "error", err)
					}
				}()
			}

			p, err := buildPipeline(cfg, log, m)
			if err != nil {
				return fmt.Errorf("build pipeline: %w", err)
			}

			opts := pipeline.DefaultOptions()
			if len(only) > 0 {
				opts.IncludeGdelt, opts.IncludeYoutube, opts.IncludeForums = false, false, false
				for _, src := range only {
					switch strings.ToLower(src) {
					case "gdelt", "news":
						opts.IncludeGdelt = true
					case "youtube", "video":
						opts.IncludeYoutube = true
					case "forums", "forum":
						opts.IncludeForums = true
					default:
						return fmt.Errorf("unknown --only value %q (want gdelt, youtube, or forums)", src)
					}
				}
			}
			opts.ForumsSiteFilter = forumsSites
			if maxFetch > 0 {
				opts.MaxFetch = maxFetch
			}

			stats, err := p.Run(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("run pipeline: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		},
	}

	cmd.Flags().StringSliceVar(&only, "only", nil, "restrict discovery to these sources: gdelt, youtube, forums")
	cmd.Flags().StringSliceVar(&forumsSites, "forums-sites", nil, "restrict forum discovery to these site keys (default: all enabled)")
	cmd.Flags().IntVar(&maxFetch, "max-fetch", 0, "override the configured max fetches for this run (0 = use config)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "if set, serve Prometheus metrics on this address for the run's duration")

	return cmd
}
